package cycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"
)

type namedRunnable struct {
	Runnable
	name string
}

func (r *namedRunnable) Name() string {
	return r.name
}

// NamedRun wraps a Runnable with a name for log output.
func NamedRun(name string, runnable Runnable) Runnable {
	return &namedRunnable{name: name, Runnable: runnable}
}

// Runner supervises a set of Runnables sharing one context and collects
// their exit errors.
type Runner struct {
	Context context.Context

	count  int
	doneCh chan error
	exitCh chan struct{}
}

// NewRunner creates a runner over the background context.
func NewRunner() *Runner {
	return NewRunnerWith(context.Background())
}

// NewRunnerWith creates a runner over the given context.
func NewRunnerWith(ctx context.Context) *Runner {
	return &Runner{
		Context: ctx,
		doneCh:  make(chan error, 1),
		exitCh:  make(chan struct{}),
	}
}

// HandleSignals cancels the runner's context on SIGINT/SIGTERM. A second
// signal forces Wait to give up on runnables that refuse to stop.
func (r *Runner) HandleSignals() *Runner {
	ctx, cancel := context.WithCancel(r.Context)
	r.Context = ctx
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("stop requested")
		cancel()
		<-sigCh
		glog.Error("stop requested again, force exit")
		close(r.exitCh)
	}()
	return r
}

// Go spawns runnables under the runner's context.
func (r *Runner) Go(runnables ...Runnable) *Runner {
	return r.GoWith(r.Context, runnables...)
}

// GoWith spawns runnables under a specific context.
func (r *Runner) GoWith(ctx context.Context, runnables ...Runnable) *Runner {
	for _, runnable := range runnables {
		name := fmt.Sprintf("#%d", r.count)
		if named, ok := runnable.(Named); ok {
			name = named.Name()
		}
		r.count++
		go func(runnable Runnable, name string) {
			glog.V(4).Infof("runner[%s] started", name)
			r.doneCh <- runnable.Run(ctx)
			glog.V(4).Infof("runner[%s] stopped", name)
		}(runnable, name)
	}
	return r
}

// Wait blocks until every spawned runnable returns, then reports their
// errors as one. Context cancellation is a clean stop, not a failure.
func (r *Runner) Wait() error {
	var errs AggregatedError
	for i := 0; i < r.count; i++ {
		select {
		case <-r.exitCh:
			return errors.New("forced exit")
		case err := <-r.doneCh:
			if !errors.Is(err, context.Canceled) {
				errs.Add(err)
			}
		}
	}
	return errs.Aggregate()
}

// RunWithContextCancel adapts a blocking func with no context parameter.
// onCancel runs only when the context ends first, giving the caller a
// hook to unblock fn.
func RunWithContextCancel(ctx context.Context, onCancel func(), fn func() error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- fn()
	}()
	select {
	case <-ctx.Done():
		if onCancel != nil {
			onCancel()
		}
		<-errCh
		return context.Canceled
	case err := <-errCh:
		return err
	}
}

// RunWithContext is the form with no cancel hook.
func RunWithContext(ctx context.Context, fn func() error) error {
	return RunWithContextCancel(ctx, nil, fn)
}

// RunWithContextCloser closes closer on cancel or when fn returns,
// whichever comes first. Blocking serial reads are unblocked on shutdown
// this way.
func RunWithContextCloser(ctx context.Context, closer io.Closer, fn func() error) error {
	var closed bool
	err := RunWithContextCancel(ctx, func() {
		closer.Close()
		closed = true
	}, fn)
	if !closed {
		closer.Close()
	}
	return err
}
