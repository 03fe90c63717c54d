package node

import (
	"context"
	"io"

	"github.com/golang/glog"

	"github.com/subsearobotics/rov.go/pkg/cycle"
	"github.com/subsearobotics/rov.go/pkg/wire"
)

// LineMsg is one completed, framed line posted into the cycle loop.
type LineMsg []byte

// Receiver drains the serial input independently of the cycle's pace,
// standing in for the RX interrupt. It only feeds the framer and posts
// completed lines; parsing, dispatch and telemetry stay in the cycle so
// the receive path stays bounded. The framer arena is owned by this
// goroutine; the loop only ever sees copies.
type Receiver struct {
	Reader io.Reader

	framer wire.Framer
}

// Name implements Named.
func (r *Receiver) Name() string {
	return "serial-rx"
}

// Run implements Runnable.
func (r *Receiver) Run(ctx context.Context) error {
	ctl := cycle.LoopCtlFrom(ctx)
	buf := make([]byte, 64)
	read := func() error {
		for {
			n, err := r.Reader.Read(buf)
			for i := 0; i < n; i++ {
				if line, done := r.framer.Feed(buf[i]); done {
					msg := make(LineMsg, len(line))
					copy(msg, line)
					glog.V(3).Infof("rx line: %s", msg)
					ctl.PostMessage(msg)
					ctl.TriggerNext()
				}
			}
			if err != nil {
				if err == io.EOF {
					return nil
				}
				return err
			}
		}
	}
	if closer, ok := r.Reader.(io.Closer); ok {
		return cycle.RunWithContextCloser(ctx, closer, read)
	}
	return cycle.RunWithContext(ctx, read)
}
