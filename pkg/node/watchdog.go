package node

import (
	"time"

	"github.com/golang/glog"

	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/errcode"
	"github.com/subsearobotics/rov.go/pkg/wire"
)

// DefaultTimeout is how long the node tolerates silence before failing
// safe.
const DefaultTimeout = time.Second

// Watchdog is the fail-safe state machine. Armed: outputs follow the
// last valid command. Tripped: every output has been forced to neutral
// and stays there until a new role-valid message arrives. The trip is
// edge-triggered so one silence episode produces exactly one telemetry
// error, not one per cycle.
type Watchdog struct {
	Timeout time.Duration

	registry  *device.Registry
	telemetry *wire.Encoder

	lastValid time.Time
	tripped   bool
}

// NewWatchdog creates a Watchdog over the node's devices.
func NewWatchdog(registry *device.Registry, telemetry *wire.Encoder) *Watchdog {
	return &Watchdog{
		Timeout:   DefaultTimeout,
		registry:  registry,
		telemetry: telemetry,
	}
}

// Feed records a successfully parsed, role-valid message. It rearms a
// tripped watchdog immediately, in the same cycle, regardless of the
// values the message carried.
func (w *Watchdog) Feed(now time.Time) {
	w.lastValid = now
	w.tripped = false
}

// Tripped reports whether the node is in the fail-safe state.
func (w *Watchdog) Tripped() bool {
	return w.tripped
}

// Check runs exactly once per cycle, after dispatch. On the Armed to
// Tripped transition it forces every output to neutral and buffers the
// timeout error once.
func (w *Watchdog) Check(now time.Time) {
	if !w.registry.HasOutputs() {
		return
	}
	if w.lastValid.IsZero() {
		// Arm at the first cycle; the boot itself is not a silence
		// episode until the timeout elapses.
		w.lastValid = now
		return
	}
	if w.tripped || now.Sub(w.lastValid) <= w.Timeout {
		return
	}
	w.tripped = true
	for _, out := range w.registry.Outputs() {
		if err := out.ForceNeutral(); err != nil {
			glog.Errorf("fail-safe %s: %v", out.ID, err)
		}
	}
	w.telemetry.BufferError(errcode.CommTimeout)
	glog.Warningf("node %s: communication lost, outputs halted", w.registry.Role())
}
