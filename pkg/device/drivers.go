package device

import (
	"github.com/golang/glog"
)

// Noop is a Driver that accepts every value. Used on nodes whose real
// drivers are attached elsewhere in the build.
var Noop = DriverFunc(func(channel, value int) error {
	return nil
})

// Trace is a Driver that logs every applied value. It is the default
// driver when no hardware layer is wired in, so a bench run of the
// firmware shows exactly what would reach the actuators.
var Trace = DriverFunc(func(channel, value int) error {
	glog.V(2).Infof("pwm ch=%d value=%d", channel, value)
	return nil
})

// Recorder is a Driver capturing every applied value, for tests and for
// the host-side node simulator.
type Recorder struct {
	Applied []Apply
}

// Apply is one recorded actuation.
type Apply struct {
	Channel int
	Value   int
}

// Apply implements Driver.
func (r *Recorder) Apply(channel, value int) error {
	r.Applied = append(r.Applied, Apply{Channel: channel, Value: value})
	return nil
}

// Last returns the most recent actuation.
func (r *Recorder) Last() (Apply, bool) {
	if len(r.Applied) == 0 {
		return Apply{}, false
	}
	return r.Applied[len(r.Applied)-1], true
}

// Reset clears recorded actuations.
func (r *Recorder) Reset() {
	r.Applied = nil
}
