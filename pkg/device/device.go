// Package device models the fixed set of actuators and sensors a node
// owns, bound to physical channels at boot and addressed by the string
// identifiers the host uses as command keys.
package device

import (
	"strconv"

	"github.com/subsearobotics/rov.go/pkg/errcode"
)

// Output command units are PWM microseconds for both thrusters and
// gripper/arm motors.
const (
	OutputMin     = 1100
	OutputMax     = 1900
	OutputNeutral = 1500
)

// Driver applies validated values to the physical layer (PWM/I2C). A
// driver sees only in-range or neutral values, never anything else.
type Driver interface {
	Apply(channel int, value int) error
}

// DriverFunc is the func form of Driver.
type DriverFunc func(channel, value int) error

// Apply implements Driver.
func (f DriverFunc) Apply(channel, value int) error {
	return f(channel, value)
}

// Output is one actuator: a thruster or a motor. Owned exclusively by the
// Registry; mutated only by command dispatch and by the safety watchdog.
type Output struct {
	ID      string
	Channel int
	Min     int
	Max     int
	Neutral int

	value  int
	driver Driver
}

// Set validates v against the inclusive range and applies it. An
// out-of-range value leaves the previous value on the hardware.
func (o *Output) Set(v int) error {
	if v < o.Min || v > o.Max {
		return errcode.ValueOutOfRange
	}
	if err := o.driver.Apply(o.Channel, v); err != nil {
		return err
	}
	o.value = v
	return nil
}

// ForceNeutral drives the output to its stopped value unconditionally.
func (o *Output) ForceNeutral() error {
	if err := o.driver.Apply(o.Channel, o.Neutral); err != nil {
		return err
	}
	o.value = o.Neutral
	return nil
}

// Value returns the value currently applied to the hardware.
func (o *Output) Value() int {
	return o.value
}

// Input is one sensor channel. Its reading is written by the polling
// routine and consumed by the telemetry stage.
type Input struct {
	ID string

	// Writable marks a sensor parameter the host may set (e.g. the
	// sonar scan window); plain readings are rejected as commands.
	Writable bool
	// AbsentCode / UninitCode are the degraded-state codes reported
	// for this sensor class when it is missing or not yet initialized.
	AbsentCode errcode.Code
	UninitCode errcode.Code

	Present     bool
	Initialized bool

	value    float64
	hasValue bool
	param    int
}

// SetReading stores the latest polled value.
func (i *Input) SetReading(v float64) {
	i.value, i.hasValue = v, true
	i.Present, i.Initialized = true, true
}

// Reading returns the last polled value as wire text.
func (i *Input) Reading() (string, bool) {
	if !i.hasValue {
		return "", false
	}
	return strconv.FormatFloat(i.value, 'f', -1, 64), true
}

// SetParam stores a host-written parameter value.
func (i *Input) SetParam(v int) error {
	if !i.Writable {
		return errcode.SonarParamInvalid
	}
	i.param = v
	return nil
}

// Param returns the current parameter value.
func (i *Input) Param() int {
	return i.param
}

// StateCode reports the degraded-state code for this sensor, or OK.
func (i *Input) StateCode() errcode.Code {
	if !i.Present {
		return i.AbsentCode
	}
	if !i.Initialized {
		return i.UninitCode
	}
	return errcode.OK
}
