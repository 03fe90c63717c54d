// Package errcode defines the fleet-wide numeric status and error codes
// reported in node telemetry. Codes are stable: hosts rendering merged logs
// from several nodes rely on the numeric values, not the text.
package errcode

import "fmt"

// Code is a numeric status or error code. Positive codes (and zero) are
// statuses, negative codes are errors. Code implements error so it can be
// returned directly from dispatch paths.
type Code int

// Statuses
const (
	OK            Code = 0
	OutputsHalted Code = 1
	LimitForward  Code = 2
	LimitReverse  Code = 3
	Booting       Code = 4
)

// Errors
const (
	ValueOutOfRange    Code = -1
	IMUAbsent          Code = -2
	IMUUninitialized   Code = -3
	DepthAbsent        Code = -4
	DepthUninitialized Code = -5
	UnknownOutputClass Code = -6
	UnknownInputClass  Code = -7
	InvalidOutputID    Code = -8
	InvalidInputID     Code = -9
	StopOnInputNode    Code = -10
	JSONParseFailed    Code = -11
	IdentityMissing    Code = -12
	CommTimeout        Code = -13

	// Fault flags forwarded from an attached power stage.
	PowerOverTemp     Code = -14
	PowerOverVolt     Code = -15
	PowerUnderVolt    Code = -16
	PowerOverCurrent  Code = -17
	PowerShortCircuit Code = -18
	PowerNotReady     Code = -19

	SonarAbsent        Code = -20
	SonarUninitialized Code = -21
	SonarNoResponse    Code = -22
	SonarParamInvalid  Code = -23
)

var texts = map[Code]string{
	OK:            "no error",
	OutputsHalted: "outputs halted",
	LimitForward:  "mechanical limit hit (forward)",
	LimitReverse:  "mechanical limit hit (reverse)",
	Booting:       "booting",

	ValueOutOfRange:    "incoming value out of range",
	IMUAbsent:          "IMU not detected",
	IMUUninitialized:   "IMU not initialized",
	DepthAbsent:        "depth sensor not detected",
	DepthUninitialized: "depth sensor not initialized",
	UnknownOutputClass: "unknown output device class requested",
	UnknownInputClass:  "unknown input device class requested",
	InvalidOutputID:    "output device ID is not valid",
	InvalidInputID:     "input device ID is not valid",
	StopOnInputNode:    "stop outputs requested on a node without outputs",
	JSONParseFailed:    "JSON parsing failed",
	IdentityMissing:    "node identity not provisioned",
	CommTimeout:        "no incoming data received for more than 1 second; outputs halted",

	PowerOverTemp:     "power stage over temperature",
	PowerOverVolt:     "power stage over voltage",
	PowerUnderVolt:    "power stage under voltage",
	PowerOverCurrent:  "power stage over current",
	PowerShortCircuit: "power stage short circuit",
	PowerNotReady:     "power stage not ready",

	SonarAbsent:        "sonar not detected",
	SonarUninitialized: "sonar not initialized",
	SonarNoResponse:    "sonar not responding",
	SonarParamInvalid:  "sensor parameter index is not valid",
}

// Text returns the human readable message for the code.
func (c Code) Text() string {
	if t, ok := texts[c]; ok {
		return t
	}
	return "unknown code"
}

// IsError indicates the code reports a failure rather than a status.
func (c Code) IsError() bool {
	return c < 0
}

// Error implements error. The numeric value is included so merged host
// logs stay machine readable.
func (c Code) Error() string {
	return fmt.Sprintf("(%d) %s", int(c), c.Text())
}

// String implements fmt.Stringer.
func (c Code) String() string {
	return c.Error()
}
