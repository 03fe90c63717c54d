package node

import (
	"sort"
	"strings"

	"github.com/golang/glog"

	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/errcode"
	"github.com/subsearobotics/rov.go/pkg/wire"
)

// StopKey is the host command halting every output on the node,
// independent of per-device values.
const StopKey = "stop"

// Dispatcher routes decoded command keys to the node's device table.
// Keyed errors never abort the rest of the command: every key is
// examined and reported independently.
type Dispatcher struct {
	Registry  *device.Registry
	Telemetry *wire.Encoder
}

// Dispatch applies one command. It reports roleValid=true when the
// message carried at least one key this role owns (or no keys at all),
// which is what rearms the safety watchdog.
func (d *Dispatcher) Dispatch(cmd wire.Command) (roleValid bool) {
	if len(cmd) == 0 {
		return true
	}
	// Deterministic processing order; decoded maps have none.
	keys := make([]string, 0, len(cmd))
	for k := range cmd {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if d.dispatchKey(key, cmd[key]) {
			roleValid = true
		}
	}
	return
}

func (d *Dispatcher) dispatchKey(key string, value int) (owned bool) {
	if key == StopKey {
		return d.stopOutputs()
	}
	if out, ok := d.Registry.Output(key); ok {
		if err := out.Set(value); err != nil {
			d.report(err)
		} else {
			d.Telemetry.BufferInt(key, value)
		}
		return true
	}
	if in, ok := d.Registry.Input(key); ok {
		if err := in.SetParam(value); err != nil {
			d.report(err)
		} else {
			d.Telemetry.BufferInt(key, value)
		}
		return true
	}
	d.Telemetry.BufferError(classifyUnknown(key))
	return false
}

// stopOutputs forces every actuator to neutral. On a node without
// outputs the request itself is the error.
func (d *Dispatcher) stopOutputs() bool {
	if !d.Registry.HasOutputs() {
		d.Telemetry.BufferError(errcode.StopOnInputNode)
		return false
	}
	for _, out := range d.Registry.Outputs() {
		if err := out.ForceNeutral(); err != nil {
			glog.Errorf("stop %s: %v", out.ID, err)
		}
	}
	d.Telemetry.BufferStatus(errcode.OutputsHalted)
	return true
}

func (d *Dispatcher) report(err error) {
	if code, ok := err.(errcode.Code); ok {
		d.Telemetry.BufferError(code)
		return
	}
	// Driver failures are operator problems, not host protocol errors.
	glog.Errorf("dispatch: %v", err)
}

// classifyUnknown picks the rejection code for a key no device matches.
// The identifier scheme is part of the wire contract, so the class can
// be told from the prefix; anything else is an unknown device class.
func classifyUnknown(key string) errcode.Code {
	switch {
	case strings.HasPrefix(key, "Thr_"), strings.HasPrefix(key, "Mot_"):
		return errcode.InvalidOutputID
	case strings.HasPrefix(key, "Sen_"):
		return errcode.InvalidInputID
	default:
		return errcode.UnknownOutputClass
	}
}
