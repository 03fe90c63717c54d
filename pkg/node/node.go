// Package node assembles one microcontroller node of the vehicle: role
// identity, device table, command dispatch, fail-safe watchdog and
// telemetry, all driven by the cycle loop.
package node

import (
	"io"

	"github.com/golang/glog"

	"github.com/subsearobotics/rov.go/pkg/cycle"
	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/errcode"
	"github.com/subsearobotics/rov.go/pkg/identity"
	"github.com/subsearobotics/rov.go/pkg/wire"
)

// Node is the command-and-telemetry engine of one node. Within a cycle,
// dispatch always completes before the watchdog check, the watchdog
// check runs exactly once, and the telemetry flush runs last.
type Node struct {
	Role      identity.Role
	Registry  *device.Registry
	Telemetry *wire.Encoder
	Watchdog  *Watchdog

	dispatcher Dispatcher
	receiver   *Receiver
	out        io.Writer

	booting    bool
	inputState map[string]errcode.Code
}

// New assembles a node of the given role around a host link. Incoming
// bytes are read from in; one telemetry object per cycle is written to
// out, fire-and-forget.
func New(role identity.Role, driver device.Driver, in io.Reader, out io.Writer) *Node {
	registry := device.NewRegistry(role, driver)
	telemetry := wire.NewEncoder(role.DeviceID(), byte(role))
	n := &Node{
		Role:      role,
		Registry:  registry,
		Telemetry: telemetry,
		Watchdog:  NewWatchdog(registry, telemetry),
		dispatcher: Dispatcher{
			Registry:  registry,
			Telemetry: telemetry,
		},
		receiver:   &Receiver{Reader: in},
		out:        out,
		booting:    true,
		inputState: make(map[string]errcode.Code),
	}
	return n
}

// AddToLoop implements LoopAdder.
func (n *Node) AddToLoop(l *cycle.Loop) {
	l.AddRunnable(n.receiver)
	l.At(cycle.StageSense, cycle.ControlFunc(n.senseStage))
	l.At(cycle.StageDispatch, cycle.ControlFunc(n.dispatchStage))
	l.At(cycle.StageSafety, cycle.ControlFunc(n.safetyStage))
	l.At(cycle.StageReport, cycle.ControlFunc(n.reportStage))
}

// senseStage buffers current sensor readings and reports degraded sensor
// states on change, once per episode rather than per cycle.
func (n *Node) senseStage(cc cycle.ControlContext) error {
	for _, in := range n.Registry.Inputs() {
		if v, ok := in.Reading(); ok {
			n.Telemetry.BufferValue(in.ID, v)
		}
		state := in.StateCode()
		if prev, seen := n.inputState[in.ID]; !seen || prev != state {
			n.inputState[in.ID] = state
			if state.IsError() {
				n.Telemetry.BufferError(state)
			}
		}
	}
	return nil
}

// dispatchStage drains this cycle's received lines. A parse failure is
// one telemetry error and nothing else: no device is touched and the
// cycle continues.
func (n *Node) dispatchStage(cc cycle.ControlContext) error {
	cc.Messages().ProcessMessages(cycle.ProcessMessageFunc(func(mc cycle.MessageProcessingContext) {
		line, ok := mc.CurrentMessage().(LineMsg)
		if !ok {
			return
		}
		mc.MessageTaken()
		cmd, err := wire.ParseCommand(line)
		if err != nil {
			n.Telemetry.BufferError(errcode.JSONParseFailed)
			return
		}
		if n.dispatcher.Dispatch(cmd) {
			n.Watchdog.Feed(cc.Time())
		}
	}))
	return nil
}

func (n *Node) safetyStage(cc cycle.ControlContext) error {
	n.Watchdog.Check(cc.Time())
	return nil
}

// reportStage flushes exactly one telemetry object, every cycle, even
// when nothing was buffered.
func (n *Node) reportStage(cc cycle.ControlContext) error {
	if n.booting {
		n.booting = false
		n.Telemetry.BufferStatus(errcode.Booting)
	}
	writeLine(n.out, n.Telemetry.Flush())
	return nil
}

func writeLine(w io.Writer, line []byte) {
	if _, err := w.Write(append(line, '\n')); err != nil {
		// Fire-and-forget: a lost telemetry line is the host's
		// problem to notice, the cycle must not stall on it.
		glog.V(1).Infof("telemetry write: %v", err)
	}
}

// ReportFatal emits one last telemetry object describing a fatal
// pre-cycle failure, so the condition is visible on the host before the
// node refuses to run.
func ReportFatal(w io.Writer, builtFor identity.Role, code errcode.Code) {
	enc := wire.NewEncoder(builtFor.DeviceID(), byte(builtFor))
	enc.BufferError(code)
	writeLine(w, enc.Flush())
}
