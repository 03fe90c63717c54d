package device

import (
	"github.com/subsearobotics/rov.go/pkg/identity"
)

// Registry is the static, role-specific device table built once at boot.
// No devices are added or removed afterward; identifier lookup is the
// dispatcher's only access path.
type Registry struct {
	role identity.Role

	outputs  map[string]*Output
	outOrder []string

	inputs  map[string]*Input
	inOrder []string
}

// NewRegistry builds the device table for a role, binding every output to
// the driver. The tables mirror the key sets the host uses to originate
// commands.
func NewRegistry(role identity.Role, driver Driver) *Registry {
	r := &Registry{
		role:    role,
		outputs: make(map[string]*Output),
		inputs:  make(map[string]*Input),
	}
	for _, def := range outputTables[role] {
		o := &Output{
			ID:      def.id,
			Channel: def.channel,
			Min:     OutputMin,
			Max:     OutputMax,
			Neutral: OutputNeutral,
			value:   OutputNeutral,
			driver:  driver,
		}
		r.outputs[def.id] = o
		r.outOrder = append(r.outOrder, def.id)
	}
	for _, def := range inputTables[role] {
		in := &Input{
			ID:         def.id,
			Writable:   def.writable,
			AbsentCode: def.absent,
			UninitCode: def.uninit,
		}
		r.inputs[def.id] = in
		r.inOrder = append(r.inOrder, def.id)
	}
	return r
}

// Role returns the role the table was built for.
func (r *Registry) Role() identity.Role {
	return r.role
}

// Output looks up an actuator by identifier.
func (r *Registry) Output(id string) (*Output, bool) {
	o, ok := r.outputs[id]
	return o, ok
}

// Input looks up a sensor by identifier.
func (r *Registry) Input(id string) (*Input, bool) {
	in, ok := r.inputs[id]
	return in, ok
}

// Outputs returns every actuator in table order.
func (r *Registry) Outputs() []*Output {
	outs := make([]*Output, 0, len(r.outOrder))
	for _, id := range r.outOrder {
		outs = append(outs, r.outputs[id])
	}
	return outs
}

// Inputs returns every sensor in table order.
func (r *Registry) Inputs() []*Input {
	ins := make([]*Input, 0, len(r.inOrder))
	for _, id := range r.inOrder {
		ins = append(ins, r.inputs[id])
	}
	return ins
}

// HasOutputs indicates the node owns at least one actuator. The safety
// watchdog only arms on such nodes.
func (r *Registry) HasOutputs() bool {
	return len(r.outputs) > 0
}
