// Package identity resolves which of the four node roles this firmware
// instance operates as. The role is one byte of non-volatile storage,
// written once during provisioning and read exactly once at boot.
package identity

import (
	"errors"
	"fmt"
)

// Role is the single-character role code of a node.
type Role byte

// Recognized roles.
const (
	RoleThruster Role = 'T' // main body thrusters
	RoleArm      Role = 'A' // manipulator arm motors
	RoleMicro    Role = 'M' // micro-ROV thruster
	RoleSensor   Role = 'I' // input/telemetry sensors
)

// Roles lists every recognized role.
var Roles = []Role{RoleThruster, RoleArm, RoleMicro, RoleSensor}

// IsValid indicates the role code is one of the recognized four.
func (r Role) IsValid() bool {
	switch r {
	case RoleThruster, RoleArm, RoleMicro, RoleSensor:
		return true
	}
	return false
}

// DeviceID returns the wire identity of a node with this role, carried in
// every telemetry object.
func (r Role) DeviceID() string {
	return "Ard_" + string(r)
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// Store persists the single identity byte across power cycles.
type Store interface {
	// ReadRole reads the persisted role byte.
	ReadRole() (Role, error)
	// WriteRole persists the role byte. Used only by provisioning.
	WriteRole(Role) error
}

var (
	// ErrNotProvisioned indicates no identity byte has been written.
	ErrNotProvisioned = errors.New("identity not provisioned")
)

// MismatchError indicates the persisted identity does not match the role
// this firmware image was built to run. The node must not enter its main
// cycle in this state.
type MismatchError struct {
	Persisted Role
	BuiltFor  Role
}

// Error implements error.
func (e *MismatchError) Error() string {
	return fmt.Sprintf("identity mismatch: persisted %q, firmware built for %q", e.Persisted, e.BuiltFor)
}

// Resolve reads the persisted role once and checks it against the role
// the running firmware serves. Any failure here is fatal and pre-cycle:
// the caller must report it and refuse to drive outputs.
func Resolve(s Store, builtFor Role) (Role, error) {
	r, err := s.ReadRole()
	if err != nil {
		return 0, err
	}
	if !r.IsValid() {
		return 0, fmt.Errorf("unrecognized role code %#x: %w", byte(r), ErrNotProvisioned)
	}
	if r != builtFor {
		return 0, &MismatchError{Persisted: r, BuiltFor: builtFor}
	}
	return r, nil
}
