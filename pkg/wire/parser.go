package wire

import (
	"encoding/json"

	"github.com/subsearobotics/rov.go/pkg/errcode"
)

// Command is one decoded host message: device identifier to requested
// value. It lives for a single dispatch cycle.
type Command map[string]int

// ParseCommand decodes one framed line as a flat JSON object of device
// identifiers to integer values. Any failure (not JSON, not an object,
// non-integer values, oversized line) is reported as the single
// JSONParseFailed class; the node never crashes on host input.
func ParseCommand(line []byte) (Command, error) {
	if len(line) == 0 || len(line) > MaxLineLen {
		return nil, errcode.JSONParseFailed
	}
	var cmd Command
	if err := json.Unmarshal(line, &cmd); err != nil {
		return nil, errcode.JSONParseFailed
	}
	if cmd == nil {
		// The literal null unmarshals into a nil map without error,
		// but it is not an object and must not count as a valid
		// message.
		return nil, errcode.JSONParseFailed
	}
	return cmd, nil
}
