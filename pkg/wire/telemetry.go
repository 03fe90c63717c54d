package wire

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/subsearobotics/rov.go/pkg/errcode"
)

// Encoder buffers status, error and value entries produced during one
// cycle and flushes them as a single JSON object. Entry order is
// preserved so merged host logs read in the order events happened.
type Encoder struct {
	deviceID  string
	statusKey string
	errorKey  string

	entries []entry
}

type entry struct {
	key   string
	value string
}

// NewEncoder creates an Encoder for a node. Role-derived keys let the
// host tell interleaved node logs apart: errors are reported under
// "error_<role>", statuses under "status_<role>".
func NewEncoder(deviceID string, roleCode byte) *Encoder {
	return &Encoder{
		deviceID:  deviceID,
		statusKey: "status_" + string(roleCode),
		errorKey:  "error_" + string(roleCode),
	}
}

// BufferValue records a key/value entry. A repeated key replaces the
// earlier value: a JSON object carries each key once.
func (e *Encoder) BufferValue(key, value string) {
	for i := range e.entries {
		if e.entries[i].key == key {
			e.entries[i].value = value
			return
		}
	}
	e.entries = append(e.entries, entry{key: key, value: value})
}

// BufferInt records a key with an integer value, encoded as a string the
// way the original wire format carries echoed actuator values.
func (e *Encoder) BufferInt(key string, v int) {
	e.BufferValue(key, strconv.Itoa(v))
}

// BufferError records an error entry under the role error key. Several
// errors in one cycle are joined so the flushed object stays a valid
// JSON object with unique keys.
func (e *Encoder) BufferError(c errcode.Code) {
	e.bufferJoined(e.errorKey, c.Error())
}

// BufferStatus records a status entry under the role status key.
func (e *Encoder) BufferStatus(c errcode.Code) {
	e.bufferJoined(e.statusKey, c.Error())
}

func (e *Encoder) bufferJoined(key, msg string) {
	for i := range e.entries {
		if e.entries[i].key == key {
			e.entries[i].value += "; " + msg
			return
		}
	}
	e.entries = append(e.entries, entry{key: key, value: msg})
}

// Pending reports the number of buffered entries.
func (e *Encoder) Pending() int {
	return len(e.entries)
}

// Flush encodes one telemetry object and resets the buffer. The object
// always carries deviceID, even when nothing was buffered, so every
// cycle produces exactly one well-formed message.
func (e *Encoder) Flush() []byte {
	var w bytes.Buffer
	w.WriteByte('{')
	writeString(&w, "deviceID")
	w.WriteByte(':')
	writeString(&w, e.deviceID)
	for _, ent := range e.entries {
		w.WriteByte(',')
		writeString(&w, ent.key)
		w.WriteByte(':')
		writeString(&w, ent.value)
	}
	w.WriteByte('}')
	e.entries = e.entries[:0]
	return w.Bytes()
}

func writeString(w *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	w.Write(b)
}
