package wire

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/subsearobotics/rov.go/pkg/errcode"
)

func decodeFlush(t *testing.T, e *Encoder) map[string]string {
	raw := e.Flush()
	var m map[string]string
	require.NoError(t, json.Unmarshal(raw, &m))
	return m
}

func TestEncoderEmptyFlush(t *testing.T) {
	e := NewEncoder("Ard_M", 'M')
	m := decodeFlush(t, e)
	require.Equal(t, map[string]string{"deviceID": "Ard_M"}, m)
}

func TestEncoderValuesAndErrors(t *testing.T) {
	e := NewEncoder("Ard_T", 'T')
	e.BufferInt("Thr_FP", 1700)
	e.BufferError(errcode.ValueOutOfRange)
	e.BufferStatus(errcode.Booting)

	m := decodeFlush(t, e)
	require.Equal(t, "Ard_T", m["deviceID"])
	require.Equal(t, "1700", m["Thr_FP"])
	require.Contains(t, m["error_T"], "out of range")
	require.Contains(t, m["error_T"], "-1")
	require.Contains(t, m["status_T"], "booting")

	// flush resets the buffer
	m = decodeFlush(t, e)
	require.Equal(t, map[string]string{"deviceID": "Ard_T"}, m)
}

func TestEncoderOrderPreserved(t *testing.T) {
	e := NewEncoder("Ard_I", 'I')
	e.BufferValue("Sen_Dep_Dep", "3.25")
	e.BufferValue("Sen_Temp", "11.8")
	raw := string(e.Flush())
	require.Less(t, strings.Index(raw, "Sen_Dep_Dep"), strings.Index(raw, "Sen_Temp"))
}

func TestEncoderRepeatedKeys(t *testing.T) {
	e := NewEncoder("Ard_M", 'M')
	e.BufferInt("Thr_M", 1600)
	e.BufferInt("Thr_M", 1620)
	e.BufferError(errcode.ValueOutOfRange)
	e.BufferError(errcode.InvalidOutputID)

	m := decodeFlush(t, e)
	require.Equal(t, "1620", m["Thr_M"])
	require.Contains(t, m["error_M"], "out of range")
	require.Contains(t, m["error_M"], "device ID is not valid")
}
