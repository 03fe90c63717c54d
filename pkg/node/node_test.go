package node

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/subsearobotics/rov.go/pkg/cycle"
	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/identity"
)

type nodeFixture struct {
	t        *testing.T
	loop     *cycle.Loop
	node     *Node
	recorder *device.Recorder
	out      bytes.Buffer
	flushed  int
}

func newNodeFixture(t *testing.T, role identity.Role) *nodeFixture {
	f := &nodeFixture{t: t, recorder: &device.Recorder{}}
	f.loop = cycle.NewLoop()
	f.node = New(role, f.recorder, strings.NewReader(""), &f.out)
	f.node.AddToLoop(f.loop)
	return f
}

// cycle posts the given lines, runs one full cycle and decodes the
// telemetry object it flushed.
func (f *nodeFixture) cycle(lines ...string) map[string]string {
	for _, line := range lines {
		f.loop.PostMessage(LineMsg(line))
	}
	f.loop.RunCycle(context.Background())

	flushes := bytes.Split(bytes.TrimSuffix(f.out.Bytes(), []byte("\n")), []byte("\n"))
	require.Len(f.t, flushes, f.flushed+1, "expect exactly one telemetry object per cycle")
	f.flushed++
	var m map[string]string
	require.NoError(f.t, json.Unmarshal(flushes[len(flushes)-1], &m))
	return m
}

func TestNodeRoundTrip(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)

	// boot cycle
	m := f.cycle()
	require.Equal(t, "Ard_M", m["deviceID"])
	require.Contains(t, m["status_M"], "booting")

	m = f.cycle(`{"Thr_M": 1600}`)
	require.Equal(t, "Ard_M", m["deviceID"])
	require.Equal(t, "1600", m["Thr_M"])
	require.NotContains(t, m, "error_M")
	require.NotContains(t, m, "status_M")

	last, ok := f.recorder.Last()
	require.True(t, ok)
	require.Equal(t, 1600, last.Value)
}

func TestNodeOutOfRange(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)
	f.cycle(`{"Thr_M": 1600}`)

	m := f.cycle(`{"Thr_M": 2000}`)
	require.Contains(t, m["error_M"], "out of range")
	out, _ := f.node.Registry.Output("Thr_M")
	require.Equal(t, 1600, out.Value())
}

func TestNodeParseFailure(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)
	f.cycle()
	f.recorder.Reset()

	m := f.cycle(`this is not json`)
	require.Contains(t, m["error_M"], "JSON parsing failed")
	require.Empty(t, f.recorder.Applied)
}

func TestNodeForeignRoleKey(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)
	f.cycle()
	f.recorder.Reset()

	m := f.cycle(`{"Thr_FP": 1600}`)
	require.Contains(t, m["error_M"], "output device ID is not valid")
	require.Empty(t, f.recorder.Applied)
}

func TestNodeEmptyCycleStillFlushes(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)
	f.cycle()
	m := f.cycle()
	require.Equal(t, map[string]string{"deviceID": "Ard_M"}, m)
}

func TestNodeWatchdogThroughCycle(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)
	f.node.Watchdog.Timeout = 0 // any silence between cycles trips

	f.cycle(`{"Thr_M": 1700}`) // arms and applies
	time.Sleep(time.Millisecond)

	m := f.cycle()
	require.Contains(t, m["error_M"], "outputs halted")
	out, _ := f.node.Registry.Output("Thr_M")
	require.Equal(t, device.OutputNeutral, out.Value())

	// continued silence: no repeat of the error
	time.Sleep(time.Millisecond)
	m = f.cycle()
	require.NotContains(t, m, "error_M")

	// a valid message rearms on the same cycle it arrives
	m = f.cycle(`{"Thr_M": 1710}`)
	require.Equal(t, "1710", m["Thr_M"])
	require.NotContains(t, m, "error_M")
	require.False(t, f.node.Watchdog.Tripped())
	require.Equal(t, 1710, out.Value())
}

func TestNodeGarbageDoesNotRearm(t *testing.T) {
	f := newNodeFixture(t, identity.RoleMicro)
	f.node.Watchdog.Timeout = 0

	f.cycle(`{"Thr_M": 1700}`)
	time.Sleep(time.Millisecond)
	m := f.cycle()
	require.Contains(t, m["error_M"], "outputs halted")

	// null is valid JSON but not an object; a dead link replaying it
	// must stay tripped
	m = f.cycle(`null`)
	require.Contains(t, m["error_M"], "JSON parsing failed")
	require.True(t, f.node.Watchdog.Tripped())
	out, _ := f.node.Registry.Output("Thr_M")
	require.Equal(t, device.OutputNeutral, out.Value())
}

func TestNodeSensorReadings(t *testing.T) {
	f := newNodeFixture(t, identity.RoleSensor)

	// the boot cycle reports each degraded sensor state once
	m := f.cycle()
	require.Contains(t, m["error_I"], "IMU not detected")
	require.Contains(t, m["error_I"], "depth sensor not detected")

	// continued absence is not re-reported
	m = f.cycle()
	require.NotContains(t, m, "error_I")

	depth, _ := f.node.Registry.Input("Sen_Dep_Dep")
	depth.SetReading(3.25)
	m = f.cycle()
	require.Equal(t, "3.25", m["Sen_Dep_Dep"])
	require.NotContains(t, m, "error_I")

	// readings keep flowing every cycle once present
	m = f.cycle()
	require.Equal(t, "3.25", m["Sen_Dep_Dep"])
}

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}

func TestNodeReceiverFeedsLoop(t *testing.T) {
	pr, pw := io.Pipe()
	var out syncBuffer
	loop := cycle.NewLoop()
	loop.Interval = 5 * time.Millisecond
	n := New(identity.RoleMicro, &device.Recorder{}, pr, &out)
	n.AddToLoop(loop)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- loop.Run(ctx) }()

	_, err := pw.Write([]byte(`{"Thr_M": 1650}` + "\n"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), `"Thr_M":"1650"`)
	}, 2*time.Second, 5*time.Millisecond)

	cancel()
	pw.Close()
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not stop")
	}

	// the loop is stopped; registry state is safe to inspect
	thr, _ := n.Registry.Output("Thr_M")
	require.Equal(t, 1650, thr.Value())
}

func TestReportFatal(t *testing.T) {
	var out bytes.Buffer
	ReportFatal(&out, identity.RoleThruster, -12)
	var m map[string]string
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &m))
	require.Equal(t, "Ard_T", m["deviceID"])
	require.Contains(t, m["error_T"], "not provisioned")
}
