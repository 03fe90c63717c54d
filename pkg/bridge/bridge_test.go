package bridge

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/subsearobotics/rov.go/pkg/identity"
)

type fakeConn struct {
	bytes.Buffer
}

func (c *fakeConn) lines(t *testing.T) []map[string]int {
	var out []map[string]int
	scanner := bufio.NewScanner(&c.Buffer)
	for scanner.Scan() {
		var m map[string]int
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &m))
		out = append(out, m)
	}
	return out
}

func newTestBridge() (*Bridge, *fakeConn, *fakeConn) {
	tConn, mConn := &fakeConn{}, &fakeConn{}
	b := New(nil,
		NewNodeLink(identity.RoleThruster, tConn),
		NewNodeLink(identity.RoleMicro, mConn),
	)
	return b, tConn, mConn
}

func TestBridgeRouting(t *testing.T) {
	b, tConn, mConn := newTestBridge()
	now := time.Now()
	b.HandleSurfaceCommand([]byte(`{"Thr_FP":1500,"Thr_M":1500,"Sen_Foo":1}`), now)

	b.Tick(now)
	tLines, mLines := tConn.lines(t), mConn.lines(t)
	require.Len(t, tLines, 1)
	require.Equal(t, map[string]int{"Thr_FP": 1500}, tLines[0])
	require.Len(t, mLines, 1)
	require.Equal(t, map[string]int{"Thr_M": 1500}, mLines[0])
}

func TestBridgeRamping(t *testing.T) {
	b, _, mConn := newTestBridge()
	now := time.Now()

	// first value is taken as-is, later changes are ramped
	b.HandleSurfaceCommand([]byte(`{"Thr_M":1500}`), now)
	b.Tick(now)
	b.HandleSurfaceCommand([]byte(`{"Thr_M":1510}`), now)
	for i := 0; i < 3; i++ {
		b.Tick(now)
	}

	lines := mConn.lines(t)
	require.Len(t, lines, 4)
	require.Equal(t, 1500, lines[0]["Thr_M"])
	require.Equal(t, 1502, lines[1]["Thr_M"])
	require.Equal(t, 1504, lines[2]["Thr_M"])
	require.Equal(t, 1506, lines[3]["Thr_M"])
}

func TestBridgeFailSafe(t *testing.T) {
	b, _, mConn := newTestBridge()
	b.RampRate = 100
	now := time.Now()

	b.HandleSurfaceCommand([]byte(`{"Thr_M":1700}`), now)
	b.Tick(now)

	// silence beyond the threshold retargets outputs at neutral
	later := now.Add(b.SurfaceTimeout + time.Second)
	b.Tick(later)
	b.Tick(later)

	lines := mConn.lines(t)
	require.Len(t, lines, 3)
	require.Equal(t, 1700, lines[0]["Thr_M"])
	require.Equal(t, 1600, lines[1]["Thr_M"])
	require.Equal(t, 1500, lines[2]["Thr_M"])

	// fail-safe fires once per silence episode
	b.Tick(later.Add(time.Second))
	lines = mConn.lines(t)
	require.Len(t, lines, 1)
	require.Equal(t, 1500, lines[0]["Thr_M"])
}

func TestBridgeDropsUnknownKeys(t *testing.T) {
	b, tConn, mConn := newTestBridge()
	now := time.Now()
	b.HandleSurfaceCommand([]byte(`{"Thr_X":1600}`), now)
	b.Tick(now)
	require.Empty(t, tConn.lines(t))
	require.Empty(t, mConn.lines(t))
}

func TestBridgeIgnoresMalformedSurfacePayload(t *testing.T) {
	b, tConn, _ := newTestBridge()
	now := time.Now()
	b.HandleSurfaceCommand([]byte(`not json`), now)
	b.Tick(now)
	require.Empty(t, tConn.lines(t))
}

func TestNodeLinkKeys(t *testing.T) {
	l := NewNodeLink(identity.RoleSensor, &fakeConn{})
	require.Equal(t, "Ard_I", l.ID())
	require.ElementsMatch(t, []string{"Sen_Sonar_Start", "Sen_Sonar_Len"}, l.commandKeys)
}
