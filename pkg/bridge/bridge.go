// Package bridge relays traffic between the surface station and the
// serial-attached nodes: surface commands are routed to the node owning
// each device key, node telemetry is forwarded upstream, and on surface
// connection loss every output is eased back to neutral.
package bridge

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"

	"github.com/subsearobotics/rov.go/pkg/cycle"
	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/identity"
	"github.com/subsearobotics/rov.go/pkg/wire"
)

// Topics relative to the queue prefix.
const (
	CommandTopic   = "command"
	TelemetryTopic = "telemetry/" // + node device id
)

// Defaults
const (
	// DefaultRampRate bounds how fast a relayed output value may move
	// per tick, to avoid current spikes on the power rail.
	DefaultRampRate = 2
	// DefaultSurfaceTimeout is the silence threshold after which the
	// bridge injects neutral values itself.
	DefaultSurfaceTimeout = 3 * time.Second
)

// NodeLink is one serial-attached node.
type NodeLink struct {
	Role identity.Role
	Conn io.ReadWriter

	id          string
	commandKeys []string
}

// NewNodeLink builds a link for a role, deriving the set of command keys
// the node owns from the same device tables the firmware uses.
func NewNodeLink(role identity.Role, conn io.ReadWriter) *NodeLink {
	l := &NodeLink{Role: role, Conn: conn, id: role.DeviceID()}
	registry := device.NewRegistry(role, device.Noop)
	for _, out := range registry.Outputs() {
		l.commandKeys = append(l.commandKeys, out.ID)
	}
	for _, in := range registry.Inputs() {
		if in.Writable {
			l.commandKeys = append(l.commandKeys, in.ID)
		}
	}
	return l
}

// ID returns the node's wire identity.
func (l *NodeLink) ID() string {
	return l.id
}

// Bridge routes surface commands down and node telemetry up.
type Bridge struct {
	Queue          *Queue
	Links          []*NodeLink
	RampRate       int
	SurfaceTimeout time.Duration
	Interval       time.Duration

	lock        sync.Mutex
	desired     map[string]int
	current     map[string]int
	owner       map[string]*NodeLink
	lastSurface time.Time
}

// New creates a Bridge over the queue and node links.
func New(q *Queue, links ...*NodeLink) *Bridge {
	b := &Bridge{
		Queue:          q,
		Links:          links,
		RampRate:       DefaultRampRate,
		SurfaceTimeout: DefaultSurfaceTimeout,
		Interval:       cycle.DefaultInterval,
		desired:        make(map[string]int),
		current:        make(map[string]int),
		owner:          make(map[string]*NodeLink),
	}
	for _, l := range links {
		for _, key := range l.commandKeys {
			b.owner[key] = l
		}
	}
	return b
}

// HandleSurfaceCommand ingests one surface command object, routing each
// key to the owning node. Unknown keys are dropped with a log line: the
// bridge never forwards keys a node would only reject.
func (b *Bridge) HandleSurfaceCommand(payload []byte, now time.Time) {
	var cmd map[string]int
	if err := json.Unmarshal(payload, &cmd); err != nil {
		glog.Errorf("surface command: %v", err)
		return
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	b.lastSurface = now
	for key, value := range cmd {
		if _, ok := b.owner[key]; !ok {
			glog.Warningf("surface command for unknown key %q dropped", key)
			continue
		}
		b.desired[key] = value
	}
}

// Tick advances ramped values one step and writes one command line per
// node. Called once per relay interval.
func (b *Bridge) Tick(now time.Time) {
	b.lock.Lock()
	if !b.lastSurface.IsZero() && now.Sub(b.lastSurface) > b.SurfaceTimeout {
		b.failSafeLocked()
		b.lastSurface = time.Time{}
	}
	outgoing := make(map[*NodeLink]map[string]int)
	for key, want := range b.desired {
		link := b.owner[key]
		next := b.step(key, want)
		if m := outgoing[link]; m == nil {
			outgoing[link] = map[string]int{key: next}
		} else {
			m[key] = next
		}
	}
	b.lock.Unlock()

	for link, cmd := range outgoing {
		line, err := json.Marshal(cmd)
		if err != nil {
			glog.Errorf("encode command for %s: %v", link.ID(), err)
			continue
		}
		if _, err := link.Conn.Write(append(line, '\n')); err != nil {
			glog.Errorf("write %s: %v", link.ID(), err)
		}
	}
}

// step moves the current value of key one ramp increment toward want and
// returns the value to transmit.
func (b *Bridge) step(key string, want int) int {
	cur, ok := b.current[key]
	if !ok {
		b.current[key] = want
		return want
	}
	switch {
	case cur < want:
		cur += min(b.RampRate, want-cur)
	case cur > want:
		cur -= min(b.RampRate, cur-want)
	}
	b.current[key] = cur
	return cur
}

// failSafeLocked retargets every output key at neutral. Ramping still
// applies, so the vehicle eases to a stop instead of cutting thrust.
func (b *Bridge) failSafeLocked() {
	glog.Warning("surface connection lost, easing outputs to neutral")
	for key := range b.owner {
		if isOutputKey(key) {
			b.desired[key] = device.OutputNeutral
		}
	}
}

func isOutputKey(key string) bool {
	return strings.HasPrefix(key, "Thr_") || strings.HasPrefix(key, "Mot_")
}

// Run implements Runnable: subscribes to surface commands, forwards node
// telemetry upstream and ticks the downlink until the context ends.
func (b *Bridge) Run(ctx context.Context) error {
	err := b.Queue.Sub(CommandTopic, func(_ string, payload []byte) {
		b.HandleSurfaceCommand(payload, time.Now())
	})
	if err != nil {
		return err
	}

	runner := cycle.NewRunnerWith(ctx)
	for _, link := range b.Links {
		runner.Go(cycle.NamedRun("uplink-"+link.ID(), &uplink{bridge: b, link: link}))
	}

	ticker := time.NewTicker(b.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			runner.Wait()
			return ctx.Err()
		case now := <-ticker.C:
			b.Tick(now)
		}
	}
}

// uplink forwards one node's telemetry lines to the surface topic.
type uplink struct {
	bridge *Bridge
	link   *NodeLink
}

// Run implements Runnable.
func (u *uplink) Run(ctx context.Context) error {
	forward := func() error {
		scanner := bufio.NewScanner(u.link.Conn)
		scanner.Buffer(make([]byte, wire.MaxLineLen*4), wire.MaxLineLen*4)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			glog.V(3).Infof("uplink %s: %s", u.link.ID(), line)
			u.bridge.Queue.Pub(TelemetryTopic+u.link.ID(), append([]byte(nil), line...))
		}
		return scanner.Err()
	}
	if closer, ok := u.link.Conn.(io.Closer); ok {
		return cycle.RunWithContextCloser(ctx, closer, forward)
	}
	return cycle.RunWithContext(ctx, forward)
}
