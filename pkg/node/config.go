package node

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/subsearobotics/rov.go/pkg/cycle"
	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/identity"
)

// Config defines the configuration for a node process.
type Config struct {
	// Role this firmware instance is built to serve. The persisted
	// identity byte must match it.
	Role string
	// IdentityPath is the file standing in for the EEPROM identity cell.
	IdentityPath string
	// Port is the serial device of the host link; empty means stdio.
	Port string
	// Baud is the host link baud rate.
	Baud int
	// Interval is the cycle period.
	Interval time.Duration
	// Timeout is the communication-loss threshold.
	Timeout time.Duration
}

// Defaults
const (
	DefaultIdentityPath = "/var/lib/rovnode/identity"
	DefaultBaud         = 9600
)

var defaultConfig = Config{
	IdentityPath: DefaultIdentityPath,
	Baud:         DefaultBaud,
	Interval:     cycle.DefaultInterval,
	Timeout:      DefaultTimeout,
}

func init() {
	if val := os.Getenv("ROVNODE_IDENTITY_FILE"); val != "" {
		defaultConfig.IdentityPath = val
	}
	if val := os.Getenv("ROVNODE_PORT"); val != "" {
		defaultConfig.Port = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Role, "role", defaultConfig.Role, "Role code this image serves (T, A, M or I).")
	flag.StringVar(&defaultConfig.IdentityPath, "identity-file", defaultConfig.IdentityPath, "Path of the persisted identity byte.")
	flag.StringVar(&defaultConfig.Port, "port", defaultConfig.Port, "Serial device of the host link; empty uses stdio.")
	flag.IntVar(&defaultConfig.Baud, "baud", defaultConfig.Baud, "Baud rate of the host link.")
	flag.DurationVar(&defaultConfig.Interval, "interval", defaultConfig.Interval, "Cycle interval.")
	flag.DurationVar(&defaultConfig.Timeout, "timeout", defaultConfig.Timeout, "Fail-safe communication timeout.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates the default configuration.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// BuiltFor returns the role the config selects.
func (c *Config) BuiltFor() identity.Role {
	if len(c.Role) != 1 {
		return 0
	}
	return identity.Role(c.Role[0])
}

// Store opens the identity store the config points at.
func (c *Config) Store() identity.Store {
	return &identity.FileStore{Path: c.IdentityPath}
}

// NewLoop builds the cycle loop for a resolved node. The driver is the
// hardware boundary; pass device.Trace on a bench without actuators.
func (c *Config) NewLoop(role identity.Role, driver device.Driver, in io.Reader, out io.Writer) (*cycle.Loop, *Node) {
	n := New(role, driver, in, out)
	n.Watchdog.Timeout = c.Timeout
	loop := cycle.NewLoop()
	loop.Interval = c.Interval
	loop.Add(n)
	return loop, n
}
