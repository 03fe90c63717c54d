package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"io"
	"os"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/subsearobotics/rov.go/pkg/device"
	"github.com/subsearobotics/rov.go/pkg/errcode"
	"github.com/subsearobotics/rov.go/pkg/identity"
	"github.com/subsearobotics/rov.go/pkg/node"
)

func init() {
	node.SetupFlags()
}

// stdio is the host link when no serial port is configured (bench runs,
// or when the firmware is supervised behind a pty).
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func main() {
	flag.Parse()

	conf := node.NewConfig()
	builtFor := conf.BuiltFor()
	if !builtFor.IsValid() {
		glog.Exitf("-role must be one of T, A, M, I (got %q)", conf.Role)
	}

	var link io.ReadWriter = stdio{}
	if conf.Port != "" {
		port, err := serial.Open(conf.Port, &serial.Mode{BaudRate: conf.Baud})
		if err != nil {
			glog.Exitf("open %s: %v", conf.Port, err)
		}
		defer port.Close()
		link = port
	}

	role, err := identity.Resolve(conf.Store(), builtFor)
	if err != nil {
		// Halt after reporting: the failure must be visible on the
		// host before the node refuses to drive outputs.
		node.ReportFatal(link, builtFor, errcode.IdentityMissing)
		glog.Exitf("identity: %v", err)
	}

	glog.Infof("node %s up, cycle %s, fail-safe %s", role.DeviceID(), conf.Interval, conf.Timeout)
	loop, _ := conf.NewLoop(role, device.Trace, link, link)
	loop.RunOrFail()
}
