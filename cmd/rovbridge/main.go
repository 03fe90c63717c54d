package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"os"
	"strings"

	"github.com/golang/glog"
	"go.bug.st/serial"

	"github.com/subsearobotics/rov.go/pkg/bridge"
	"github.com/subsearobotics/rov.go/pkg/cycle"
	"github.com/subsearobotics/rov.go/pkg/identity"
)

var (
	brokerURL = "mqtt://localhost:1883/rov/"
	nodesSpec = "T=/dev/ttyACM0,A=/dev/ttyACM1,I=/dev/ttyACM2"
	baud      = 9600
)

func init() {
	if val := os.Getenv("ROV_MQTT_URL"); val != "" {
		brokerURL = val
	}
	flag.StringVar(&brokerURL, "mqtt", brokerURL, "MQTT broker URL, e.g. mqtt://host:port/topic-prefix")
	flag.StringVar(&nodesSpec, "nodes", nodesSpec, "Comma separated ROLE=PORT pairs of attached nodes.")
	flag.IntVar(&baud, "baud", baud, "Baud rate of the node links.")
}

func parseLinks(spec string) ([]*bridge.NodeLink, error) {
	var links []*bridge.NodeLink
	for _, item := range strings.Split(spec, ",") {
		role, port, ok := strings.Cut(strings.TrimSpace(item), "=")
		if !ok || len(role) != 1 || !identity.Role(role[0]).IsValid() {
			glog.Exitf("invalid -nodes entry %q, want ROLE=PORT", item)
		}
		conn, err := serial.Open(port, &serial.Mode{BaudRate: baud})
		if err != nil {
			return nil, err
		}
		links = append(links, bridge.NewNodeLink(identity.Role(role[0]), conn))
	}
	return links, nil
}

func main() {
	flag.Parse()

	queue, err := bridge.NewQueueFromURL(brokerURL)
	if err != nil {
		glog.Exitf("broker: %v", err)
	}
	if err := queue.Connect(); err != nil {
		glog.Exitf("connect %s: %v", brokerURL, err)
	}
	defer queue.Close()

	links, err := parseLinks(nodesSpec)
	if err != nil {
		glog.Exitf("nodes: %v", err)
	}

	b := bridge.New(queue, links...)
	glog.Infof("bridge up: %d nodes, broker %s", len(links), brokerURL)
	runner := cycle.NewRunner().HandleSignals()
	runner.Go(cycle.NamedRun("bridge", b))
	if err := runner.Wait(); err != nil {
		glog.Exit(err)
	}
}
