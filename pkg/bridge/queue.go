package bridge

import (
	"net/url"
	"strings"

	"github.com/denisbrodbeck/machineid"
	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/golang/glog"
)

// Handler is the callback when a message is received.
type Handler func(topic string, payload []byte)

// Queue wraps the MQTT client carrying surface traffic.
type Queue struct {
	Client      paho.Client
	TopicPrefix string
}

// ClientOptionsFromURL creates ClientOptions from a broker URL of the
// form mqtt://host:port/topic-prefix. The client identity defaults to
// one derived from the machine so reconnecting relays keep a stable id.
func ClientOptionsFromURL(serverURL string) (*paho.ClientOptions, string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, "", err
	}
	var server string
	if u.Scheme == "" || u.Scheme == "mqtt" {
		server = "tcp"
	} else {
		server = u.Scheme
	}
	server += "://" + u.Host

	topicPrefix := strings.TrimPrefix(u.Path, "/")

	opts := paho.NewClientOptions()
	opts.AddBroker(server).
		SetAutoReconnect(true).
		SetCleanSession(true)
	if u.User != nil {
		opts.SetUsername(u.User.Username())
		if pwd, ok := u.User.Password(); ok {
			opts.SetPassword(pwd)
		}
	}

	clientID := u.Query().Get("client-id")
	if clientID == "" {
		if id, err := machineid.ProtectedID("rovbridge"); err == nil {
			clientID = "rovbridge-" + id[:8]
		}
	}
	if clientID != "" {
		opts.SetClientID(clientID)
	}

	return opts, topicPrefix, nil
}

// NewQueueFromURL creates a Queue from a broker URL.
func NewQueueFromURL(brokerURL string) (*Queue, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	q := &Queue{TopicPrefix: topicPrefix}
	q.Client = paho.NewClient(opts)
	return q, nil
}

// Connect connects to the broker.
func (q *Queue) Connect() error {
	token := q.Client.Connect()
	token.Wait()
	return token.Error()
}

// Close disconnects from the broker.
func (q *Queue) Close() {
	q.Client.Disconnect(100)
}

// Pub publishes a payload, fire-and-forget.
func (q *Queue) Pub(topic string, payload []byte) {
	q.Client.Publish(q.TopicPrefix+topic, 0, false, payload)
}

// Sub subscribes a handler to a topic.
func (q *Queue) Sub(topic string, handler Handler) error {
	token := q.Client.Subscribe(q.TopicPrefix+topic, 0, func(_ paho.Client, msg paho.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	glog.V(2).Infof("subscribed %s%s", q.TopicPrefix, topic)
	return nil
}
