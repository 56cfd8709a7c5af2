// Package emitter publishes per-frame results and session summaries to an
// MQTT broker for remote dashboards.
package emitter

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/banshee-data/cadence.report/internal/monitoring"
	"github.com/banshee-data/cadence.report/internal/session"
	"github.com/banshee-data/cadence.report/internal/tracker"
)

var logf = monitoring.Prefixed("[mqtt] ")

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// ErrNotConnected is returned when publishing while the broker is down.
var ErrNotConnected = errors.New("mqtt not connected")

// Publisher receives tracker output.
type Publisher interface {
	PublishFrame(sessionID string, r tracker.Result) error
	PublishSummary(s session.Summary) error
	Close() error
}

// FrameMessage is the payload published on <topic>/frames.
type FrameMessage struct {
	SessionID string `json:"session_id"`
	tracker.Result
}

// Stats counts publishes per topic and failures.
type Stats struct {
	Published map[string]uint64 `json:"published"`
	Errors    uint64            `json:"errors"`
}

// client is the subset of mqtt.Client the emitter uses.
type client interface {
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTT publishes JSON messages under a topic prefix.
type MQTT struct {
	client client
	topic  string
	qos    byte

	mu        sync.Mutex
	published map[string]uint64
	errors    uint64
}

// Options configure a broker connection.
type Options struct {
	Broker   string // host:port or a full URL such as tcp://host:1883
	ClientID string
	Topic    string
	QoS      byte
}

// Connect dials the broker and returns a publisher. The client reconnects on
// its own after the initial connection.
func Connect(o Options) (*MQTT, error) {
	if o.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	if o.Topic == "" {
		o.Topic = "cadence"
	}
	broker := o.Broker
	if !strings.Contains(broker, "://") {
		broker = "tcp://" + broker
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID(o.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)
	opts.OnConnect = func(mqtt.Client) {
		logf("connected to %s as %q", broker, o.ClientID)
	}
	opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		logf("connection to %s lost, reconnecting: %v", broker, err)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connection to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connection failed: %w", err)
	}
	return newMQTT(c, o.Topic, o.QoS), nil
}

func newMQTT(c client, topic string, qos byte) *MQTT {
	return &MQTT{
		client:    c,
		topic:     strings.TrimSuffix(topic, "/"),
		qos:       qos,
		published: make(map[string]uint64),
	}
}

// FramesTopic is where per-frame results are published.
func (e *MQTT) FramesTopic() string { return e.topic + "/frames" }

// SessionsTopic is where end-of-session summaries are published.
func (e *MQTT) SessionsTopic() string { return e.topic + "/sessions" }

// PublishFrame publishes one frame result.
func (e *MQTT) PublishFrame(sessionID string, r tracker.Result) error {
	return e.publish(e.FramesTopic(), FrameMessage{SessionID: sessionID, Result: r})
}

// PublishSummary publishes a session summary.
func (e *MQTT) PublishSummary(s session.Summary) error {
	return e.publish(e.SessionsTopic(), s)
}

func (e *MQTT) publish(topic string, v any) error {
	if !e.client.IsConnected() {
		e.fail()
		return ErrNotConnected
	}
	payload, err := json.Marshal(v)
	if err != nil {
		e.fail()
		return fmt.Errorf("failed to encode %s message: %w", topic, err)
	}
	token := e.client.Publish(topic, e.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		e.fail()
		return fmt.Errorf("publish to %s timed out", topic)
	}
	if err := token.Error(); err != nil {
		e.fail()
		return fmt.Errorf("publish to %s failed: %w", topic, err)
	}
	e.mu.Lock()
	e.published[topic]++
	e.mu.Unlock()
	return nil
}

func (e *MQTT) fail() {
	e.mu.Lock()
	e.errors++
	e.mu.Unlock()
}

// Stats returns a copy of the publish counters.
func (e *MQTT) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	published := make(map[string]uint64, len(e.published))
	for k, v := range e.published {
		published[k] = v
	}
	return Stats{Published: published, Errors: e.errors}
}

// Close disconnects with a short grace period.
func (e *MQTT) Close() error {
	if e.client.IsConnected() {
		e.client.Disconnect(250)
		logf("disconnected")
	}
	return nil
}
