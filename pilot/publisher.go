package pilot

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Status is the retained session state message
type Status struct {
	Online    bool   `json:"online"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// Publisher pushes the waypoint collection and session status to MQTT
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
	lastDigest    string
	mu            sync.Mutex
}

// NewPublisher creates a publisher under prefix.
// If client is nil, publishing is disabled.
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = "nautilus"
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,
		retain:        true,
	}
}

// NewConfiguredPublisher creates a publisher with the prefix, QoS and retain
// flag from config, after environment overrides.
func NewConfiguredPublisher(client mqtt.Client, config *Config) *Publisher {
	p := NewPublisher(client, PublishPrefix(config))
	p.SetQoS(config.MQTT.QoS)
	p.SetRetain(config.MQTT.Retain)
	return p
}

// Enabled reports whether a client is attached
func (p *Publisher) Enabled() bool {
	return p != nil && p.client != nil
}

// Topic returns prefix/suffix
func (p *Publisher) Topic(suffix string) string {
	return fmt.Sprintf("%s/%s", p.publishPrefix, suffix)
}

// PublishCollection publishes the collection as JSON to prefix/waypoints and
// as KML to prefix/kml. An unchanged collection is not republished.
func (p *Publisher) PublishCollection(c *WaypointCollection) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	c.normalize()
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling waypoints: %w", err)
	}

	p.mu.Lock()
	unchanged := p.lastDigest == string(payload)
	p.mu.Unlock()
	if unchanged {
		return nil
	}

	kml, err := CompileKML(c)
	if err != nil {
		return err
	}

	if err := p.publish(p.Topic("waypoints"), payload); err != nil {
		return err
	}
	if err := p.publish(p.Topic("kml"), kml); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastDigest = string(payload)
	p.mu.Unlock()

	log.Printf("Published %d waypoints in %d routes to %s", c.Len(), len(c.Routes), p.publishPrefix)
	return nil
}

// PublishStatus publishes the browser session state to prefix/status
func (p *Publisher) PublishStatus(online bool, message string) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(Status{
		Online:    online,
		Message:   message,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("marshaling status: %w", err)
	}
	return p.publish(p.Topic("status"), payload)
}

func (p *Publisher) publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(2*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// SetQoS sets the Quality of Service level for publishing (0, 1, or 2)
func (p *Publisher) SetQoS(qos byte) {
	if qos <= 2 {
		p.qos = qos
	}
}

// SetRetain sets whether published messages should be retained by the broker
func (p *Publisher) SetRetain(retain bool) {
	p.retain = retain
}
