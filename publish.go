package main

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

// statusTopic carries the periodic snapshot of the whole system.
const statusTopic = "pool/status"

// Publisher sends telemetry to a broker.  Failures are reported to the
// caller; nothing here may take down the process.
type Publisher interface {
	Publish(topic string, payload []byte) error
	Close()
}

// MqttPublisher publishes to a real MQTT broker.
type MqttPublisher struct {
	client paho.Client
}

// NewMqttPublisher connects to the given broker URI (tcp://host:1883).
func NewMqttPublisher(broker string) (*MqttPublisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID("pool-monitor").
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second)

	client := paho.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("connection to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return &MqttPublisher{client: client}, nil
}

// Publish sends a payload at QoS 0; telemetry is periodic, a lost sample is
// replaced by the next one.
func (p *MqttPublisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// Close disconnects from the broker.
func (p *MqttPublisher) Close() {
	p.client.Disconnect(1000)
}

// statusPayload is the JSON document published to the status topic.
type statusPayload struct {
	Timestamp string  `json:"timestamp"`
	TempHot   float64 `json:"temp_hot_c"`
	TempCold  float64 `json:"temp_cold_c"`
	FlowRate  float64 `json:"flow_lpm"`
	CP        string  `json:"cp"`
	PP        string  `json:"pp"`
}

// Telemetry periodically snapshots the datastore and publishes it.  Values
// that have never been written publish as zero; the datastore is the single
// source of truth and telemetry never blocks the control tasks.
type Telemetry struct {
	store  *Datastore
	pub    Publisher
	period time.Duration
	done   chan bool
}

// NewTelemetry creates the telemetry task.
func NewTelemetry(store *Datastore, pub Publisher) *Telemetry {
	return &Telemetry{
		store:  store,
		pub:    pub,
		period: 10 * time.Second,
		done:   make(chan bool),
	}
}

// Start kicks off the telemetry task.
func (t *Telemetry) Start() {
	go t.runLoop()
}

// Stop ends the telemetry task and disconnects.
func (t *Telemetry) Stop() {
	t.done <- true
}

func (t *Telemetry) runLoop() {
	ticker := time.NewTicker(t.period)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			t.pub.Close()
			return
		case now := <-ticker.C:
			payload, err := t.snapshot(now)
			if err != nil {
				Error("telemetry snapshot failed: %s", err.Error())
				continue
			}
			if err := t.pub.Publish(statusTopic, payload); err != nil {
				Error("telemetry publish failed: %s", err.Error())
			}
		}
	}
}

func (t *Telemetry) snapshot(now time.Time) ([]byte, error) {
	hot, _, _ := t.store.GetFloat(ResourceTempValue, 0)
	cold, _, _ := t.store.GetFloat(ResourceTempValue, 1)
	flow, _, _ := t.store.GetFloat(ResourceFlowRate, 0)
	cp, _, _ := t.store.GetPumpState(ResourceCPState, 0)
	pp, _, _ := t.store.GetPumpState(ResourcePPState, 0)
	return json.Marshal(statusPayload{
		Timestamp: now.UTC().Format(time.RFC3339),
		TempHot:   hot,
		TempCold:  cold,
		FlowRate:  flow,
		CP:        cp.String(),
		PP:        pp.String(),
	})
}
