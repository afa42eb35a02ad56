package report

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/machine-sensor/internal/logic"
)

// MQTT defaults.
const (
	DefaultTopicPrefix  = "factory/machines"
	DefaultMQTTClientID = "machine-sensor"
	pendingCapacity     = 64
	connectTimeout      = 10 * time.Second
	publishTimeout      = 5 * time.Second
)

// MQTTConfig describes the broker connection.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// MQTTReporter mirrors status to {prefix}/{id}/status as a retained message.
// Reports made while the broker is unreachable are queued and published on
// reconnect.
type MQTTReporter struct {
	client paho.Client
	prefix string

	// mu orders queueing, replay and publishing so a replayed status
	// never lands after a newer one for the same machine.
	mu      sync.Mutex
	pending *pendingQueue
}

// NewMQTTReporter connects to the broker. A slow broker is not fatal: the
// client keeps retrying in the background and reports are queued.
func NewMQTTReporter(cfg MQTTConfig) (*MQTTReporter, error) {
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultMQTTClientID
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}

	r := &MQTTReporter{
		prefix:  cfg.TopicPrefix,
		pending: newPendingQueue(pendingCapacity),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			slog.Info("MQTT connected.", "broker", cfg.Broker)
			go r.flush()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			slog.Warn("MQTT connection lost.", "err", err)
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	r.client = paho.NewClient(opts)
	token := r.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		slog.Warn("MQTT connect still pending, queueing reports.", "broker", cfg.Broker)
		return r, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}
	return r, nil
}

// Topic returns the status topic for machineID.
func (r *MQTTReporter) Topic(machineID int) string {
	return fmt.Sprintf("%s/%d/status", r.prefix, machineID)
}

// Report publishes the status, or queues it while disconnected or when the
// publish fails.
func (r *MQTTReporter) Report(ctx context.Context, machineID int, status logic.Status) error {
	payload, err := FormatPayload(status)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	p := pendingReport{machineID: machineID, topic: r.Topic(machineID), payload: payload}

	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.client.IsConnectionOpen() {
		r.pending.push(p)
		return nil
	}
	if err := r.publish(p); err != nil {
		// The mirror never stops the poller; retry on the next connect.
		slog.Warn("MQTT publish failed, queueing report.", "machine", machineID, "err", err)
		r.pending.push(p)
	}
	return nil
}

func (r *MQTTReporter) publish(p pendingReport) error {
	// QoS 1, retained: a new subscriber sees the latest status at once.
	token := r.client.Publish(p.topic, 1, true, p.payload)
	if !token.WaitTimeout(publishTimeout) {
		return &ReportingError{MachineID: p.machineID, Err: fmt.Errorf("mqtt publish timeout")}
	}
	if err := token.Error(); err != nil {
		return &ReportingError{MachineID: p.machineID, Err: fmt.Errorf("mqtt publish: %w", err)}
	}
	return nil
}

// flush replays queued reports, oldest first. Only the latest report per
// topic is sent since the message is retained.
func (r *MQTTReporter) flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	queued := latestPerTopic(r.pending.drain())
	for _, p := range queued {
		if err := r.publish(p); err != nil {
			slog.Warn("Replaying queued MQTT report failed.", "machine", p.machineID, "err", err)
		}
	}
	if len(queued) > 0 {
		slog.Info("Replayed queued MQTT reports.", "count", len(queued))
	}
}

// latestPerTopic keeps the last report for each topic, in queue order.
func latestPerTopic(queued []pendingReport) []pendingReport {
	last := make(map[string]int, len(queued))
	for i, p := range queued {
		last[p.topic] = i
	}
	out := make([]pendingReport, 0, len(last))
	for i, p := range queued {
		if last[p.topic] == i {
			out = append(out, p)
		}
	}
	return out
}

// IsConnected reports whether the broker connection is up.
func (r *MQTTReporter) IsConnected() bool {
	return r.client.IsConnectionOpen()
}

// Close disconnects from the broker.
func (r *MQTTReporter) Close() error {
	r.client.Disconnect(1000)
	return nil
}
