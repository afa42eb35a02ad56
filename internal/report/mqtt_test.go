package report

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/machine-sensor/internal/logic"
)

// doneToken is an already-completed paho token.
type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient implements the parts of paho.Client the reporter uses.
type fakeClient struct {
	paho.Client

	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []published

	// onPublish, if set, runs before a publish is recorded.
	onPublish func(topic string)
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	hook := c.onPublish
	c.mu.Unlock()
	if hook != nil {
		hook(topic)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.publishErr != nil {
		return doneToken{err: c.publishErr}
	}
	c.published = append(c.published, published{topic, qos, retained, string(payload.([]byte))})
	return doneToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()
}

func newTestMQTT(c *fakeClient) *MQTTReporter {
	return &MQTTReporter{client: c, prefix: DefaultTopicPrefix, pending: newPendingQueue(4)}
}

func TestMQTTTopic(t *testing.T) {
	r := newTestMQTT(&fakeClient{})
	if got := r.Topic(3); got != "factory/machines/3/status" {
		t.Errorf("Topic: got %q", got)
	}
}

func TestMQTTPublishRetainedQoS1(t *testing.T) {
	c := &fakeClient{connected: true}
	r := newTestMQTT(c)

	if err := r.Report(context.Background(), 1, logic.StatusOn); err != nil {
		t.Fatalf("Report: %v", err)
	}
	if len(c.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(c.published))
	}
	p := c.published[0]
	if p.topic != "factory/machines/1/status" || p.qos != 1 || !p.retained {
		t.Errorf("publish: %+v", p)
	}
	if p.payload != `{"status":"ON"}` {
		t.Errorf("payload: got %s", p.payload)
	}
	if !r.IsConnected() {
		t.Error("expected connected")
	}
}

func TestMQTTQueuesWhileDisconnected(t *testing.T) {
	c := &fakeClient{}
	r := newTestMQTT(c)

	r.Report(context.Background(), 1, logic.StatusOn)
	r.Report(context.Background(), 2, logic.StatusUnknown)
	if len(c.published) != 0 {
		t.Fatal("nothing should be published while disconnected")
	}
	if r.pending.len() != 2 {
		t.Fatalf("pending: got %d, want 2", r.pending.len())
	}

	c.connected = true
	r.flush()

	if len(c.published) != 2 {
		t.Fatalf("expected 2 replayed publishes, got %d", len(c.published))
	}
	if c.published[0].topic != "factory/machines/1/status" || c.published[1].payload != `{"status":"UNKNOWN"}` {
		t.Errorf("replay order: %+v", c.published)
	}
	if r.pending.len() != 0 {
		t.Error("queue should be empty after flush")
	}
}

func TestMQTTPublishFailureIsQueued(t *testing.T) {
	c := &fakeClient{connected: true, publishErr: errors.New("broker gone")}
	r := newTestMQTT(c)

	if err := r.Report(context.Background(), 4, logic.StatusOff); err != nil {
		t.Fatalf("mirror failures must not be returned: %v", err)
	}
	if r.pending.len() != 1 {
		t.Errorf("pending: got %d, want 1", r.pending.len())
	}
}

func TestMQTTClose(t *testing.T) {
	c := &fakeClient{connected: true}
	r := newTestMQTT(c)
	if err := r.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if r.IsConnected() {
		t.Error("expected disconnected after Close")
	}
}

func (c *fakeClient) payloads() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.published))
	for i, p := range c.published {
		out[i] = p.payload
	}
	return out
}

func TestMQTTFlushSendsLatestPerMachine(t *testing.T) {
	c := &fakeClient{}
	r := newTestMQTT(c)

	r.Report(context.Background(), 1, logic.StatusOn)
	r.Report(context.Background(), 2, logic.StatusOff)
	r.Report(context.Background(), 1, logic.StatusUnknown)

	c.connected = true
	r.flush()

	if len(c.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d: %+v", len(c.published), c.published)
	}
	if c.published[0].topic != "factory/machines/2/status" {
		t.Errorf("first replay: got %s", c.published[0].topic)
	}
	if c.published[1].topic != "factory/machines/1/status" || c.published[1].payload != `{"status":"UNKNOWN"}` {
		t.Errorf("machine 1 replay: %+v", c.published[1])
	}
}

func TestMQTTReportDuringFlushLandsLast(t *testing.T) {
	c := &fakeClient{}
	r := newTestMQTT(c)
	r.Report(context.Background(), 1, logic.StatusOff)

	var wg sync.WaitGroup
	var once sync.Once
	c.onPublish = func(string) {
		once.Do(func() {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Report(context.Background(), 1, logic.StatusOn)
			}()
			// Give the newer report a chance to overtake the replay.
			time.Sleep(20 * time.Millisecond)
		})
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	r.flush()
	wg.Wait()

	got := c.payloads()
	if len(got) != 2 {
		t.Fatalf("expected 2 publishes, got %v", got)
	}
	if got[0] != `{"status":"OFF"}` || got[1] != `{"status":"ON"}` {
		t.Errorf("publish order: got %v, want OFF then ON", got)
	}
}
