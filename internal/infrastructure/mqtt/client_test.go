package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/config"
)

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "cosmos-test",
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// offlineClient is a Client that never connected.
func offlineClient() *Client {
	return &Client{
		cfg:           testConfig(),
		node:          "cubesat1",
		subscriptions: make(map[string]subscription),
	}
}

type recordingLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *recordingLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, msg)
}

func (l *recordingLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func TestTopicBuilders(t *testing.T) {
	topics := Topics{}
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"soh", topics.SOH("cubesat1"), "cosmos/cubesat1/soh"},
		{"set", topics.Set("cubesat1"), "cosmos/cubesat1/set"},
		{"catalogue", topics.Catalogue("cubesat1"), "cosmos/cubesat1/catalogue"},
		{"status", topics.Status("cubesat1"), "cosmos/cubesat1/status"},
		{"all soh", topics.AllSOH(), "cosmos/+/soh"},
		{"all status", topics.AllStatus(), "cosmos/+/status"},
		{"all catalogues", topics.AllCatalogues(), "cosmos/+/catalogue"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestTopicsParse(t *testing.T) {
	tests := []struct {
		topic    string
		wantNode string
		wantLeaf string
		wantOk   bool
	}{
		{"cosmos/cubesat1/soh", "cubesat1", "soh", true},
		{"cosmos/gs-hawaii/set", "gs-hawaii", "set", true},
		{"cosmos/cubesat1", "", "", false},
		{"other/cubesat1/soh", "", "", false},
		{"cosmos//soh", "", "", false},
		{"cosmos/a/b/c", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			node, leaf, ok := Topics{}.Parse(tt.topic)
			if ok != tt.wantOk || node != tt.wantNode || leaf != tt.wantLeaf {
				t.Errorf("Parse(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.topic, node, leaf, ok, tt.wantNode, tt.wantLeaf, tt.wantOk)
			}
		})
	}
}

func TestValidNodeName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"cubesat1", true},
		{"", false},
		{"a/b", false},
		{"node+", false},
		{"#", false},
	}
	for _, tt := range tests {
		if got := ValidNodeName(tt.name); got != tt.want {
			t.Errorf("ValidNodeName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestConnectInvalidNode(t *testing.T) {
	_, err := Connect(testConfig(), "bad/name")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestStatusPayload(t *testing.T) {
	var msg StatusMessage
	if err := json.Unmarshal(statusPayload(StatusOffline, "cubesat1", "cid", "graceful_shutdown"), &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Status != StatusOffline || msg.Node != "cubesat1" || msg.ClientID != "cid" || msg.Reason != "graceful_shutdown" {
		t.Errorf("unexpected status message %+v", msg)
	}
	if msg.Timestamp == "" {
		t.Error("timestamp not set")
	}
}

func TestPublishValidation(t *testing.T) {
	c := offlineClient()
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("x"), 0, ErrInvalidTopic},
		{"bad qos", "cosmos/cubesat1/soh", []byte("x"), 3, ErrInvalidQoS},
		{"too large", "cosmos/cubesat1/soh", make([]byte, maxPayloadSize+1), 0, ErrPublishFailed},
		{"offline", "cosmos/cubesat1/soh", []byte("x"), 1, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribeValidation(t *testing.T) {
	c := offlineClient()
	noop := func(string, []byte) error { return nil }
	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 0, noop, ErrInvalidTopic},
		{"bad qos", "cosmos/+/soh", 5, noop, ErrInvalidQoS},
		{"nil handler", "cosmos/+/soh", 0, nil, ErrSubscribeFailed},
		{"offline", "cosmos/+/soh", 0, noop, ErrNotConnected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
	if c.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0", c.SubscriptionCount())
	}
	if c.HasSubscription("cosmos/+/soh") {
		t.Error("failed subscription was tracked")
	}
	if err := c.Unsubscribe(""); !errors.Is(err, ErrInvalidTopic) {
		t.Errorf("Unsubscribe(\"\") error = %v, want ErrInvalidTopic", err)
	}
}

func TestOfflineClientState(t *testing.T) {
	c := offlineClient()
	if c.IsConnected() {
		t.Error("IsConnected() = true for client without connection")
	}
	if err := c.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := c.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() with cancelled context error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.Node() != "cubesat1" || c.QoS() != 1 {
		t.Errorf("Node()=%q QoS()=%d", c.Node(), c.QoS())
	}
}

func TestDispatchRecoversAndLogs(t *testing.T) {
	c := offlineClient()
	logger := &recordingLogger{}
	c.SetLogger(logger)

	c.dispatch(func(string, []byte) error { panic("boom") }, "cosmos/cubesat1/set", nil)
	c.dispatch(func(string, []byte) error { return errors.New("bad wire text") }, "cosmos/cubesat1/set", nil)

	if len(logger.errors) != 1 {
		t.Errorf("expected 1 panic log, got %d", len(logger.errors))
	}
	if len(logger.warns) != 1 {
		t.Errorf("expected 1 error log, got %d", len(logger.warns))
	}
}

func TestDisconnectCallback(t *testing.T) {
	c := offlineClient()
	c.connected = true

	var got error
	c.SetOnDisconnect(func(err error) { got = err })
	want := errors.New("link down")
	c.handleDisconnect(want)

	if got != want {
		t.Errorf("callback error = %v, want %v", got, want)
	}
	if c.connected {
		t.Error("connected flag still set after disconnect")
	}
}
