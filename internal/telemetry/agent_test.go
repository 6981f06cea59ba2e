package telemetry

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/influxdb"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/mqtt"
	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

type fixture struct {
	name   string
	powgen float64
	utc    float64
	flags  uint16
	temp   float32
	agent  string
	beat   ns.Beat
	secret string
}

func newFixture(t *testing.T) (*ns.Registry, *fixture) {
	t.Helper()
	f := &fixture{name: "cubesat1", powgen: 4.5, temp: 300, agent: defaultAgentName}
	r := ns.New()
	for _, e := range []struct {
		name string
		t    ns.Type
		unit ns.UnitID
		loc  ns.Locator
	}{
		{"node_name", ns.TypeName, ns.UnitNone, ns.At(&f.name)},
		{"node_powgen", ns.TypeDouble, ns.UnitPower, ns.At(&f.powgen)},
		{"node_utc", ns.TypeUTC, ns.UnitDate, ns.At(&f.utc)},
		{"node_flags", ns.TypeUint16, ns.UnitNone, ns.At(&f.flags)},
		{"device_cpu_temp_000", ns.TypeFloat, ns.UnitTemperature, ns.At(&f.temp)},
		{"agent_name_000", ns.TypeName, ns.UnitNone, ns.At(&f.agent)},
		{"agent_beat_000", ns.TypeBeat, ns.UnitNone, ns.At(&f.beat)},
		{"secret_key", ns.TypeString, ns.UnitNone, ns.At(&f.secret)},
	} {
		_, err := r.Register(e.name, e.t, e.unit, e.loc)
		require.NoError(t, err, e.name)
	}
	return r, f
}

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type fakePublisher struct {
	mu        sync.Mutex
	connected bool
	messages  []published
	handlers  map[string]mqtt.MessageHandler
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (p *fakePublisher) Publish(topic string, payload []byte, _ byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, published{topic: topic, payload: payload, retained: retained})
	return nil
}

func (p *fakePublisher) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[topic] = handler
	return nil
}

func (p *fakePublisher) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

func (p *fakePublisher) on(topic string) []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []published
	for _, m := range p.messages {
		if m.topic == topic {
			out = append(out, m)
		}
	}
	return out
}

func (p *fakePublisher) handler(topic string) mqtt.MessageHandler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handlers[topic]
}

type fakeExporter struct {
	mu      sync.Mutex
	samples [][]influxdb.Sample
}

func (e *fakeExporter) WriteSOH(_ string, s []influxdb.Sample, _ time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = append(e.samples, s)
}

func newAgent(t *testing.T, r *ns.Registry) *Agent {
	t.Helper()
	a, err := NewAgent(Config{
		Node:   "cubesat1",
		SOH:    []string{"node_*", "device_*_temp_*"},
		Period: time.Second,
	}, NewGuard(r))
	require.NoError(t, err)
	return a
}

func TestNewAgent_Validation(t *testing.T) {
	g := NewGuard(ns.New())

	_, err := NewAgent(Config{Node: ""}, g)
	assert.Error(t, err)
	_, err = NewAgent(Config{Node: "a/b"}, g)
	assert.Error(t, err)
	_, err = NewAgent(Config{Node: "cubesat1", SOH: []string{"node_["}}, g)
	assert.Error(t, err)

	a, err := NewAgent(Config{Node: "cubesat1"}, g)
	require.NoError(t, err)
	assert.Equal(t, defaultPeriod, a.cfg.Period)
	assert.Equal(t, defaultAgentName, a.cfg.Agent)
}

func TestAgent_BeatSelectsEnabledSOH(t *testing.T) {
	r, f := newFixture(t)
	require.NoError(t, r.Toggle("node_flags", false))

	a := newAgent(t, r)
	pub := newFakePublisher()
	exp := &fakeExporter{}
	a.SetPublisher(pub)
	a.SetExporter(exp)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hb, err := a.Beat(now)
	require.NoError(t, err)

	assert.Contains(t, hb.Text, `{"node_powgen":4.5}`)
	assert.Contains(t, hb.Text, `"node_name":"cubesat1"`)
	assert.Contains(t, hb.Text, `"device_cpu_temp_000":300`)
	assert.Contains(t, hb.Text, `"agent_beat_000":`)
	assert.NotContains(t, hb.Text, "node_flags")
	assert.NotContains(t, hb.Text, "secret_key")

	assert.InDelta(t, ns.MJD(now), f.utc, 1e-9)
	assert.Equal(t, "cubesat1", f.beat.Node)
	assert.Equal(t, defaultAgentName, f.beat.Proc)
	assert.Equal(t, 1.0, f.beat.BPrd)
	assert.Equal(t, f.beat, hb.Beat)

	byName := map[string]influxdb.Sample{}
	for _, s := range hb.Samples {
		byName[s.Name] = s
	}
	assert.Equal(t, influxdb.Sample{Name: "node_powgen", Unit: "W", Value: 4.5}, byName["node_powgen"])
	assert.Equal(t, "K", byName["device_cpu_temp_000"].Unit)
	assert.NotContains(t, byName, "node_name")
	assert.NotContains(t, byName, "agent_beat_000")

	msgs := pub.on("cosmos/cubesat1/soh")
	require.Len(t, msgs, 1)
	assert.Equal(t, hb.Text, string(msgs[0].payload))
	assert.False(t, msgs[0].retained)

	require.Len(t, exp.samples, 1)
	assert.Equal(t, hb.Samples, exp.samples[0])
}

func TestAgent_BeatJitter(t *testing.T) {
	r, f := newFixture(t)
	a := newAgent(t, r)

	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := a.Beat(start)
	require.NoError(t, err)
	assert.Zero(t, f.beat.Jitter)

	_, err = a.Beat(start.Add(1500 * time.Millisecond))
	require.NoError(t, err)
	assert.InDelta(t, 0.5, f.beat.Jitter, 1e-9)
}

func TestAgent_BeatWithoutAgentEntry(t *testing.T) {
	r, f := newFixture(t)
	f.agent = "other"
	a := newAgent(t, r)

	hb, err := a.Beat(time.Now())
	require.NoError(t, err)
	assert.NotContains(t, hb.Text, "agent_beat_000")
	assert.Empty(t, f.beat.Node)
}

func TestAgent_DisconnectedPublisher(t *testing.T) {
	r, _ := newFixture(t)
	a := newAgent(t, r)
	pub := newFakePublisher()
	pub.connected = false
	exp := &fakeExporter{}
	a.SetPublisher(pub)
	a.SetExporter(exp)

	_, err := a.Beat(time.Now())
	require.NoError(t, err)
	assert.Empty(t, pub.on("cosmos/cubesat1/soh"))
	assert.Len(t, exp.samples, 1)
}

func TestAgent_Listen(t *testing.T) {
	r, _ := newFixture(t)
	a := newAgent(t, r)

	var got []Heartbeat
	cancel := a.Listen(func(hb Heartbeat) { got = append(got, hb) })

	_, err := a.Beat(time.Now())
	require.NoError(t, err)
	cancel()
	_, err = a.Beat(time.Now())
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "cubesat1", got[0].Node)
}

func TestAgent_StartSubscribesAndPublishesCatalogue(t *testing.T) {
	r, f := newFixture(t)
	a := newAgent(t, r)
	pub := newFakePublisher()
	a.SetPublisher(pub)

	require.NoError(t, a.Start(context.Background()))
	defer a.Stop()
	assert.ErrorIs(t, a.Start(context.Background()), ErrStarted)

	cats := pub.on("cosmos/cubesat1/catalogue")
	require.Len(t, cats, 1)
	assert.True(t, cats[0].retained)
	c, err := UnmarshalCatalogue(cats[0].payload)
	require.NoError(t, err)
	assert.Equal(t, "cubesat1", c.Node)
	assert.Len(t, c.Entries, r.Count())

	set := pub.handler("cosmos/cubesat1/set")
	require.NotNil(t, set)
	require.NoError(t, set("cosmos/cubesat1/set", []byte(`{"node_powgen":7.25}{"bogus":1}`)))
	require.NoError(t, a.Guard().Do(func(*ns.Registry) error {
		assert.Equal(t, 7.25, f.powgen)
		return nil
	}))

	assert.Error(t, set("cosmos/cubesat1/set", []byte("no objects here")))
}

func TestAgent_Apply(t *testing.T) {
	r, f := newFixture(t)
	require.NoError(t, r.Toggle("node_flags", false))
	a := newAgent(t, r)

	st, err := a.Apply(`{"node_flags":3,"node_mystery":1}`)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Matched)
	assert.Equal(t, []string{"node_mystery"}, st.Unknown)
	assert.Equal(t, uint16(3), f.flags)
	assert.True(t, r.IsEnabled("node_flags"))

	_, err = a.Apply("")
	assert.ErrorIs(t, err, ns.ErrEndOfStream)
}

func TestAgent_Loop(t *testing.T) {
	r, _ := newFixture(t)
	a, err := NewAgent(Config{Node: "cubesat1", SOH: []string{"node_powgen"}, Period: 5 * time.Millisecond}, NewGuard(r))
	require.NoError(t, err)

	beats := make(chan Heartbeat, 8)
	a.Listen(func(hb Heartbeat) {
		select {
		case beats <- hb:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))

	select {
	case hb := <-beats:
		assert.True(t, strings.HasPrefix(hb.Text, `{"node_powgen":4.5}`), hb.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no heartbeat from loop")
	}

	a.Stop()
	a.Stop()
}
