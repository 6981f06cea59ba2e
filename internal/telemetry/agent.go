package telemetry

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/influxdb"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/metrics"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/mqtt"
	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

const (
	defaultPeriod    = time.Second
	defaultAgentName = "cosmosd"
)

// ErrStarted is returned by Start on an agent that is already running.
var ErrStarted = errors.New("telemetry: agent already started")

// Publisher is the message bus the agent talks to. *mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Exporter receives the numeric samples of every heartbeat.
// *influxdb.Client satisfies it.
type Exporter interface {
	WriteSOH(node string, samples []influxdb.Sample, at time.Time)
}

// Logger defines the logging interface used by the agent.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Config holds the agent settings.
type Config struct {
	// Node names the topics the agent publishes on.
	Node string

	// Agent is matched against agent_name_NNN to find the beat entry the
	// agent keeps current. Default: "cosmosd".
	Agent string

	// SOH lists glob patterns selecting the entries of each heartbeat.
	SOH []string

	// Period is the heartbeat interval. Default: 1 second.
	Period time.Duration

	// QoS is used for heartbeats and the set subscription.
	QoS byte
}

// Agent publishes a node's state of health and applies updates sent to it.
//
// Every heartbeat renders the enabled entries selected by the SOH patterns
// as wire text, publishes it on cosmos/{node}/soh, exports the numeric
// samples and hands the heartbeat to listeners. Wire text received on
// cosmos/{node}/set is parsed into the registry.
//
// Thread Safety:
//   - All methods are safe for concurrent use; registry access goes through
//     the Guard.
type Agent struct {
	cfg   Config
	guard *Guard

	publisher Publisher
	exporter  Exporter
	metrics   *metrics.Metrics
	logger    Logger

	// beatIdx is the agent index whose beat entry is kept current, -1 if
	// none was found yet.
	beatIdx  int
	lastBeat time.Time

	listeners  map[int]func(Heartbeat)
	nextListen int
	mu         sync.Mutex

	done    chan struct{}
	wg      sync.WaitGroup
	started bool
	stop    sync.Once
}

// NewAgent validates cfg and creates an agent over guard.
func NewAgent(cfg Config, guard *Guard) (*Agent, error) {
	if !mqtt.ValidNodeName(cfg.Node) {
		return nil, fmt.Errorf("telemetry: invalid node name %q", cfg.Node)
	}
	if cfg.Agent == "" {
		cfg.Agent = defaultAgentName
	}
	if cfg.Period <= 0 {
		cfg.Period = defaultPeriod
	}
	for _, p := range cfg.SOH {
		if _, err := path.Match(p, ""); err != nil {
			return nil, fmt.Errorf("telemetry: soh pattern %q: %w", p, err)
		}
	}
	return &Agent{
		cfg:       cfg,
		guard:     guard,
		logger:    noopLogger{},
		beatIdx:   -1,
		listeners: make(map[int]func(Heartbeat)),
		done:      make(chan struct{}),
	}, nil
}

// SetPublisher sets the message bus. Without one, heartbeats are only
// exported and handed to listeners.
func (a *Agent) SetPublisher(p Publisher) {
	a.mu.Lock()
	a.publisher = p
	a.mu.Unlock()
}

// SetExporter sets the time-series exporter.
func (a *Agent) SetExporter(e Exporter) {
	a.mu.Lock()
	a.exporter = e
	a.mu.Unlock()
}

// SetMetrics sets the collectors updated by the agent.
func (a *Agent) SetMetrics(m *metrics.Metrics) {
	a.mu.Lock()
	a.metrics = m
	a.mu.Unlock()
}

// SetLogger sets the logger for the agent.
func (a *Agent) SetLogger(logger Logger) {
	a.mu.Lock()
	a.logger = logger
	a.mu.Unlock()
}

// Node returns the node name.
func (a *Agent) Node() string { return a.cfg.Node }

// Guard returns the guard the agent reads through.
func (a *Agent) Guard() *Guard { return a.guard }

// Listen registers fn to receive every heartbeat. fn runs on the heartbeat
// goroutine and must not block. The returned function removes it.
func (a *Agent) Listen(fn func(Heartbeat)) (cancel func()) {
	a.mu.Lock()
	id := a.nextListen
	a.nextListen++
	a.listeners[id] = fn
	a.mu.Unlock()

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

type deps struct {
	publisher Publisher
	exporter  Exporter
	metrics   *metrics.Metrics
	logger    Logger
	listeners []func(Heartbeat)
}

func (a *Agent) deps() deps {
	a.mu.Lock()
	defer a.mu.Unlock()
	d := deps{publisher: a.publisher, exporter: a.exporter, metrics: a.metrics, logger: a.logger}
	for _, fn := range a.listeners {
		d.listeners = append(d.listeners, fn)
	}
	return d
}

// Start subscribes to the set topic, publishes the catalogue and begins the
// heartbeat loop. The loop stops when ctx is cancelled or Stop is called.
func (a *Agent) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return ErrStarted
	}
	a.started = true
	a.mu.Unlock()

	d := a.deps()
	if d.publisher != nil {
		if err := d.publisher.Subscribe(mqtt.Topics{}.Set(a.cfg.Node), a.cfg.QoS, a.handleSet); err != nil {
			return fmt.Errorf("subscribing to set topic: %w", err)
		}
		if err := a.PublishCatalogue(); err != nil {
			d.logger.Warn("catalogue not published", "error", err)
		}
	}

	a.wg.Add(1)
	go a.loop(ctx)
	return nil
}

// Stop ends the heartbeat loop and waits for it. Safe to call more than once.
func (a *Agent) Stop() {
	a.stop.Do(func() {
		close(a.done)
		a.wg.Wait()
	})
}

func (a *Agent) loop(ctx context.Context) {
	defer a.wg.Done()

	ticker := time.NewTicker(a.cfg.Period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-a.done:
			return
		case now := <-ticker.C:
			if _, err := a.Beat(now); err != nil {
				a.deps().logger.Error("heartbeat failed", "error", err)
			}
		}
	}
}

// Beat emits one heartbeat stamped with now. Publish failures are logged,
// not returned: a heartbeat that cannot reach the broker still reaches the
// exporter and listeners.
func (a *Agent) Beat(now time.Time) (Heartbeat, error) {
	hb := Heartbeat{Node: a.cfg.Node, Time: now}

	err := a.guard.Do(func(r *ns.Registry) error {
		hb.Beat = a.updateBeat(r, now)
		hs, err := selectSOH(r, a.cfg.SOH)
		if err != nil {
			return err
		}
		if beat, ok := a.beatHandle(r); ok {
			hs = appendUnique(hs, beat)
		}
		hb.Text = r.SerializeHandles(hs)
		hb.Samples = samples(r, hs)
		return nil
	})
	if err != nil {
		return Heartbeat{}, err
	}

	d := a.deps()
	if d.publisher != nil && d.publisher.IsConnected() {
		if err := d.publisher.Publish(mqtt.Topics{}.SOH(a.cfg.Node), []byte(hb.Text), a.cfg.QoS, false); err != nil {
			d.logger.Warn("heartbeat not published", "error", err)
		}
	}
	if d.exporter != nil {
		d.exporter.WriteSOH(a.cfg.Node, hb.Samples, now)
	}
	if d.metrics != nil {
		d.metrics.RecordHeartbeat(len(hb.Text))
		d.metrics.Entries.Set(float64(a.guard.Count()))
		if d.publisher != nil {
			d.metrics.RecordMQTTStatus(d.publisher.IsConnected())
		}
	}
	for _, fn := range d.listeners {
		fn(hb)
	}
	return hb, nil
}

func appendUnique(hs []ns.Handle, h ns.Handle) []ns.Handle {
	for _, x := range hs {
		if x == h {
			return hs
		}
	}
	return append(hs, h)
}

// updateBeat writes node_utc and, when the agent has an entry, its beat.
func (a *Agent) updateBeat(r *ns.Registry, now time.Time) ns.Beat {
	beat := ns.Beat{
		UTC:  ns.MJD(now),
		Node: a.cfg.Node,
		Proc: a.cfg.Agent,
		BPrd: a.cfg.Period.Seconds(),
	}
	if !a.lastBeat.IsZero() {
		beat.Jitter = now.Sub(a.lastBeat).Seconds() - beat.BPrd
	}
	a.lastBeat = now

	if h, err := r.Lookup("node_utc"); err == nil {
		_ = r.SetDouble(h, beat.UTC) //nolint:errcheck // node_utc is always a double
	}
	if h, ok := a.beatHandle(r); ok {
		_ = r.Set(h, beat) //nolint:errcheck // beat entries are TypeBeat
	}
	return beat
}

// beatHandle finds agent_beat_NNN for the agent named in the config. The
// index is cached once found.
func (a *Agent) beatHandle(r *ns.Registry) (ns.Handle, bool) {
	if a.beatIdx < 0 {
		for i := 0; ; i++ {
			h, err := r.Lookup(ns.IndexedName("agent_name", i))
			if err != nil {
				return ns.Handle{}, false
			}
			if name, _ := r.GetString(h); name == a.cfg.Agent {
				a.beatIdx = i
				break
			}
		}
	}
	h, err := r.Lookup(ns.IndexedName("agent_beat", a.beatIdx))
	return h, err == nil
}

// Apply parses wire text into the registry and records the outcome.
func (a *Agent) Apply(text string) (ns.ParseStats, error) {
	var st ns.ParseStats
	err := a.guard.Do(func(r *ns.Registry) error {
		var err error
		st, err = r.ParseWithStats(text)
		return err
	})

	d := a.deps()
	if d.metrics != nil {
		d.metrics.RecordParse(st.Matched, st.Skipped, len(st.Unknown))
	}
	if len(st.Unknown) > 0 {
		d.logger.Debug("unknown names in update", "names", st.Unknown)
	}
	return st, err
}

func (a *Agent) handleSet(_ string, payload []byte) error {
	st, err := a.Apply(string(payload))
	if err != nil {
		return fmt.Errorf("applying set: %w", err)
	}
	a.deps().logger.Debug("set applied", "matched", st.Matched, "skipped", st.Skipped)
	return nil
}

// Catalogue describes the registry.
func (a *Agent) Catalogue(now time.Time) Catalogue {
	c := Catalogue{Node: a.cfg.Node, Generated: ns.MJD(now)}
	_ = a.guard.Do(func(r *ns.Registry) error { //nolint:errcheck // fn never fails
		c.Entries = r.Catalogue()
		return nil
	})
	return c
}

// PublishCatalogue publishes the retained CBOR catalogue. Call it again
// after registering aliases or equations.
func (a *Agent) PublishCatalogue() error {
	d := a.deps()
	if d.publisher == nil {
		return nil
	}
	data, err := a.Catalogue(time.Now()).Marshal()
	if err != nil {
		return err
	}
	return d.publisher.Publish(mqtt.Topics{}.Catalogue(a.cfg.Node), data, 1, true)
}
