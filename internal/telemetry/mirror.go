package telemetry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/mqtt"
	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

// Mirror keeps a registry per remote node, built from the node's retained
// catalogue and fed by its heartbeats. Heartbeats from a node whose
// catalogue has not arrived yet are dropped.
type Mirror struct {
	self       string
	maxEntries int
	dec        cbor.DecMode

	mu     sync.Mutex
	nodes  map[string]*remote
	logger Logger
}

type remote struct {
	guard   *Guard
	updated time.Time
}

// RemoteInfo summarises one mirrored node.
type RemoteInfo struct {
	Node    string    `json:"node"`
	Entries int       `json:"entries"`
	Updated time.Time `json:"updated"`
}

// NewMirror creates a mirror that ignores messages from self. maxEntries
// caps each mirrored registry; 0 means unlimited. Catalogues listing more
// entries than the cap are refused whole.
func NewMirror(self string, maxEntries int) *Mirror {
	dec, err := catalogueDecoder(maxEntries)
	if err != nil {
		dec = catalogueDec
	}
	return &Mirror{
		self:       self,
		maxEntries: maxEntries,
		dec:        dec,
		nodes:      make(map[string]*remote),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the mirror.
func (m *Mirror) SetLogger(logger Logger) {
	m.mu.Lock()
	m.logger = logger
	m.mu.Unlock()
}

func (m *Mirror) getLogger() Logger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.logger
}

// Attach subscribes the mirror to every node's catalogue and heartbeat.
func (m *Mirror) Attach(p Publisher, qos byte) error {
	if err := p.Subscribe(mqtt.Topics{}.AllCatalogues(), 1, m.HandleCatalogue); err != nil {
		return fmt.Errorf("subscribing to catalogues: %w", err)
	}
	if err := p.Subscribe(mqtt.Topics{}.AllSOH(), qos, m.HandleSOH); err != nil {
		return fmt.Errorf("subscribing to heartbeats: %w", err)
	}
	return nil
}

// HandleCatalogue replaces the registry of the publishing node with one
// built from its catalogue.
func (m *Mirror) HandleCatalogue(topic string, payload []byte) error {
	node, _, ok := mqtt.Topics{}.Parse(topic)
	if !ok || node == m.self {
		return nil
	}
	c, err := decodeCatalogue(m.dec, payload)
	if err != nil {
		return fmt.Errorf("mirroring %s: %w", node, err)
	}

	reg, skipped := m.build(c)
	if skipped > 0 {
		m.getLogger().Warn("catalogue entries not mirrored", "node", node, "skipped", skipped)
	}

	m.mu.Lock()
	m.nodes[node] = &remote{guard: NewGuard(reg), updated: time.Now()}
	m.mu.Unlock()
	return nil
}

// build registers plain entries first, then equations and aliases, which
// need their targets in place.
func (m *Mirror) build(c Catalogue) (*ns.Registry, int) {
	reg := ns.New()
	reg.SetMaxEntries(m.maxEntries)

	skipped := 0
	var derived []ns.Info
	for _, info := range c.Entries {
		if info.Target != "" {
			derived = append(derived, info)
			continue
		}
		if err := registerInfo(reg, info); err != nil {
			skipped++
		}
	}
	// Equations before aliases: an alias may name an equation entry.
	sort.SliceStable(derived, func(i, j int) bool {
		return derived[i].Group == ns.GroupEquation.String() && derived[j].Group != ns.GroupEquation.String()
	})
	for _, info := range derived {
		var err error
		if info.Group == ns.GroupEquation.String() {
			_, err = reg.RegisterEquation(info.Name, info.Target)
		} else {
			_, err = reg.AddAlias(info.Name, info.Target)
		}
		if err != nil {
			skipped++
		}
	}
	return reg, skipped
}

func registerInfo(reg *ns.Registry, info ns.Info) error {
	t, err := ns.ParseType(info.Type)
	if err != nil {
		return err
	}
	loc, ok := ns.Fresh(t)
	if !ok {
		return fmt.Errorf("%s: no storage for type %s", info.Name, info.Type)
	}
	unit, _ := ns.UnitIDOf(info.Unit)
	if _, err := reg.Register(info.Name, t, unit, loc); err != nil {
		return err
	}
	if !info.Enabled {
		return reg.Toggle(info.Name, false)
	}
	return nil
}

// HandleSOH parses a remote heartbeat into that node's registry.
func (m *Mirror) HandleSOH(topic string, payload []byte) error {
	node, _, ok := mqtt.Topics{}.Parse(topic)
	if !ok || node == m.self {
		return nil
	}

	m.mu.Lock()
	rm := m.nodes[node]
	m.mu.Unlock()
	if rm == nil {
		return nil
	}

	err := rm.guard.Do(func(r *ns.Registry) error {
		_, err := r.Parse(string(payload))
		return err
	})
	if err != nil {
		return fmt.Errorf("mirroring %s: %w", node, err)
	}

	m.mu.Lock()
	rm.updated = time.Now()
	m.mu.Unlock()
	return nil
}

// Node returns the guard of a mirrored node's registry.
func (m *Mirror) Node(name string) (*Guard, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rm, ok := m.nodes[name]
	if !ok {
		return nil, false
	}
	return rm.guard, true
}

// Nodes lists the mirrored nodes sorted by name.
func (m *Mirror) Nodes() []RemoteInfo {
	m.mu.Lock()
	out := make([]RemoteInfo, 0, len(m.nodes))
	guards := make([]*Guard, 0, len(m.nodes))
	for name, rm := range m.nodes {
		out = append(out, RemoteInfo{Node: name, Updated: rm.updated})
		guards = append(guards, rm.guard)
	}
	m.mu.Unlock()

	for i, g := range guards {
		out[i].Entries = g.Count()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Node < out[j].Node })
	return out
}
