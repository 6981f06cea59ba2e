package namespace

import (
	"fmt"
	"strings"
)

// FrameUpdate is passed to the recompute hook after a write to a position or
// attitude composite has bumped its pass counter.
type FrameUpdate struct {
	Handle Handle
	Name   string
	Type   Type
	Group  Group
	Base   any // group base the entry lives in, nil for direct entries
	Pass   uint32
}

// Registry maps names to locations in caller-owned storage. It owns no
// payload memory and has no internal locking: callers sharing a Registry
// between goroutines must serialise every call themselves.
type Registry struct {
	buckets   [][]Entry
	equations [][]Equation
	bases     [groupCount]any

	count      int
	eqCount    int
	maxEntries int

	onRecompute func(FrameUpdate)
}

// New creates an empty registry ready for bulk registration.
func New() *Registry {
	r := &Registry{}
	r.Reset()
	return r
}

// SetMaxEntries caps the number of entries. Registrations beyond the cap fail
// with KindGrowth. Zero means unlimited.
func (r *Registry) SetMaxEntries(n int) {
	r.maxEntries = n
}

// SetRecomputeHook installs the function called after frame composites are
// written. The hook must not call back into the registry unless the caller's
// lock allows re-entry.
func (r *Registry) SetRecomputeHook(fn func(FrameUpdate)) {
	r.onRecompute = fn
}

// SetBase associates the caller-owned base value for a group. Locators built
// with In expect a *B, locators built with Index expect a *[]E.
func (r *Registry) SetBase(g Group, base any) {
	if g < groupCount {
		r.bases[g] = base
	}
}

// Base returns the base registered for g, or nil.
func (r *Registry) Base(g Group) any {
	if g < groupCount {
		return r.bases[g]
	}
	return nil
}

// Reset drops every entry and equation. Group bases are kept. Handles issued
// before the reset report KindOutOfRange.
func (r *Registry) Reset() {
	r.buckets = make([][]Entry, Buckets)
	r.equations = make([][]Equation, Buckets)
	r.count = 0
	r.eqCount = 0
}

// Teardown releases the tables. Every later call reports KindNoNamespace.
// Caller-owned storage is not touched.
func (r *Registry) Teardown() {
	r.buckets = nil
	r.equations = nil
	r.bases = [groupCount]any{}
	r.count = 0
	r.eqCount = 0
}

func (r *Registry) ready() error {
	if r == nil || r.buckets == nil {
		return ErrNoNamespace
	}
	return nil
}

// populated reports KindNoNamespace until setup has registered at least one
// entry. Lookups, parses and serializations go through it.
func (r *Registry) populated() error {
	if err := r.ready(); err != nil {
		return err
	}
	if r.count == 0 {
		return errorf(KindNoNamespace, "registry has no entries")
	}
	return nil
}

// Count returns the number of entries.
func (r *Registry) Count() int {
	if r == nil {
		return 0
	}
	return r.count
}

// Register binds name to a typed location. If the name exists its type, unit
// and locator are replaced in place and the enabled flag is kept; handles for
// it stay valid. It returns the total entry count.
func (r *Registry) Register(name string, t Type, unit UnitID, loc Locator) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return r.count, err
	}
	if !t.IsScalar() && !t.IsComposite() {
		return r.count, errorf(KindInvalid, "%s: cannot register type %s directly", name, t)
	}
	if loc == nil {
		return r.count, errorf(KindInvalid, "%s: nil locator", name)
	}
	if loc.Group() >= groupCount {
		return r.count, errorf(KindInvalid, "%s: unknown group %d", name, loc.Group())
	}
	if !fits(t, loc.probe()) {
		return r.count, errorf(KindType, "%s: locator %T cannot hold %s", name, loc.probe(), t)
	}

	_, err := r.put(Entry{
		Name:  name,
		Type:  t,
		Unit:  unit,
		Group: loc.Group(),
		loc:   loc,
	})
	return r.count, err
}

// RegisterEquation binds name to the value of an equation. Reads of the entry
// evaluate the equation afresh.
func (r *Registry) RegisterEquation(name, text string) (int, error) {
	if err := r.ready(); err != nil {
		return 0, err
	}
	if err := checkName(name); err != nil {
		return r.count, err
	}
	eh, err := r.Intern(text)
	if err != nil {
		return r.count, err
	}
	_, err = r.put(Entry{
		Name:   name,
		Type:   TypeEquation,
		Group:  GroupEquation,
		target: &Target{Kind: TargetEquation, Handle: eh, Type: TypeEquation},
	})
	return r.count, err
}

// put inserts e or overwrites the descriptor of the existing entry of the same
// name.
func (r *Registry) put(e Entry) (Handle, error) {
	b := Hash(e.Name)
	for i := range r.buckets[b] {
		old := &r.buckets[b][i]
		if old.Name != e.Name {
			continue
		}
		old.Type = e.Type
		old.Unit = e.Unit
		old.Group = e.Group
		old.loc = e.loc
		old.target = e.target
		return Handle{Bucket: b, Slot: i}, nil
	}

	if r.maxEntries > 0 && r.count >= r.maxEntries {
		return Handle{}, &Error{Kind: KindGrowth, Msg: fmt.Sprintf("%s: limit of %d entries reached", e.Name, r.maxEntries)}
	}
	e.Enabled = true
	e.Alarm, e.Alert, e.Min, e.Max = NoIndex, NoIndex, NoIndex, NoIndex
	r.buckets[b] = append(r.buckets[b], e)
	r.count++
	return Handle{Bucket: b, Slot: len(r.buckets[b]) - 1}, nil
}

func checkName(name string) error {
	if name == "" {
		return errorf(KindInvalid, "empty name")
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; c == '"' || c < 0x20 {
			return errorf(KindInvalid, "name %q contains %q", name, c)
		}
	}
	return nil
}

// Lookup resolves a name to its handle. On a registry with no entries it
// reports KindNoNamespace rather than KindNotFound.
func (r *Registry) Lookup(name string) (Handle, error) {
	if err := r.populated(); err != nil {
		return Handle{}, err
	}
	b := Hash(name)
	for i := range r.buckets[b] {
		if r.buckets[b][i].Name == name {
			return Handle{Bucket: b, Slot: i}, nil
		}
	}
	return Handle{}, errorf(KindNotFound, "%s: not found", name)
}

// Entry returns a copy of the entry at h.
func (r *Registry) Entry(h Handle) (Entry, error) {
	e, err := r.entry(h)
	if err != nil {
		return Entry{}, err
	}
	return *e, nil
}

func (r *Registry) entry(h Handle) (*Entry, error) {
	if err := r.ready(); err != nil {
		return nil, err
	}
	if h.Bucket < 0 || h.Bucket >= len(r.buckets) || h.Slot < 0 || h.Slot >= len(r.buckets[h.Bucket]) {
		return nil, errorf(KindOutOfRange, "handle %s out of range", h)
	}
	return &r.buckets[h.Bucket][h.Slot], nil
}

func (r *Registry) entryByName(name string) (Handle, *Entry, error) {
	h, err := r.Lookup(name)
	if err != nil {
		return h, nil, err
	}
	e, err := r.entry(h)
	return h, e, err
}

// Toggle sets the enabled flag of name.
func (r *Registry) Toggle(name string, enabled bool) error {
	_, e, err := r.entryByName(name)
	if err != nil {
		return err
	}
	e.Enabled = enabled
	return nil
}

// IsEnabled reports the enabled flag of name. Unknown names are disabled.
func (r *Registry) IsEnabled(name string) bool {
	_, e, err := r.entryByName(name)
	return err == nil && e.Enabled
}

// SetLimits records side-table indices for the alarm, alert, minimum and
// maximum thresholds of name. Pass NoIndex to clear one.
func (r *Registry) SetLimits(name string, alarm, alert, min, max int) error {
	_, e, err := r.entryByName(name)
	if err != nil {
		return err
	}
	e.Alarm, e.Alert, e.Min, e.Max = alarm, alert, min, max
	return nil
}

// Resolve returns the typed pointer to the storage behind h. Alias entries
// resolve to their target's storage; equations have none.
func (r *Registry) Resolve(h Handle) (any, error) {
	_, e, err := r.target(h)
	if err != nil {
		return nil, err
	}
	return r.address(e)
}

// target returns the entry at h, following an alias to the entry it names.
// Equation aliases are returned unchanged for the caller to evaluate. Alias
// chains are refused at registration, so one step is enough.
func (r *Registry) target(h Handle) (Handle, *Entry, error) {
	e, err := r.entry(h)
	if err != nil {
		return h, nil, err
	}
	if e.Type != TypeAlias || e.target == nil || e.target.Kind != TargetEntry {
		return h, e, nil
	}
	t, err := r.entry(e.target.Handle)
	if err != nil {
		return h, nil, fmt.Errorf("%w: alias %s", err, e.Name)
	}
	return e.target.Handle, t, nil
}

func (r *Registry) address(e *Entry) (any, error) {
	if e.loc == nil {
		return nil, errorf(KindType, "%s: %s has no storage", e.Name, e.Type)
	}
	p, ok := e.loc.resolve(r.bases[e.Group])
	if !ok {
		return nil, errorf(KindNotFound, "%s: no storage in group %s", e.Name, e.Group)
	}
	return p, nil
}

// each visits entries in bucket then slot order until fn returns false.
func (r *Registry) each(fn func(Handle, *Entry) bool) {
	for b := range r.buckets {
		for s := range r.buckets[b] {
			if !fn(Handle{Bucket: b, Slot: s}, &r.buckets[b][s]) {
				return
			}
		}
	}
}

// Names lists every entry name in bucket then slot order.
func (r *Registry) Names() []string {
	if r.ready() != nil {
		return nil
	}
	names := make([]string, 0, r.count)
	r.each(func(_ Handle, e *Entry) bool {
		names = append(names, e.Name)
		return true
	})
	return names
}

// Catalogue describes every entry in bucket then slot order.
func (r *Registry) Catalogue() []Info {
	if r.ready() != nil {
		return nil
	}
	out := make([]Info, 0, r.count)
	r.each(func(_ Handle, e *Entry) bool {
		out = append(out, r.info(e))
		return true
	})
	return out
}

// Describe returns the catalogue record of the entry at h.
func (r *Registry) Describe(h Handle) (Info, error) {
	e, err := r.entry(h)
	if err != nil {
		return Info{}, err
	}
	return r.info(e), nil
}

func (r *Registry) info(e *Entry) Info {
	info := Info{
		Name:    e.Name,
		Type:    e.ValueType().String(),
		Unit:    e.Unit.String(),
		Group:   e.Group.String(),
		Enabled: e.Enabled,
	}
	if e.target != nil {
		switch e.target.Kind {
		case TargetEquation:
			if eq, err := r.equation(e.target.Handle); err == nil {
				info.Target = eq.Text
			}
		default:
			if t, err := r.entry(e.target.Handle); err == nil {
				info.Target = t.Name
				info.Unit = t.Unit.String()
			}
		}
	}
	return info
}

// IndexedName appends one zero-padded three-digit suffix per index:
// IndexedName("device_temp", 4) is "device_temp_004" and
// IndexedName("face_vertex_idx", 2, 17) is "face_vertex_idx_002_017".
func IndexedName(base string, idx ...int) string {
	var sb strings.Builder
	sb.Grow(len(base) + 4*len(idx))
	sb.WriteString(base)
	for _, i := range idx {
		fmt.Fprintf(&sb, "_%03d", i)
	}
	return sb.String()
}
