package telemetry

import (
	"fmt"
	"time"

	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/influxdb"
	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

// Heartbeat is one state-of-health emission.
type Heartbeat struct {
	Node string
	Time time.Time
	Beat ns.Beat

	// Text is the wire text published on cosmos/{node}/soh.
	Text string

	// Samples are the enabled numeric entries of Text, in base units.
	Samples []influxdb.Sample
}

// selectSOH resolves the SOH patterns to enabled entry handles, deduplicated
// and in pattern order.
func selectSOH(r *ns.Registry, patterns []string) ([]ns.Handle, error) {
	seen := make(map[ns.Handle]bool)
	var out []ns.Handle
	for _, p := range patterns {
		hs, err := r.Match(p)
		if err != nil {
			return nil, fmt.Errorf("soh pattern %q: %w", p, err)
		}
		for _, h := range hs {
			if seen[h] {
				continue
			}
			seen[h] = true
			e, err := r.Entry(h)
			if err != nil || !e.Enabled {
				continue
			}
			out = append(out, h)
		}
	}
	return out, nil
}

// samples reads the numeric entries among hs.
func samples(r *ns.Registry, hs []ns.Handle) []influxdb.Sample {
	out := make([]influxdb.Sample, 0, len(hs))
	for _, h := range hs {
		e, err := r.Entry(h)
		if err != nil || !e.ValueType().IsNumeric() {
			continue
		}
		v, err := r.GetDouble(h)
		if err != nil {
			continue
		}
		unit, _ := r.UnitOf(h)
		out = append(out, influxdb.Sample{Name: e.Name, Unit: unit.String(), Value: v})
	}
	return out
}
