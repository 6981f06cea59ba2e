// Package namespace maps human-readable names such as node_loc_pos_eci to
// typed locations inside caller-owned telemetry records.
//
// The registry is a reflection layer: it owns no payload memory, only the
// name to location mapping. Each entry carries a type tag, a unit row, an
// enabled flag and a Locator captured at registration. Locators resolve to
// typed pointers, so a wrong tag is refused at Register rather than
// corrupting memory later.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────────┐
//	│                             Registry                             │
//	│                                                                  │
//	│  ┌──────────────┐   ┌──────────────┐   ┌──────────────────────┐  │
//	│  │ Entry Store  │   │ Alias Layer  │   │   Equation Engine    │  │
//	│  │(registry.go) │◀──│  (alias.go)  │──▶│    (equation.go)     │  │
//	│  │ hash buckets │   │ one-step     │   │ interned, re-read    │  │
//	│  └──────┬───────┘   └──────────────┘   └──────────────────────┘  │
//	│         │                                                        │
//	│  ┌──────▼───────┐   ┌─────────────────────────────────────────┐  │
//	│  │Value Accessor│◀──│ Text Codec (emit.go, parse.go)          │  │
//	│  │(accessor.go) │   │ {"name":value} out, skip-and-continue in │  │
//	│  └──────┬───────┘   └─────────────────────────────────────────┘  │
//	└─────────│────────────────────────────────────────────────────────┘
//	          ▼
//	   caller-owned records (group bases set with SetBase)
//
// # Usage
//
//	reg := namespace.New()
//	reg.SetBase(namespace.GroupNode, &rec.Node)
//	reg.Register("node_mass", namespace.TypeFloat, namespace.UnitMass,
//	    namespace.In(namespace.GroupNode, func(n *Node) *float32 { return &n.Mass }))
//
//	h, _ := reg.Lookup("node_mass")
//	reg.SetDouble(h, 12.5)
//	out, _ := reg.Serialize(h) // {"node_mass":12.5}
//	n, _ := reg.Parse(`{"node_mass":("node_mass"*2)}`)
//
// # Thread Safety
//
// None. A Registry is used by one goroutine at a time; shared registries are
// guarded by the caller for the whole of each call.
package namespace
