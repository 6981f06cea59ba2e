// Package node defines the telemetry record of a single node and binds it
// into a namespace registry.
//
// A Record is caller-owned storage: the node attributes, physics and one
// table per category (agents, events, devices, pieces, ports, targets,
// vertices, faces, glossary, TLEs). Register walks the record and creates an
// entry for every field, naming indexed fields with three-digit suffixes
// (piece_mass_003, face_vertex_idx_002_005).
//
// A Loader reads a node description directory. Each file is a stream of
// {"name":value} objects in the registry's text form; // and /* */ comments,
// trailing commas, byte-order marks and Latin-1 text are tolerated.
// Save writes the same layout back.
//
//	reg := namespace.New()
//	rec, stats, err := node.LoadDir(reg, "/etc/cosmos/nodes/cubesat1")
package node
