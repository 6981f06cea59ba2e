// Package api implements the HTTP REST API and WebSocket server of a node.
//
// This package provides:
//   - Read endpoints for the namespace, its catalogue and equation evaluation
//   - Operator endpoints that apply wire text, toggle entries and add aliases
//   - Snapshot history and mirrored remote nodes
//   - A WebSocket hub relaying every heartbeat on the "soh" channel
//   - Middleware stack (request ID, logging, metrics, recovery, CORS, body limit)
//
// # Wire Text
//
// Namespace reads and writes use the registry's wire form, a concatenation of
// {"name":value} objects, served as text/plain. Metadata endpoints answer JSON;
// the catalogue is also available as CBOR with ?format=cbor, byte for byte the
// message published on cosmos/{node}/catalogue.
//
// # Security
//
// Reads are open. Writes require a bearer JWT whose role grants the route's
// permission and whose node claim, when present, names this node. Tokens are
// minted offline with "nsctl token".
//
// # Graceful Degradation
//
// The server operates without MQTT, the snapshot database or the mirror.
// Endpoints backed by a missing dependency answer 503.
package api
