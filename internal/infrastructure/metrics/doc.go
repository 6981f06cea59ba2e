// Package metrics exposes daemon metrics in the Prometheus format.
//
// All collectors live in a private registry (not the global default), so
// tests can create as many registries as they like:
//
//	reg := metrics.NewRegistry()
//	reg.Metrics.RecordHeartbeat(len(soh))
//	router.Handle("/metrics", reg.Handler())
package metrics
