// Package telemetry runs a node's registry as a live agent.
//
// A Guard owns the single lock through which every goroutine touches the
// registry. The Agent emits heartbeats: on each period it renders the
// enabled entries selected by the SOH patterns as wire text, publishes it on
// cosmos/{node}/soh, exports numeric samples to InfluxDB and passes the
// heartbeat to listeners such as the WebSocket hub. Wire text received on
// cosmos/{node}/set is parsed into the registry. A CBOR catalogue of every
// entry is retained on cosmos/{node}/catalogue.
//
// A Mirror rebuilds remote nodes' registries from their catalogues and
// keeps them current from their heartbeats.
//
//	guard := telemetry.NewGuard(reg)
//	agent, err := telemetry.NewAgent(telemetry.Config{
//	    Node:   "cubesat1",
//	    SOH:    []string{"node_*", "device_*_temp_*"},
//	    Period: time.Second,
//	}, guard)
//	agent.SetPublisher(mqttClient)
//	agent.SetExporter(influxClient)
//	err = agent.Start(ctx)
//	defer agent.Stop()
package telemetry
