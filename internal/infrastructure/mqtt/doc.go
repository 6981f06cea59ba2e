// Package mqtt connects a node daemon to its MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect and backoff
//   - Publishing with QoS and payload limits
//   - Subscriptions with wildcard support, restored after reconnect
//   - A retained online/offline status with Last Will and Testament
//
// # Topics
//
// Every node owns the subtree cosmos/{node}/: heartbeats on soh, incoming
// updates on set, the retained catalogue on catalogue and the status on
// status. See Topics.
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) outside the lab
//   - Anonymous access is for local development only
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, "cubesat1")
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.Set("cubesat1"), 1, apply)
package mqtt
