// Package influxdb exports heartbeat telemetry to InfluxDB v2.
//
// Each heartbeat contributes one point per enabled numeric entry to the
// "soh" measurement, tagged with node, entry name and unit:
//
//	soh,node=cubesat1,name=node_powgen,unit=W value=4.2 1760000000000000000
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSOH("cubesat1", samples, time.Now())
//
// Writes are non-blocking and batched per batch_size and flush_interval.
// Asynchronous write errors are delivered to the SetOnError callback;
// connection and health check errors are returned directly.
package influxdb
