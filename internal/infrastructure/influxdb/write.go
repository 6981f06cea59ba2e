package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementSOH is the measurement holding heartbeat samples.
const MeasurementSOH = "soh"

// Sample is one numeric registry entry taken from a heartbeat.
type Sample struct {
	// Name is the namespace entry name, e.g. "node_powgen".
	Name string

	// Unit is the base unit symbol of the entry, empty when unitless.
	Unit string

	Value float64
}

// sohPoint builds the point for one sample. Tags stay low cardinality:
// node, entry name and unit.
func sohPoint(node string, s Sample, at time.Time) *write.Point {
	tags := map[string]string{
		"node": node,
		"name": s.Name,
	}
	if s.Unit != "" {
		tags["unit"] = s.Unit
	}
	return write.NewPoint(MeasurementSOH, tags, map[string]interface{}{"value": s.Value}, at)
}

// WriteSOH queues one point per sample, all stamped with at. The write is
// non-blocking; failures reach the SetOnError callback.
//
//	client.WriteSOH("cubesat1", []influxdb.Sample{{Name: "node_powgen", Unit: "W", Value: 4.2}}, time.Now())
func (c *Client) WriteSOH(node string, samples []Sample, at time.Time) {
	if !c.IsConnected() {
		return
	}
	for _, s := range samples {
		c.writeAPI.WritePoint(sohPoint(node, s, at))
	}
}
