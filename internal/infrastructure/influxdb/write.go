package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/wiz-platform/internal/wiz"
)

// Measurement names.
const (
	MeasurementLiveness    = "device_liveness"
	MeasurementAccessories = "accessories"
)

// RecordLiveness writes one device_liveness point for a discovery event.
//
// Tags: device_id, device_type, event. Fields: online, host.
// Points are dropped while disconnected.
func (c *Client) RecordLiveness(d wiz.Descriptor, kind wiz.EventKind) {
	c.WritePoint(MeasurementLiveness,
		map[string]string{
			"device_id":   d.ID,
			"device_type": string(d.DeviceType),
			"event":       string(kind),
		},
		map[string]any{
			"online": kind != wiz.EventDeviceOffline,
			"host":   d.Host,
		},
	)
}

// RecordAccessoryCount writes the number of bound devices and cached shells.
func (c *Client) RecordAccessoryCount(bindings, shells int) {
	c.WritePoint(MeasurementAccessories, nil, map[string]any{
		"bindings": bindings,
		"shells":   shells,
	})
}

// WritePoint writes a point stamped with the current time.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	c.WritePointWithTime(measurement, tags, fields, time.Now())
}

// WritePointWithTime writes a point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() || c.writeAPI == nil {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
