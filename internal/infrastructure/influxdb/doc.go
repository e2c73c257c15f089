// Package influxdb records device liveness telemetry in InfluxDB.
//
// It wraps influxdb-client-go v2 with connection management, a non-blocking
// batched write API and health checks. The platform writes one point per
// discovery transition so the history of when each bulb was seen, went
// offline or came back can be graphed alongside the accessory cache.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.RecordLiveness(desc, wiz.EventDeviceOnline)
//
// All methods are safe for concurrent use. Write failures arrive
// asynchronously through SetOnError.
package influxdb
