// Package influxdb records ProjectHub request and event metrics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Writes are
// non-blocking and batched according to batch_size and flush_interval;
// asynchronous failures are delivered through SetOnError.
//
// # Measurements
//
//   - http_requests: tags method, route, status; fields duration_ms, bytes
//   - domain_events: tags resource, action; field count
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteRequestMetric(influxdb.RequestMetric{Method: "GET", Route: "/api/v1/projects", Status: 200})
package influxdb
