package influxdb

import (
	"context"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/projecthub/internal/events"
)

// Measurement names.
const (
	MeasurementHTTPRequests = "http_requests"
	MeasurementDomainEvents = "domain_events"
)

// RequestMetric describes one completed HTTP request.
type RequestMetric struct {
	Method   string
	Route    string // route pattern, not the raw path, to bound tag cardinality
	Status   int
	Duration time.Duration
	Bytes    int
}

// WriteRequestMetric records an HTTP request in the http_requests measurement.
func (c *Client) WriteRequestMetric(m RequestMetric) {
	if !c.IsConnected() {
		return
	}

	route := m.Route
	if route == "" {
		route = "unmatched"
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementHTTPRequests,
		map[string]string{
			"method": m.Method,
			"route":  route,
			"status": strconv.Itoa(m.Status),
		},
		map[string]any{
			"duration_ms": float64(m.Duration.Microseconds()) / 1000,
			"bytes":       m.Bytes,
		},
		time.Now(),
	))
}

// EventCounter counts domain events in InfluxDB. It satisfies events.Publisher.
type EventCounter struct {
	client *Client
}

// NewEventCounter returns an events.Publisher that writes to c.
func NewEventCounter(c *Client) *EventCounter {
	return &EventCounter{client: c}
}

// Publish writes one point per event, tagged by resource and action.
func (e *EventCounter) Publish(_ context.Context, ev events.Event) {
	e.client.WritePointWithTime(MeasurementDomainEvents,
		map[string]string{
			"resource": string(ev.Resource),
			"action":   string(ev.Action),
		},
		map[string]any{"count": 1},
		ev.OccurredAt,
	)
}

// WritePointWithTime writes a custom point at an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}
	if timestamp.IsZero() {
		timestamp = time.Now()
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, timestamp))
}
