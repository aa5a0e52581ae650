package influxdb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/projecthub/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client batches request and event points into one bucket. Writes never
// block the caller; points sent after Close are dropped.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	connected atomic.Bool
	onError   atomic.Pointer[func(error)]
}

// Connect returns ErrDisabled when cfg.Enabled is false. Otherwise it pings
// the server before starting the asynchronous write API.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(positiveOr(cfg.BatchSize, defaultBatchSize))). //nolint:gosec // positive
		SetFlushInterval(uint(flushInterval(cfg).Milliseconds()))         //nolint:gosec // positive
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := ping(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
		cfg:      cfg,
	}
	c.connected.Store(true)

	go func(errs <-chan error) {
		for err := range errs {
			if fn := c.onError.Load(); fn != nil {
				(*fn)(err)
			}
		}
	}(c.writeAPI.Errors())

	return c, nil
}

func positiveOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func flushInterval(cfg config.InfluxDBConfig) time.Duration {
	if cfg.FlushInterval <= 0 {
		return defaultFlushInterval
	}
	return time.Duration(cfg.FlushInterval) * time.Second
}

func ping(ctx context.Context, client influxdb2.Client) error {
	healthy, err := client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	if !healthy {
		return errors.New("server not healthy")
	}
	return nil
}

// Close flushes buffered points once and releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	if c.connected.CompareAndSwap(true, false) {
		c.writeAPI.Flush()
		c.client.Close()
	}
	return nil
}

func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := ping(ctx, c.client); err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	return nil
}

// IsConnected is false for a nil or closed client.
func (c *Client) IsConnected() bool {
	return c != nil && c.connected.Load()
}

// SetOnError installs the handler for asynchronous write failures.
func (c *Client) SetOnError(fn func(err error)) {
	c.onError.Store(&fn)
}

// Flush blocks until buffered points are written.
func (c *Client) Flush() {
	if c.IsConnected() {
		c.writeAPI.Flush()
	}
}
