package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/projecthub/internal/infrastructure/config"
)

// Client is a broker connection that announces ProjectHub's presence on the
// retained system status topic. Safe for concurrent use.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics

	connected atomic.Bool

	hooksMu      sync.RWMutex
	onConnect    func()
	onDisconnect func(err error)
}

// Logger is the subset of slog.Logger used by this package.
type Logger interface {
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Connect dials the broker named in cfg. The Last Will marks the server
// offline if the connection drops; every successful (re)connect publishes
// a retained "online" status.
func Connect(cfg config.MQTTConfig) (*Client, error) {
	c := &Client{cfg: cfg, topics: NewTopics(cfg.TopicPrefix)}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics, cfg.Broker.ClientID)
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.onUp() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.onDown(err) })

	c.client = pahomqtt.NewClient(opts)
	tok := c.client.Connect()
	if !tok.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := tok.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	// paho may not have run the connect handler yet.
	c.connected.Store(true)
	return c, nil
}

// Topics returns the topic builders for this client's prefix.
func (c *Client) Topics() Topics { return c.topics }

func (c *Client) onUp() {
	c.connected.Store(true)
	c.client.Publish(c.topics.SystemStatus(), c.qos(), true,
		buildStatusPayload(c.cfg.Broker.ClientID, "online", ""))

	c.hooksMu.RLock()
	fn := c.onConnect
	c.hooksMu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (c *Client) onDown(err error) {
	c.connected.Store(false)

	c.hooksMu.RLock()
	fn := c.onDisconnect
	c.hooksMu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// Close replaces the retained status with a graceful "offline" and
// disconnects. A client that never connected closes as a no-op.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if c.IsConnected() {
		c.client.Publish(c.topics.SystemStatus(), c.qos(), true,
			buildStatusPayload(c.cfg.Broker.ClientID, "offline", "graceful_shutdown")).
			WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.connected.Store(false)
	return nil
}

// HealthCheck implements the optional-backend check used by /health.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

func (c *Client) IsConnected() bool {
	return c.client != nil && c.connected.Load() && c.client.IsConnected()
}

// SetOnConnect registers fn to run after every (re)connect.
func (c *Client) SetOnConnect(fn func()) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.onConnect = fn
}

// SetOnDisconnect registers fn to run when the connection is lost.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.hooksMu.Lock()
	defer c.hooksMu.Unlock()
	c.onDisconnect = fn
}

func (c *Client) qos() byte {
	return byte(c.cfg.QoS) //nolint:gosec // config validates 0..2
}
