package mqtt

import "fmt"

// maxPayloadSize bounds a single message at 1MB.
const maxPayloadSize = 1 << 20

func checkPublish(topic string, payload []byte, qos byte) error {
	switch {
	case topic == "":
		return ErrInvalidTopic
	case qos > maxQoS:
		return ErrInvalidQoS
	case len(payload) > maxPayloadSize:
		return fmt.Errorf("%w: payload of %d bytes exceeds %d", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	return nil
}

// Publish sends one message and blocks until the broker acknowledges it or
// defaultPublishTimeout passes. Only status messages are retained; domain
// events are not.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := checkPublish(topic, payload, qos); err != nil {
		return err
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	tok := c.client.Publish(topic, qos, retained, payload)
	if !tok.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: no ack after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := tok.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// PublishDefault publishes a non-retained message at the configured QoS.
func (c *Client) PublishDefault(topic string, payload []byte) error {
	return c.Publish(topic, payload, c.qos(), false)
}
