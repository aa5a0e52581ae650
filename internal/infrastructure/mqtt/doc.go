// Package mqtt publishes ProjectHub domain events to an MQTT broker.
//
// The client connects with auto-reconnect, announces itself on a retained
// system status topic and registers a Last Will so subscribers notice an
// unexpected disconnect.
//
// Topics are rooted at the configured prefix (default "projecthub"):
//
//	projecthub/system/status
//	projecthub/events/{resource}/{action}
//
// EventPublisher adapts a Client to events.Publisher. Publishing is
// best-effort; a broker outage is logged and never fails the request that
// produced the event.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	pub := mqtt.NewEventPublisher(client, logger)
package mqtt
