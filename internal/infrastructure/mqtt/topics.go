package mqtt

import (
	"fmt"

	"github.com/nerrad567/projecthub/internal/events"
)

// DefaultTopicPrefix roots every topic when none is configured.
const DefaultTopicPrefix = "projecthub"

// Topics builds ProjectHub MQTT topics under a common prefix.
//
//	topics := mqtt.NewTopics("projecthub")
//	topics.Event(events.ResourceProject, events.ActionCreated)
//	// Returns: "projecthub/events/project/created"
type Topics struct {
	prefix string
}

// NewTopics returns topic builders rooted at prefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string { return t.prefix }

// SystemStatus returns the retained online/offline status topic.
//
// Example: projecthub/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// Event returns the topic for one kind of domain change.
//
// Example: projecthub/events/account/deleted
func (t Topics) Event(resource events.Resource, action events.Action) string {
	return fmt.Sprintf("%s/events/%s/%s", t.prefix, resource, action)
}

// AllEvents returns a wildcard matching every event topic.
func (t Topics) AllEvents() string {
	return t.prefix + "/events/#"
}

// ResourceEvents returns a wildcard matching every action on one resource.
func (t Topics) ResourceEvents(resource events.Resource) string {
	return fmt.Sprintf("%s/events/%s/+", t.prefix, resource)
}
