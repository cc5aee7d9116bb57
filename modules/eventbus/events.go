package eventbus

// Event types emitted by the eventbus module.
const (
	EventTypeMessagePublished = "com.sitekit.eventbus.message.published"
	EventTypeMessageReceived  = "com.sitekit.eventbus.message.received"
	EventTypeMessageFailed    = "com.sitekit.eventbus.message.failed"
	EventTypeMessageDropped   = "com.sitekit.eventbus.message.dropped"

	EventTypeTopicCreated = "com.sitekit.eventbus.topic.created"
	EventTypeTopicDeleted = "com.sitekit.eventbus.topic.deleted"

	EventTypeBusStarted = "com.sitekit.eventbus.bus.started"
	EventTypeBusStopped = "com.sitekit.eventbus.bus.stopped"
)
