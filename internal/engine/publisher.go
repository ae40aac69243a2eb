package engine

// UI event types pushed to connected dashboards.
const (
	EventNotification      = "notification"
	EventConnectionState   = "connection_state"
	EventDegraded          = "degraded"
	EventResumed           = "resumed"
	EventNotificationsRead = "notifications_read"
)

// Publisher pushes UI-facing events. Implementations must not block.
type Publisher interface {
	Publish(eventType string, data any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// NopPublisher discards every event.
var NopPublisher Publisher = nopPublisher{}
