package observability

import "context"

// Publisher is the event sink; satisfied by the rabbitmq publisher.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, event any) error
}

var defaultPublisher Publisher

// SetPublisher installs the process-wide event publisher. Called once from
// main before any connection is accepted.
func SetPublisher(publisher Publisher) {
	defaultPublisher = publisher
}

// EventEnvelope is the wire shape of published service events.
type EventEnvelope struct {
	EventType string `json:"event_type"`
	EventName string `json:"event_name"`
	Payload   any    `json:"payload"`
}

// Identity describes who a websocket event is about.
type Identity struct {
	UserID   int    `json:"user_id"`
	DeviceID string `json:"device_id"`
	IP       string `json:"ip"`
}

// BuildHeaders assembles correlation headers for a published event.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := map[string]string{}
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}

// PublishEvent sends one event through the installed publisher; a nil
// publisher makes it a no-op.
func PublishEvent(ctx context.Context, routingKey string, event EventEnvelope, headers map[string]string) error {
	if defaultPublisher == nil {
		return nil
	}

	err := defaultPublisher.Publish(ctx, routingKey, withHeaders(event, headers))
	if err != nil {
		IncAMQPPublishError()
	}
	return err
}

type headeredEvent struct {
	EventEnvelope
	Headers map[string]string `json:"headers,omitempty"`
}

func withHeaders(event EventEnvelope, headers map[string]string) any {
	if len(headers) == 0 {
		return event
	}
	return headeredEvent{EventEnvelope: event, Headers: headers}
}

// PublishWSEvent publishes one websocket lifecycle event (connect,
// disconnect, error) with identity and correlation data attached.
func PublishWSEvent(ctx context.Context, name, connID string, durationMS int64, reason string, identity Identity, requestID, traceID string) {
	_ = PublishEvent(ctx, "ws_events.discussions", EventEnvelope{
		EventType: "ws_events",
		EventName: name,
		Payload: map[string]any{
			"ws": map[string]any{
				"event":       name,
				"conn_id":     connID,
				"duration_ms": durationMS,
				"reason":      reason,
			},
			"identity": identity,
		},
	}, BuildHeaders(requestID, traceID))
}
