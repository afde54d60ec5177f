package events

import "context"

// Event types
const (
	EventClaimStatusChanged  = "claim_status_changed"
	EventPolicyStatusChanged = "policy_status_changed"
	EventClaimCreated        = "claim_created"
	EventSLABreached         = "sla_breached"
)

// Streams
const (
	StreamClaims   = "events:claim"
	StreamPolicies = "events:policy"
	StreamSLA      = "events:sla"
)

// AllStreams lists every stream the websocket hub relays.
var AllStreams = []string{StreamClaims, StreamPolicies, StreamSLA}

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// String returns payload[key] when it is a string.
func (e Event) String(key string) string {
	s, _ := e.Payload[key].(string)
	return s
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
