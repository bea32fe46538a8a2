package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Audit log status constants
const (
	StatusSuccess = "SUCCESS"
	StatusFailure = "FAILURE"
)

// Actions recorded by the portal
const (
	ActionOnboard       = "member.onboard"
	ActionProfileUpdate = "member.profile_update"
	ActionRushSubmit    = "rush.submit"
	ActionBidAccept     = "rush.bid_accept"
	ActionRusheeAdvance = "rush.advance"
	ActionFileUpload    = "file.upload"
	ActionFileDelete    = "file.delete"
	ActionSignIn        = "auth.sign_in"
	ActionForcedSignOut = "auth.forced_sign_out"
)

// Event is one audit entry. Metadata must not carry essay text or contact details.
type Event struct {
	Timestamp  string          `json:"timestamp"`
	Action     string          `json:"action"`
	Status     string          `json:"status"`
	ActorID    string          `json:"actorId"`
	TargetType string          `json:"targetType"`
	TargetID   string          `json:"targetId,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// Auditor records audit events. Implementations must not fail the calling operation.
type Auditor interface {
	LogEvent(ctx context.Context, event *Event)
	IsEnabled() bool
}

// Publisher appends a flat entry to a stream
type Publisher interface {
	PublishEvent(ctx context.Context, streamName string, maxLen int64, data map[string]interface{}) (string, error)
}

// DefaultStream is the Redis stream audit events are appended to
const DefaultStream = "portal:audit"

// StreamAuditor appends events to a Redis stream
type StreamAuditor struct {
	publisher Publisher
	stream    string
	maxLen    int64
	timeout   time.Duration
}

// NewStreamAuditor creates an auditor writing to the given stream
func NewStreamAuditor(publisher Publisher, stream string) *StreamAuditor {
	if stream == "" {
		stream = DefaultStream
	}
	return &StreamAuditor{publisher: publisher, stream: stream, maxLen: 100000, timeout: 2 * time.Second}
}

// IsEnabled returns whether events are being recorded
func (a *StreamAuditor) IsEnabled() bool {
	return a != nil && a.publisher != nil
}

// LogEvent appends the event; failures are logged and swallowed
func (a *StreamAuditor) LogEvent(ctx context.Context, event *Event) {
	if !a.IsEnabled() || event == nil {
		return
	}
	if event.Timestamp == "" {
		event.Timestamp = CurrentTimestamp()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()

	values := map[string]interface{}{
		"timestamp":  event.Timestamp,
		"action":     event.Action,
		"status":     event.Status,
		"actorId":    event.ActorID,
		"targetType": event.TargetType,
		"targetId":   event.TargetID,
	}
	if len(event.Metadata) > 0 {
		values["metadata"] = string(event.Metadata)
	}

	if _, err := a.publisher.PublishEvent(ctx, a.stream, a.maxLen, values); err != nil {
		slog.Error("Failed to record audit event", "action", event.Action, "error", err)
	}
}

// NoopAuditor discards every event
type NoopAuditor struct{}

func (NoopAuditor) LogEvent(ctx context.Context, event *Event) {}

func (NoopAuditor) IsEnabled() bool { return false }

// Record builds and logs an event in one call
func Record(ctx context.Context, auditor Auditor, action, actorID, targetType, targetID string, err error, metadata map[string]interface{}) {
	if auditor == nil || !auditor.IsEnabled() {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
		if metadata == nil {
			metadata = map[string]interface{}{}
		}
		metadata["error"] = err.Error()
	}
	auditor.LogEvent(ctx, &Event{
		Action:     action,
		Status:     status,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Metadata:   MarshalMetadata(metadata),
	})
}

// MarshalMetadata encodes metadata for an event; "{}" when it cannot be encoded, nil when absent
func MarshalMetadata(metadata map[string]interface{}) json.RawMessage {
	if metadata == nil {
		return nil
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		slog.Error("Failed to marshal audit metadata", "error", err)
		return json.RawMessage("{}")
	}
	return encoded
}

// CurrentTimestamp returns the current UTC time in RFC3339
func CurrentTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
