package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/anonymousminati/finly-backend/pkg/logger"
)

// Envelope is the wire format for every domain event this service publishes.
// Name doubles as the topic. Subject identifies the entity the event is
// about and keys the partition, so all events for one subject arrive in
// order.
type Envelope struct {
	ID            string          `json:"event_id"`
	Name          string          `json:"event_type"`
	Subject       string          `json:"subject_id"`
	SubjectKind   string          `json:"subject_kind"`
	Source        string          `json:"source"`
	OccurredAt    time.Time       `json:"occurred_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Seal wraps payload in an Envelope, stamping a fresh event ID, the current
// time, and the correlation ID carried by ctx when the event originates from
// an HTTP request.
func Seal(ctx context.Context, name, subject, subjectKind, source string, payload any) (*Envelope, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", name, err)
	}

	return &Envelope{
		ID:            uuid.New().String(),
		Name:          name,
		Subject:       subject,
		SubjectKind:   subjectKind,
		Source:        source,
		OccurredAt:    time.Now().UTC(),
		CorrelationID: logger.CorrelationIDFromContext(ctx),
		Payload:       body,
	}, nil
}

// Marshal serializes the envelope for the wire.
func (e *Envelope) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
