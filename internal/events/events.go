package events

import (
	"time"

	"github.com/google/uuid"
)

// Kafka topics
const (
	TopicAttemptSubmitted = "exam.attempt.submitted"
	TopicAttemptStarted   = "exam.attempt.started"
	TopicPaymentReceived  = "billing.payment.received"
)

const (
	eventSource  = "exam-service"
	eventVersion = "1.0"
)

// Event is the envelope every published message carries
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope around a payload
func NewEvent(eventType string, data interface{}) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    eventSource,
		Version:   eventVersion,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// AttemptStartedEvent is emitted when a new attempt is created. Idempotent
// start replays (returning an existing attempt) do not emit it.
type AttemptStartedEvent struct {
	AttemptID uint      `json:"attempt_id"`
	ExamID    uint      `json:"exam_id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// AttemptSubmittedEvent is emitted exactly once per attempt, by the
// submission that wins the compare-and-set
type AttemptSubmittedEvent struct {
	AttemptID    uint      `json:"attempt_id"`
	ExamID       uint      `json:"exam_id"`
	UserID       string    `json:"user_id"`
	ScorePercent float64   `json:"score_percent"`
	Passed       bool      `json:"passed"`
	SubmitReason string    `json:"submit_reason"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// PaymentReceivedEvent is emitted after a provider webhook is ingested and a
// subscription granted
type PaymentReceivedEvent struct {
	PaymentEventID uint      `json:"payment_event_id"`
	Provider       string    `json:"provider"`
	UserID         string    `json:"user_id"`
	ProductID      uint      `json:"product_id"`
	AmountCents    int64     `json:"amount_cents"`
	Currency       string    `json:"currency"`
	ReceivedAt     time.Time `json:"received_at"`
}
