package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// compensationMessage is the wire shape a CompensationEvent takes when
// published to a queue: flat fields, no nested Funding union, since a
// consumer only needs enough to locate and unwind the saga.
type compensationMessage struct {
	Event     string         `json:"event"`
	SagaID    string         `json:"sagaId"`
	Reason    string         `json:"reason"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// ToJSON serializes a compensationMessage to JSON bytes.
func (m *compensationMessage) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal compensation message: %w", err)
	}
	return data, nil
}

// fromJSONCompensation deserializes and validates a compensationMessage.
func fromJSONCompensation(data []byte) (*compensationMessage, error) {
	msg := &compensationMessage{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal compensation message: %w", err)
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

// Validate checks that a compensationMessage carries everything a
// consumer needs to act on it.
func (m *compensationMessage) Validate() error {
	if m.Event == "" {
		return errors.New("event is required")
	}
	if m.SagaID == "" {
		return errors.New("sagaId is required")
	}
	if m.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}
