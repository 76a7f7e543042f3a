package amqp

import (
	"encoding/json"
	"time"
)

// RunCompletedMessage announces the end of a download or upload run.
type RunCompletedMessage struct {
	RunID       string    `json:"run_id"`
	Kind        string    `json:"kind"`
	Plan        string    `json:"plan"`
	Loaded      int       `json:"loaded"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Rows        int       `json:"rows"`
	Withdrawals string    `json:"withdrawals,omitempty"`
	Deposits    string    `json:"deposits,omitempty"`
	Error       string    `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRunCompletedMessage stamps a message with the current time.
func NewRunCompletedMessage(runID, kind, plan string) *RunCompletedMessage {
	return &RunCompletedMessage{
		RunID:     runID,
		Kind:      kind,
		Plan:      plan,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunCompletedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunCompletedMessageFromJSON creates a message from JSON bytes
func RunCompletedMessageFromJSON(data []byte) (*RunCompletedMessage, error) {
	var msg RunCompletedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
