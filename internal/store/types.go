package store

import (
	"encoding/json"
	"time"
)

// ValidationRecord is one validation attempt: whether the payload passed and,
// if not, the full violation list as reported to the caller.
type ValidationRecord struct {
	ID             string          `json:"id"`
	PayloadID      string          `json:"payload_id,omitempty"`
	Valid          bool            `json:"valid"`
	ViolationCount int             `json:"violation_count"`
	Violations     json.RawMessage `json:"violations,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// DispatchRecord is one dispatch attempt with its classified outcome.
type DispatchRecord struct {
	ID         string          `json:"id"`
	Operation  string          `json:"operation"`
	Status     string          `json:"status"`
	ExecutorOK bool            `json:"executor_ok"`
	Error      string          `json:"error,omitempty"`
	Violations json.RawMessage `json:"violations,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Document is a validated payload persisted by the payload.store operation.
type Document struct {
	ID         string         `json:"id"`
	Collection string         `json:"collection"`
	Body       map[string]any `json:"body"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Flag is a review flag raised by the payload.flag operation.
type Flag struct {
	ID        string         `json:"id"`
	Reason    string         `json:"reason"`
	Severity  string         `json:"severity"`
	Details   map[string]any `json:"details,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
