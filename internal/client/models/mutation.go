package models

import (
	"encoding/json"
	"time"
)

// Operation is the kind of change a queued mutation represents.
type Operation string

const (
	OpCreate Operation = "CREATE"
	OpUpdate Operation = "UPDATE"
)

// Mutation is a locally-originated change awaiting confirmation by the
// remote service. The OfflineID doubles as the idempotency key: the remote
// treats a repeated OfflineID as a no-op success, which is what makes
// retries safe.
type Mutation struct {
	OfflineID  string          `json:"offlineId"`
	EntityType EntityType      `json:"entityType"`
	Operation  Operation       `json:"operation"`
	Payload    json.RawMessage `json:"payload"`

	ClientCreatedAt time.Time `json:"clientCreatedAt"`

	RetryCount int    `json:"retryCount"`
	LastError  string `json:"lastError,omitempty"`

	// Terminal marks a mutation that exhausted its retries (or was rejected
	// by validation). Terminal mutations are excluded from automatic upload
	// until the user explicitly retries or edits them; they are never
	// silently dropped.
	Terminal bool `json:"terminal"`
}
