package models

import "time"

type AuditOutcome string

const (
	OutcomeSuccess AuditOutcome = "success"
	OutcomeFailure AuditOutcome = "failure"
)

// AuditEvent records a security-relevant action. It never carries secrets.
type AuditEvent struct {
	ID           string       `json:"id"`
	Time         time.Time    `json:"time"`
	Action       string       `json:"action"`
	ResourceType string       `json:"resource_type,omitempty"`
	ResourceID   int64        `json:"resource_id,omitempty"`
	ActorID      int64        `json:"actor_id,omitempty"`
	ActorEmail   string       `json:"actor_email,omitempty"`
	Outcome      AuditOutcome `json:"outcome"`
	Detail       string       `json:"detail,omitempty"`
	RequestID    string       `json:"request_id,omitempty"`
}
