package domain

import "time"

// AuditLog represents one security-relevant event: credential issuance,
// revocation, verification failures, application decisions, admin actions.
// Rows are append-only.
type AuditLog struct {
	ID        string
	ActorID   string // empty for unauthenticated events (e.g. failed verify)
	Action    string
	Target    string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
