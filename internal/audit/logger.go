// Package audit is the append-only sink for security-relevant events.
// Writes are best-effort: a failed audit write is logged and never propagated
// to the caller, so auditing can never turn a valid request into a failure.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"access-portal/internal/audit/domain"
	auditrepo "access-portal/internal/audit/repository"
)

// IPExtractor returns the client IP for the request in ctx (set by the HTTP
// middleware). May be nil; then IP is recorded as "unknown".
type IPExtractor func(context.Context) string

// AuditLogger records a single event with explicit action and target.
type AuditLogger interface {
	LogEvent(ctx context.Context, actorID, action, target, metadata string)
}

// Logger implements AuditLogger using the audit repository and an optional
// IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuditLogger that persists to repo.
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent appends one audit entry. Best-effort: errors are logged and not
// returned.
func (l *Logger) LogEvent(ctx context.Context, actorID, action, target, metadata string) {
	if l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, target, err)
	}
}
