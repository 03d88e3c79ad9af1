package audit

import (
	"context"
	"errors"
	"sync"
	"testing"

	"access-portal/internal/audit/domain"
)

type memAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	failing bool
}

func (r *memAuditRepo) GetByID(ctx context.Context, id string) (*domain.AuditLog, error) {
	return nil, nil
}

func (r *memAuditRepo) List(ctx context.Context, limit, offset int32) ([]*domain.AuditLog, error) {
	return r.entries, nil
}

func (r *memAuditRepo) Create(ctx context.Context, a *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failing {
		return errors.New("storage down")
	}
	r.entries = append(r.entries, a)
	return nil
}

func TestLogger_LogEvent(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo, func(context.Context) string { return "203.0.113.7" })

	l.LogEvent(context.Background(), "u1", "device_issued", "credential:c1", `{"label":"laptop"}`)

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	e := repo.entries[0]
	if e.ID == "" {
		t.Error("entry ID not set")
	}
	if e.ActorID != "u1" || e.Action != "device_issued" || e.Target != "credential:c1" {
		t.Errorf("entry = %+v", e)
	}
	if e.IP != "203.0.113.7" {
		t.Errorf("entry IP = %q", e.IP)
	}
}

func TestLogger_NilExtractorRecordsUnknownIP(t *testing.T) {
	repo := &memAuditRepo{}
	l := NewLogger(repo, nil)

	l.LogEvent(context.Background(), "", "device_verify_failed", "credential", "unknown credential")

	if len(repo.entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("IP = %q, want unknown", repo.entries[0].IP)
	}
}

func TestLogger_StorageFailureDoesNotPanicOrPropagate(t *testing.T) {
	repo := &memAuditRepo{failing: true}
	l := NewLogger(repo, nil)

	// Must not panic; the error is swallowed by design.
	l.LogEvent(context.Background(), "u1", "device_revoked", "credential:c1", "")

	if len(repo.entries) != 0 {
		t.Fatal("failing repo should not have recorded entries")
	}
}
