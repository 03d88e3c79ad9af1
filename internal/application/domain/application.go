package domain

import (
	"strings"
	"time"
)

// Application is a prospective user's request for access to named services.
// Submitted from the public intake endpoint, decided by an administrator
// (or denied outright at intake by the screening policy).
type Application struct {
	ID        string
	Name      string
	Email     string
	Services  []string // requested service codes
	IP        string   // source address at submission
	Status    Status
	Note      string // screening or decision note
	CreatedAt time.Time
	DecidedAt *time.Time
	DecidedBy string // admin user id; empty for policy decisions
}

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

// ServicesCSV returns the requested codes as a comma-separated string for
// storage.
func (a *Application) ServicesCSV() string {
	return strings.Join(a.Services, ",")
}

// ParseServicesCSV splits a stored comma-separated service list.
func ParseServicesCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if c := strings.TrimSpace(p); c != "" {
			out = append(out, c)
		}
	}
	return out
}
