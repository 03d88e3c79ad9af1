package domain

import "time"

// Entry is one admin-managed IP blocklist row. Active entries cause access
// applications from that IP to be denied at intake.
type Entry struct {
	ID        string
	IP        string
	Reason    string
	Active    bool
	CreatedAt time.Time
}
