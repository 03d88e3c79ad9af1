package domain

import "time"

// Service is an entry in the catalog of offerings users can request access
// to (e.g. minecraft, media, nextcloud).
type Service struct {
	Code      string // stable identifier carried in token claims
	Name      string
	CreatedAt time.Time
}

// Grant entitles a user to one service. The set of a user's grants is the
// entitlement list embedded in every device token minted for them.
type Grant struct {
	ID          string
	UserID      string
	ServiceCode string
	CreatedAt   time.Time
}
