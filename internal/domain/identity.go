package domain

import (
	"strings"
	"time"
)

// Identity is a signed-in user as delivered by the auth provider.
type Identity struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

// Label is the display name, falling back to the email, then the id.
func (i Identity) Label() string {
	return CoalesceStr(strings.TrimSpace(i.DisplayName), i.Email, i.ID)
}

// LoginRecord is the cached last sign-in.
type LoginRecord struct {
	Identity   Identity
	SignedInAt time.Time
}

// SyncStatus records the most recent sync outcome for one identity.
type SyncStatus struct {
	Namespace          string
	Outcome            string
	LocalLastModified  int64
	RemoteLastModified int64
	Message            string
	SyncedAt           time.Time
}

// RemoteDocument is the stored form of one per-user remote envelope.
type RemoteDocument struct {
	UID          string
	Payload      string
	LastModified int64
	UpdatedAt    int64
	DeviceID     string
}
