package trackinglinks

import (
	"time"

	"github.com/google/uuid"
)

// tokenExpiry is how long an issued token stays valid (§4.9): 7 days from
// issuance, never extended, never reissued.
const tokenExpiry = 7 * 24 * time.Hour

// TrackingToken is an opaque lookup row granting a package sender or
// recipient read-only access to a delivery, plus chat-write scope on it,
// without a user account (§3, §4.9).
type TrackingToken struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	DeliveryID     uuid.UUID  `json:"delivery_id" db:"delivery_id"`
	Token          string     `json:"token" db:"token"`
	IsRecipient    bool       `json:"is_recipient" db:"is_recipient"`
	ExpiresAt      time.Time  `json:"expires_at" db:"expires_at"`
	AccessCount    int        `json:"access_count" db:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty" db:"last_accessed_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// Expired reports whether t can no longer be validated (§8 invariant 6).
func (t *TrackingToken) Expired() bool {
	return time.Now().After(t.ExpiresAt)
}
