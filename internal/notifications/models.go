package notifications

import (
	"time"

	"github.com/google/uuid"
)

// Notification is a persisted record of a single in-app notification.
// Delivery to an external carrier (push, SMS, email) is out of scope —
// C7 owns only the persist+publish contract (§1 non-goals).
type Notification struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	Kind       string     `json:"kind" db:"kind"`
	Title      string     `json:"title" db:"title"`
	Content    string     `json:"content" db:"content"`
	DeliveryID *uuid.UUID `json:"delivery_id,omitempty" db:"delivery_id"`
	ReadAt     *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
