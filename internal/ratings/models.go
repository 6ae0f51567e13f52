package ratings

import (
	"time"

	"github.com/google/uuid"
)

// Rating is a per-delivery rating from one party about the other. A sender
// rates overall + timeliness + communication + handling; a courier rates
// overall only (§6 POST /deliveries/{id}/rate).
type Rating struct {
	ID            uuid.UUID `json:"id" db:"id"`
	DeliveryID    uuid.UUID `json:"delivery_id" db:"delivery_id"`
	RaterID       uuid.UUID `json:"rater_id" db:"rater_id"`
	RateeID       uuid.UUID `json:"ratee_id" db:"ratee_id"`
	RaterIsSender bool      `json:"rater_is_sender" db:"rater_is_sender"`
	Overall       int       `json:"overall" db:"overall"`
	Timeliness    *int      `json:"timeliness,omitempty" db:"timeliness"`
	Communication *int      `json:"communication,omitempty" db:"communication"`
	Handling      *int      `json:"handling,omitempty" db:"handling"`
	Feedback      *string   `json:"feedback,omitempty" db:"feedback"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
