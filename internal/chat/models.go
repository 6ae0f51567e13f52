package chat

import (
	"time"

	"github.com/google/uuid"
)

// SenderType classifies who authored a Message (§4.5).
type SenderType string

const (
	SenderTypeSender    SenderType = "sender"
	SenderTypeCourier   SenderType = "courier"
	SenderTypeRecipient SenderType = "recipient"
)

// Message is a single per-delivery chat entry. SenderID is nil when
// SenderType is SenderTypeRecipient — a tracking-token holder has no
// platform identity.
type Message struct {
	ID            uuid.UUID  `json:"id" db:"id"`
	DeliveryID    uuid.UUID  `json:"delivery_id" db:"delivery_id"`
	SenderID      *uuid.UUID `json:"sender_id,omitempty" db:"sender_id"`
	SenderType    SenderType `json:"sender_type" db:"sender_type"`
	RecipientID   uuid.UUID  `json:"recipient_id" db:"recipient_id"`
	Content       string     `json:"content" db:"content"`
	AttachmentURL *string    `json:"attachment_url,omitempty" db:"attachment_url"`
	IsRead        bool       `json:"is_read" db:"is_read"`
	ReadAt        *time.Time `json:"read_at,omitempty" db:"read_at"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}

// SendMessageRequest is the body of POST /messages/{delivery_id}.
type SendMessageRequest struct {
	Content       string  `json:"content" binding:"required"`
	AttachmentURL *string `json:"attachment_url,omitempty"`
}
