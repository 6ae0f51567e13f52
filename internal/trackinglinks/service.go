package trackinglinks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/common"
	"github.com/VersaceXcodes/urgent-same-day-delivery-vux0mw/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service is C12 TrackingLinks: it issues the two opaque tokens a delivery
// gets at creation and validates a token string back to a delivery ID,
// bumping the row's access counter on every successful validation.
type Service struct {
	repo Repository
}

// NewService wires a Service to its Store.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// IssueTokens creates the sender-side and recipient-side tokens for a
// newly created delivery. Both expire 7 days from issuance and are never
// reissued — only deleted to revoke (§4.9).
func (s *Service) IssueTokens(ctx context.Context, deliveryID uuid.UUID) (senderToken, recipientToken string, err error) {
	expiresAt := time.Now().Add(tokenExpiry)

	senderToken, err = generateToken()
	if err != nil {
		return "", "", common.NewInternalError("failed to generate tracking token", err)
	}
	if err := s.repo.Create(ctx, &TrackingToken{
		ID:          uuid.New(),
		DeliveryID:  deliveryID,
		Token:       senderToken,
		IsRecipient: false,
		ExpiresAt:   expiresAt,
	}); err != nil {
		return "", "", common.NewInternalError("failed to persist sender tracking token", err)
	}

	recipientToken, err = generateToken()
	if err != nil {
		return "", "", common.NewInternalError("failed to generate tracking token", err)
	}
	if err := s.repo.Create(ctx, &TrackingToken{
		ID:          uuid.New(),
		DeliveryID:  deliveryID,
		Token:       recipientToken,
		IsRecipient: true,
		ExpiresAt:   expiresAt,
	}); err != nil {
		return "", "", common.NewInternalError("failed to persist recipient tracking token", err)
	}

	return senderToken, recipientToken, nil
}

// ResolveToken validates a token string and returns the delivery it is
// bound to. Expired tokens always fail (§8 invariant 6). A failed access
// bump is logged and swallowed — it must not turn a valid read into an
// error.
func (s *Service) ResolveToken(ctx context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, common.NewUnauthorizedError("tracking token required")
	}

	t, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return uuid.Nil, common.NewUnauthorizedError("invalid tracking token")
	}
	if t.Expired() {
		return uuid.Nil, common.NewUnauthorizedError("tracking token expired")
	}

	if err := s.repo.RecordAccess(ctx, t.ID); err != nil {
		logger.Warn("record tracking token access failed", zap.Error(err))
	}

	return t.DeliveryID, nil
}

// generateToken produces a 32-byte random hex string, the same
// crypto/rand-backed idiom internal/delivery uses for its verification
// codes, scaled up for an unguessable URL token.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
