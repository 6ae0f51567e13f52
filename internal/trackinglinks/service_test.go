package trackinglinks

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byToken map[string]*TrackingToken
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byToken: make(map[string]*TrackingToken)}
}

func (f *fakeRepo) Create(ctx context.Context, t *TrackingToken) error {
	cp := *t
	f.byToken[t.Token] = &cp
	return nil
}

func (f *fakeRepo) GetByToken(ctx context.Context, token string) (*TrackingToken, error) {
	t, ok := f.byToken[token]
	if !ok {
		return nil, assert.AnError
	}
	cp := *t
	return &cp, nil
}

func (f *fakeRepo) RecordAccess(ctx context.Context, id uuid.UUID) error {
	for _, t := range f.byToken {
		if t.ID == id {
			t.AccessCount++
			now := time.Now()
			t.LastAccessedAt = &now
		}
	}
	return nil
}

func TestIssueTokens_DistinctAndBothResolve(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	deliveryID := uuid.New()

	senderToken, recipientToken, err := svc.IssueTokens(context.Background(), deliveryID)
	require.NoError(t, err)
	assert.NotEqual(t, senderToken, recipientToken)

	resolved, err := svc.ResolveToken(context.Background(), senderToken)
	require.NoError(t, err)
	assert.Equal(t, deliveryID, resolved)

	resolved, err = svc.ResolveToken(context.Background(), recipientToken)
	require.NoError(t, err)
	assert.Equal(t, deliveryID, resolved)
}

func TestResolveToken_ExpiredFails(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)
	deliveryID := uuid.New()

	expired := &TrackingToken{ID: uuid.New(), DeliveryID: deliveryID, Token: "stale", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.Create(context.Background(), expired))

	_, err := svc.ResolveToken(context.Background(), "stale")
	assert.Error(t, err)
}

func TestResolveToken_UnknownFails(t *testing.T) {
	repo := newFakeRepo()
	svc := NewService(repo)

	_, err := svc.ResolveToken(context.Background(), "does-not-exist")
	assert.Error(t, err)
}
