package delivery

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestHandler wires a Handler to a Service backed by mocked collaborators,
// with a userID already injected into gin's context the way
// middleware.AuthMiddlewareWithProvider does.
func newTestHandler(repo *mockRepo, pay *mockPayments, ledger *mockLedger) (*Handler, *gin.Engine) {
	svc := NewService(repo, pay, ledger, nil, nil, nil)
	h := NewHandler(svc)

	r := gin.New()
	return h, r
}

func withUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func TestGetEstimate_ReturnsBreakdown(t *testing.T) {
	repo := &mockRepo{}
	h, r := newTestHandler(repo, nil, nil)
	r.Use(withUser(uuid.New()))
	r.POST("/estimate", h.GetEstimate)

	pkgID := uuid.New()
	repo.On("GetPackageType", mock.Anything, pkgID).Return(&PackageType{ID: pkgID, BasePrice: 5.0, MaxWeightKg: 10.0}, nil)

	body, _ := json.Marshal(EstimateRequest{
		PickupLatitude: 37.7749, PickupLongitude: -122.4194,
		DropoffLatitude: 37.8044, DropoffLongitude: -122.2712,
		PackageTypeID: pkgID, Priority: PriorityStandard,
	})
	req := httptest.NewRequest(http.MethodPost, "/estimate", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestGetEstimate_RejectsInvalidBody(t *testing.T) {
	h, r := newTestHandler(&mockRepo{}, nil, nil)
	r.Use(withUser(uuid.New()))
	r.POST("/estimate", h.GetEstimate)

	req := httptest.NewRequest(http.MethodPost, "/estimate", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDelivery_RejectsInvalidID(t *testing.T) {
	userID := uuid.New()
	h, r := newTestHandler(&mockRepo{}, nil, nil)
	r.Use(withUser(userID))
	r.GET("/deliveries/:id", h.GetDelivery)

	req := httptest.NewRequest(http.MethodGet, "/deliveries/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDelivery_ForbidsNonParticipant(t *testing.T) {
	repo := &mockRepo{}
	userID := uuid.New()
	deliveryID := uuid.New()
	otherSender := uuid.New()

	repo.On("GetDeliveryByID", mock.Anything, deliveryID).Return(&Delivery{ID: deliveryID, SenderID: otherSender, Status: StatusPending}, nil)

	h, r := newTestHandler(repo, nil, nil)
	r.Use(withUser(userID))
	r.GET("/deliveries/:id", h.GetDelivery)

	req := httptest.NewRequest(http.MethodGet, "/deliveries/"+deliveryID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestClaimDelivery_ConflictOnLostRace(t *testing.T) {
	repo := &mockRepo{}
	courierID := uuid.New()
	deliveryID := uuid.New()
	repo.On("ClaimDelivery", mock.Anything, deliveryID, courierID).Return(false, nil)

	h, r := newTestHandler(repo, nil, nil)
	r.Use(withUser(courierID))
	r.POST("/courier/deliveries/:id/claim", h.ClaimDelivery)

	req := httptest.NewRequest(http.MethodPost, "/courier/deliveries/"+deliveryID.String()+"/claim", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAdvanceDelivery_RejectsMissingStatus(t *testing.T) {
	courierID := uuid.New()
	deliveryID := uuid.New()
	h, r := newTestHandler(&mockRepo{}, nil, nil)
	r.Use(withUser(courierID))
	r.POST("/courier/deliveries/:id/status", h.AdvanceDelivery)

	req := httptest.NewRequest(http.MethodPost, "/courier/deliveries/"+deliveryID.String()+"/status", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCancelDelivery_Success(t *testing.T) {
	repo := &mockRepo{}
	pay := &mockPayments{}
	senderID := uuid.New()
	deliveryID := uuid.New()

	repo.On("GetDeliveryByID", mock.Anything, deliveryID).Return(&Delivery{ID: deliveryID, SenderID: senderID, Status: StatusPending}, nil)
	repo.On("AdvanceStatus", mock.Anything, deliveryID, StatusCancelled, mock.Anything).Return(nil)
	pay.On("AuthorizedAmount", mock.Anything, deliveryID).Return(12.82, nil)
	pay.On("RefundDelivery", mock.Anything, deliveryID, mock.Anything, mock.Anything).Return(nil)

	h, r := newTestHandler(repo, pay, nil)
	r.Use(withUser(senderID))
	r.POST("/deliveries/:id/cancel", h.CancelDelivery)

	body, _ := json.Marshal(map[string]string{"reason": "no longer needed"})
	req := httptest.NewRequest(http.MethodPost, "/deliveries/"+deliveryID.String()+"/cancel", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}
