package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------------------------------------------------------------------------
// ValidateEmail
// ---------------------------------------------------------------------------

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name   string
		email  string
		expect bool
	}{
		{"valid simple", "user@example.com", true},
		{"valid with dots", "first.last@example.com", true},
		{"valid with plus", "user+tag@example.com", true},
		{"valid with hyphen domain", "user@my-domain.com", true},
		{"valid subdomain", "user@sub.domain.com", true},
		{"empty string", "", false},
		{"whitespace only", "   ", false},
		{"missing at sign", "userexample.com", false},
		{"missing domain", "user@", false},
		{"missing local part", "@example.com", false},
		{"no TLD", "user@example", false},
		{"with leading space trimmed", " user@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ValidateEmail(tt.email))
		})
	}
}

// ---------------------------------------------------------------------------
// ValidatePhoneNumber
// ---------------------------------------------------------------------------

func TestValidatePhoneNumber(t *testing.T) {
	tests := []struct {
		name   string
		phone  string
		expect bool
	}{
		{"valid E.164", "+14155552671", true},
		{"valid without plus", "14155552671", true},
		{"valid short", "+3315551234", true},
		{"empty", "", false},
		{"leading zero", "+04155552671", false},
		{"letters", "+1415CALLNOW", false},
		{"too long", "+141555526711234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expect, ValidatePhoneNumber(tt.phone))
		})
	}
}

// ---------------------------------------------------------------------------
// ValidateCoordinates
// ---------------------------------------------------------------------------

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name      string
		lat, lng  float64
		expectErr bool
	}{
		{"valid SF", 37.7749, -122.4194, false},
		{"valid equator", 0, 0, false},
		{"valid poles", 90, 180, false},
		{"lat too high", 90.1, 0, true},
		{"lat too low", -90.1, 0, true},
		{"lng too high", 0, 180.1, true},
		{"lng too low", 0, -180.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCoordinates(tt.lat, tt.lng)
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ValidateDistance / ValidateAmount / ValidateRating / ValidateStringLength
// ---------------------------------------------------------------------------

func TestValidateDistance(t *testing.T) {
	assert.NoError(t, ValidateDistance(0))
	assert.NoError(t, ValidateDistance(1.44))
	assert.NoError(t, ValidateDistance(9999))
	assert.Error(t, ValidateDistance(-0.1))
	assert.Error(t, ValidateDistance(10001))
}

func TestValidateAmount(t *testing.T) {
	assert.NoError(t, ValidateAmount(0))
	assert.NoError(t, ValidateAmount(12.82))
	assert.Error(t, ValidateAmount(-1))
	assert.Error(t, ValidateAmount(100001))
}

func TestValidateRating(t *testing.T) {
	for r := 1; r <= 5; r++ {
		assert.NoError(t, ValidateRating(r))
	}
	assert.Error(t, ValidateRating(0))
	assert.Error(t, ValidateRating(6))
}

func TestValidateStringLength(t *testing.T) {
	assert.NoError(t, ValidateStringLength("hello", 1, 10))
	assert.NoError(t, ValidateStringLength("  trimmed  ", 1, 10))
	assert.Error(t, ValidateStringLength("", 1, 10))
	assert.Error(t, ValidateStringLength("toolongstring", 1, 5))
}

func TestValidateUUID(t *testing.T) {
	assert.True(t, ValidateUUID("550e8400-e29b-41d4-a716-446655440000"))
	assert.False(t, ValidateUUID("not-a-uuid"))
	assert.False(t, ValidateUUID(""))
}

// ---------------------------------------------------------------------------
// ValidateDateRange
// ---------------------------------------------------------------------------

func TestValidateDateRange(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		start     time.Time
		end       time.Time
		expectErr bool
	}{
		{"end after start", now, now.Add(time.Hour), false},
		{"same time", now, now, false},
		{"end before start", now.Add(time.Hour), now, true},
		{"large gap", now, now.Add(365 * 24 * time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDateRange(tt.start, tt.end)
			if tt.expectErr {
				assert.Error(t, err)
				vErr, ok := err.(*ValidationError)
				require.True(t, ok)
				_, exists := vErr.GetFieldError("date_range")
				assert.True(t, exists)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// ValidationError methods
// ---------------------------------------------------------------------------

func TestValidationError_Error(t *testing.T) {
	ve := &ValidationError{
		Errors: map[string]string{
			"email": "email is required",
		},
	}

	assert.Contains(t, ve.Error(), "email: email is required")
}

func TestValidationError_AddError(t *testing.T) {
	ve := &ValidationError{}
	ve.AddError("field1", "error1")

	assert.NotNil(t, ve.Errors)
	msg, exists := ve.GetFieldError("field1")
	assert.True(t, exists)
	assert.Equal(t, "error1", msg)
}

func TestValidationError_HasErrors(t *testing.T) {
	ve := &ValidationError{Errors: make(map[string]string)}
	assert.False(t, ve.HasErrors())

	ve.AddError("x", "y")
	assert.True(t, ve.HasErrors())
}

// ---------------------------------------------------------------------------
// ValidateDeliveryLeg / ValidateScheduledPickup
// ---------------------------------------------------------------------------

func TestValidateDeliveryLeg_Valid(t *testing.T) {
	leg := DeliveryLeg{
		PickupLatitude: 37.7897, PickupLongitude: -122.3972,
		DropoffLatitude: 37.7663, DropoffLongitude: -122.4005,
	}
	assert.NoError(t, ValidateDeliveryLeg(leg))
}

func TestValidateDeliveryLeg_SamePickupDropoff(t *testing.T) {
	leg := DeliveryLeg{
		PickupLatitude: 37.7897, PickupLongitude: -122.3972,
		DropoffLatitude: 37.7897, DropoffLongitude: -122.3972,
	}
	err := ValidateDeliveryLeg(leg)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	_, exists := vErr.GetFieldError("location")
	assert.True(t, exists)
}

func TestValidateDeliveryLeg_OutOfRange(t *testing.T) {
	leg := DeliveryLeg{
		PickupLatitude: 99, PickupLongitude: -122.3972,
		DropoffLatitude: 37.7663, DropoffLongitude: -122.4005,
	}
	assert.Error(t, ValidateDeliveryLeg(leg))
}

func TestValidateScheduledPickup(t *testing.T) {
	assert.NoError(t, ValidateScheduledPickup(nil))

	future := time.Now().Add(time.Hour)
	assert.NoError(t, ValidateScheduledPickup(&future))

	past := time.Now().Add(-time.Hour)
	assert.Error(t, ValidateScheduledPickup(&past))
}

// ---------------------------------------------------------------------------
// Custom tag validators via ValidateStruct
// ---------------------------------------------------------------------------

func TestValidateStruct_DeliveryStatusTag(t *testing.T) {
	type req struct {
		Status string `validate:"required,delivery_status"`
	}

	for _, status := range []string{
		"pending", "searching_courier", "courier_assigned", "en_route_to_pickup",
		"approaching_pickup", "at_pickup", "picked_up", "in_transit",
		"approaching_dropoff", "at_dropoff", "delivered", "cancelled", "failed", "returned",
	} {
		assert.NoError(t, ValidateStruct(&req{Status: status}), status)
	}

	assert.Error(t, ValidateStruct(&req{Status: "teleporting"}))
}

func TestValidateStruct_DeliveryPriorityTag(t *testing.T) {
	type req struct {
		Priority string `validate:"required,delivery_priority"`
	}

	for _, p := range []string{"standard", "express", "urgent"} {
		assert.NoError(t, ValidateStruct(&req{Priority: p}), p)
	}

	assert.Error(t, ValidateStruct(&req{Priority: "scheduled"}))
}

func TestValidateStruct_UserRoleTag(t *testing.T) {
	type req struct {
		Role string `validate:"required,user_role"`
	}

	for _, role := range []string{"sender", "courier", "admin"} {
		assert.NoError(t, ValidateStruct(&req{Role: role}), role)
	}

	assert.Error(t, ValidateStruct(&req{Role: "rider"}))
}

func TestValidateStruct_PaymentMethodTag(t *testing.T) {
	type req struct {
		Method string `validate:"required,payment_method"`
	}

	for _, m := range []string{"card", "wallet", "cash"} {
		assert.NoError(t, ValidateStruct(&req{Method: m}), m)
	}

	assert.Error(t, ValidateStruct(&req{Method: "barter"}))
}
