package validation

import "time"

// Cross-field rules shared by the HTTP handlers; the per-field tags live on
// the handlers' own request structs.

// DeliveryLeg carries the two endpoints of a prospective delivery for
// validation before any pricing or persistence work happens.
type DeliveryLeg struct {
	PickupLatitude   float64 `json:"pickup_latitude" validate:"latitude"`
	PickupLongitude  float64 `json:"pickup_longitude" validate:"longitude"`
	DropoffLatitude  float64 `json:"dropoff_latitude" validate:"latitude"`
	DropoffLongitude float64 `json:"dropoff_longitude" validate:"longitude"`
}

// ValidateDeliveryLeg validates both endpoints and rejects a zero-length leg.
func ValidateDeliveryLeg(leg DeliveryLeg) error {
	if err := ValidateStruct(&leg); err != nil {
		return err
	}

	validationErr := &ValidationError{Errors: make(map[string]string)}
	if leg.PickupLatitude == leg.DropoffLatitude && leg.PickupLongitude == leg.DropoffLongitude {
		validationErr.AddError("location", "Pickup and dropoff locations cannot be the same")
	}
	if validationErr.HasErrors() {
		return validationErr
	}
	return nil
}

// ValidateScheduledPickup rejects a scheduled pickup time in the past.
func ValidateScheduledPickup(scheduledFor *time.Time) error {
	if scheduledFor != nil && scheduledFor.Before(time.Now()) {
		return &ValidationError{
			Errors: map[string]string{
				"scheduled_pickup_at": "Scheduled pickup must be in the future",
			},
		}
	}
	return nil
}

// ValidateDateRange validates that end date is after start date
func ValidateDateRange(start, end time.Time) error {
	if end.Before(start) {
		return &ValidationError{
			Errors: map[string]string{
				"date_range": "End date must be after start date",
			},
		}
	}
	return nil
}
