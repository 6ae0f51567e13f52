package validation

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is the global validator instance
	Validate *validator.Validate

	// Common regex patterns
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`) // E.164 format
)

func init() {
	Validate = validator.New()

	// Register custom validators
	_ = Validate.RegisterValidation("latitude", validateLatitude)
	_ = Validate.RegisterValidation("longitude", validateLongitude)
	_ = Validate.RegisterValidation("phone", validatePhone)
	_ = Validate.RegisterValidation("delivery_status", validateDeliveryStatus)
	_ = Validate.RegisterValidation("delivery_priority", validateDeliveryPriority)
	_ = Validate.RegisterValidation("payment_method", validatePaymentMethod)
	_ = Validate.RegisterValidation("user_role", validateUserRole)
}

// ValidationError collects per-field validation failures.
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

// NewValidationError converts validator.ValidationErrors into a ValidationError.
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string, len(errs))}
	for _, fieldErr := range errs {
		field := strings.ToLower(fieldErr.Field())
		ve.Errors[field] = fmt.Sprintf("failed on the '%s' rule", fieldErr.Tag())
	}
	return ve
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	parts := make([]string, 0, len(v.Errors))
	for field, msg := range v.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// AddError records a failure for a field.
func (v *ValidationError) AddError(field, message string) {
	if v.Errors == nil {
		v.Errors = make(map[string]string)
	}
	v.Errors[field] = message
}

// HasErrors reports whether any field failed.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// GetFieldError returns the recorded message for a field, if any.
func (v *ValidationError) GetFieldError(field string) (string, bool) {
	msg, ok := v.Errors[field]
	return msg, ok
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// validateLatitude checks if latitude is within valid range (-90 to 90)
func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

// validateLongitude checks if longitude is within valid range (-180 to 180)
func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}

// validatePhone checks if phone number is in E.164 format
func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	return phoneRegex.MatchString(phone)
}

// validateDeliveryStatus checks that a status names a real lifecycle state
func validateDeliveryStatus(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	validStatuses := []string{
		"pending", "searching_courier", "courier_assigned",
		"en_route_to_pickup", "approaching_pickup", "at_pickup",
		"picked_up", "in_transit", "approaching_dropoff", "at_dropoff",
		"delivered", "cancelled", "failed", "returned",
	}
	return contains(validStatuses, status)
}

// validateDeliveryPriority checks the closed {standard, express, urgent} set
func validateDeliveryPriority(fl validator.FieldLevel) bool {
	priority := fl.Field().String()
	validPriorities := []string{"standard", "express", "urgent"}
	return contains(validPriorities, priority)
}

// validatePaymentMethod checks if payment method is valid
func validatePaymentMethod(fl validator.FieldLevel) bool {
	method := fl.Field().String()
	validMethods := []string{"card", "wallet", "cash"}
	return contains(validMethods, method)
}

// validateUserRole checks if user role is valid
func validateUserRole(fl validator.FieldLevel) bool {
	role := fl.Field().String()
	validRoles := []string{"sender", "courier", "admin"}
	return contains(validRoles, role)
}

// contains checks if a string slice contains a specific string
func contains(slice []string, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	for _, s := range slice {
		if strings.ToLower(strings.TrimSpace(s)) == item {
			return true
		}
	}
	return false
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	email = strings.TrimSpace(email)
	return len(email) > 0 && emailRegex.MatchString(email)
}

// ValidatePhoneNumber validates phone number format
func ValidatePhoneNumber(phone string) bool {
	phone = strings.TrimSpace(phone)
	return phoneRegex.MatchString(phone)
}

// ValidateCoordinates validates latitude and longitude
func ValidateCoordinates(latitude, longitude float64) error {
	if latitude < -90.0 || latitude > 90.0 {
		return fmt.Errorf("latitude must be between -90 and 90, got: %f", latitude)
	}
	if longitude < -180.0 || longitude > 180.0 {
		return fmt.Errorf("longitude must be between -180 and 180, got: %f", longitude)
	}
	return nil
}

// ValidateDistance validates a distance value in miles
func ValidateDistance(distance float64) error {
	if distance < 0 {
		return fmt.Errorf("distance cannot be negative: %f", distance)
	}
	if distance > 10000 {
		return fmt.Errorf("distance exceeds maximum allowed: %f", distance)
	}
	return nil
}

// ValidateAmount validates monetary amount
func ValidateAmount(amount float64) error {
	if amount < 0 {
		return fmt.Errorf("amount cannot be negative: %f", amount)
	}
	if amount > 100000 { // Max $100,000 per transaction
		return fmt.Errorf("amount exceeds maximum allowed: %f", amount)
	}
	return nil
}

// ValidateRating validates rating value (1-5)
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating must be between 1 and 5, got: %d", rating)
	}
	return nil
}

// ValidateStringLength validates string length
func ValidateStringLength(s string, min, max int) error {
	length := len(strings.TrimSpace(s))
	if length < min {
		return fmt.Errorf("string length must be at least %d characters, got: %d", min, length)
	}
	if max > 0 && length > max {
		return fmt.Errorf("string length must be at most %d characters, got: %d", max, length)
	}
	return nil
}

// ValidateUUID validates UUID format
func ValidateUUID(uuid string) bool {
	uuidRegex := regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	return uuidRegex.MatchString(uuid)
}
