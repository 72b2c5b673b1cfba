package services

import "errors"

// --- Custom Service Errors ---
var (
	ErrValidation = errors.New("validation error")

	// Not found.
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrSessionNotFound = errors.New("kiosk session not found, expired or already submitted")
	ErrUserNotFound    = errors.New("user not found")

	// Business rule rejections. These are expected outcomes, not system failures.
	ErrProductNotSellable    = errors.New("product is not available to kiosk customers")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrInvalidDiscountReason = errors.New("invalid discount reason")
	ErrInsufficientPayment   = errors.New("amount paid is less than the order total")
	ErrOutOfStock            = errors.New("insufficient stock")
	ErrInvalidAdjustment     = errors.New("stock adjustment would make stock negative")
	ErrOrderNotPending       = errors.New("order is not pending")

	// Auth.
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrProductNameExists  = errors.New("product name already exists")
)

// IsBusinessRejection reports whether err is an expected state-conflict outcome that should
// not be logged as a failure.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrOutOfStock) ||
		errors.Is(err, ErrInsufficientPayment) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrOrderNotPending) ||
		errors.Is(err, ErrInvalidAdjustment) ||
		errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrProductNotSellable)
}
