package handlers

import (
	"errors"
	"net/http"

	"kohisync_backend/internal/services"
	"kohisync_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// serviceErrorMapping pairs a service sentinel with the response it produces.
type serviceErrorMapping struct {
	target  error
	status  int
	code    string
	message string
}

var serviceErrorMappings = []serviceErrorMapping{
	{services.ErrValidation, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Input validation failed."},
	{services.ErrInvalidDiscountReason, http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid discount reason."},
	{services.ErrEmptyCart, http.StatusBadRequest, utils.ErrCodeBadRequest, "Order must contain at least one item."},
	{services.ErrProductNotSellable, http.StatusBadRequest, utils.ErrCodeBadRequest, "Product is not available at the kiosk."},
	{services.ErrInvalidAdjustment, http.StatusBadRequest, utils.ErrCodeBadRequest, "Adjustment would result in negative stock."},

	{services.ErrInvalidCredentials, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password."},

	{services.ErrProductNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Product not found."},
	{services.ErrOrderNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "Order not found."},
	{services.ErrUserNotFound, http.StatusNotFound, utils.ErrCodeNotFound, "User not found."},
	{services.ErrSessionNotFound, http.StatusNotFound, utils.ErrCodeSessionNotFound, "Session not found or expired."},

	{services.ErrOutOfStock, http.StatusConflict, utils.ErrCodeOutOfStock, "Insufficient stock for one or more items."},
	{services.ErrInsufficientPayment, http.StatusConflict, utils.ErrCodeInsufficientPayment, "Amount paid is less than the order total."},
	{services.ErrOrderNotPending, http.StatusConflict, utils.ErrCodeOrderNotPending, "Order is already completed."},
	{services.ErrUsernameExists, http.StatusConflict, utils.ErrCodeConflict, "Username already exists."},
	{services.ErrProductNameExists, http.StatusConflict, utils.ErrCodeConflict, "A product with this name already exists."},
}

// mapServiceError converts a service error into the API error returned to the client.
// Unknown errors become a 500 without leaking internals.
func mapServiceError(err error, fallback string) *utils.APIError {
	for _, m := range serviceErrorMappings {
		if errors.Is(err, m.target) {
			return utils.NewAPIError(m.status, m.code, m.message, err.Error())
		}
	}
	return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, fallback, "Internal error")
}

// respondServiceError logs err at a level matching its kind and writes the mapped response.
func respondServiceError(c *gin.Context, op string, err error, fallback string) {
	apiErr := mapServiceError(err, fallback)
	switch {
	case apiErr.StatusCode >= http.StatusInternalServerError:
		utils.LogError(err, op+": unexpected error")
	case services.IsBusinessRejection(err):
		utils.LogDebug(op+": request rejected", map[string]interface{}{"reason": err.Error()})
	default:
		utils.LogDebug(op+": invalid request", map[string]interface{}{"reason": err.Error()})
	}
	utils.RespondWithError(c, apiErr)
}

func respondBindError(c *gin.Context, op string, err error) {
	utils.LogDebug(op+": failed to bind request", map[string]interface{}{"error": err.Error()})
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload.", err.Error()))
}

// pathID parses a positive integer path parameter, writing a 400 when it is malformed.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := utils.ParsePositiveID(c.Param(name))
	if err != nil {
		utils.RespondValidationFailed(c, "invalid "+name+": "+err.Error())
		return 0, false
	}
	return id, true
}
