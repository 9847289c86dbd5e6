package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/paynest/internal/audit/domain"
	balancedomain "github.com/smallbiznis/paynest/internal/balance/domain"
	contractdomain "github.com/smallbiznis/paynest/internal/contract/domain"
	customerdomain "github.com/smallbiznis/paynest/internal/customer/domain"
	debtordomain "github.com/smallbiznis/paynest/internal/debtor/domain"
	overviewdomain "github.com/smallbiznis/paynest/internal/overview/domain"
	paymentdomain "github.com/smallbiznis/paynest/internal/payment/domain"
	prepaiddomain "github.com/smallbiznis/paynest/internal/prepaid/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var notFoundErrors = []error{
	customerdomain.ErrCustomerNotFound,
	customerdomain.ErrEmployeeNotFound,
	contractdomain.ErrContractNotFound,
	paymentdomain.ErrPaymentNotFound,
	prepaiddomain.ErrRecordNotFound,
	balancedomain.ErrBalanceNotFound,
}

var validationErrors = []error{
	customerdomain.ErrInvalidCustomer,
	contractdomain.ErrInvalidContract,
	paymentdomain.ErrInvalidPayment,
	prepaiddomain.ErrInvalidRecord,
	balancedomain.ErrInvalidMethod,
	overviewdomain.ErrInvalidMonth,
	overviewdomain.ErrInvalidFilter,
	debtordomain.ErrNoContracts,
	auditdomain.ErrInvalidAction,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidTimeRange,
}

var conflictErrors = []error{
	contractdomain.ErrDuplicateCustomID,
	paymentdomain.ErrPaymentNotPending,
	paymentdomain.ErrPaymentNotPaid,
}

func mapError(err error) (int, errorPayload) {
	for _, sentinel := range validationErrors {
		if errors.Is(err, sentinel) {
			return http.StatusBadRequest, errorPayload{Type: "validation_error", Message: sentinel.Error()}
		}
	}
	for _, sentinel := range notFoundErrors {
		if errors.Is(err, sentinel) {
			return http.StatusNotFound, errorPayload{Type: "not_found", Message: sentinel.Error()}
		}
	}
	for _, sentinel := range conflictErrors {
		if errors.Is(err, sentinel) {
			return http.StatusConflict, errorPayload{Type: "conflict", Message: sentinel.Error()}
		}
	}
	// The underlying cause stays in the log, not in the response.
	return http.StatusInternalServerError, errorPayload{Type: "internal_error", Message: "internal server error"}
}

// ErrorHandlingMiddleware converts errors attached to the context into
// a JSON error response after the handler chain finishes.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

// AbortWithError records err on the context for the middleware to map.
func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}
