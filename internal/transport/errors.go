package transport

import (
	"errors"
	"net/http"

	"klimapart/internal/middleware"
	"klimapart/internal/payment"
	"klimapart/internal/pricing"
	"klimapart/internal/repository"
	"klimapart/internal/service"
)

// respondPricingError maps pricing/service errors onto the error taxonomy:
// configuration defects are 5xx, user mistakes are 4xx, gateway trouble is a
// retryable 502.
func respondPricingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrUnknownProduct):
		middleware.RespondWithError(w, http.StatusNotFound, "unknown product")
	case errors.Is(err, pricing.ErrNoRate):
		// Deployment defect; nothing the caller can fix.
		middleware.RespondWithError(w, http.StatusInternalServerError, "pricing configuration error")
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to resolve prices")
	}
}

func respondCheckoutError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, repository.ErrAddressNotFound):
		middleware.RespondWithError(w, http.StatusBadRequest, "address not found")
	case errors.Is(err, service.ErrUnknownProduct):
		middleware.RespondWithError(w, http.StatusBadRequest, "unknown product in cart")
	case errors.Is(err, service.ErrInvalidAmount):
		middleware.RespondWithError(w, http.StatusBadRequest, "order amount must be positive")
	case errors.Is(err, pricing.ErrNoRate), errors.Is(err, payment.ErrMissingCredentials):
		middleware.RespondWithError(w, http.StatusInternalServerError, "checkout configuration error")
	case errors.Is(err, service.ErrTokenIssuance):
		// The pending order has been rolled back; the caller may retry.
		middleware.RespondWithError(w, http.StatusBadGateway, "payment provider unavailable, please retry")
	default:
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to start payment")
	}
}
