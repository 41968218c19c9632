package transport

import (
	"net"
	"net/http"

	"klimapart/internal/middleware"
	"klimapart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// IssueTokenRequest represents the checkout request payload. Any prices the
// client may have cached are irrelevant; only product ids and quantities are
// accepted.
type IssueTokenRequest struct {
	AddressID string             `json:"address_id" validate:"required,uuid"`
	Email     string             `json:"email" validate:"required,email"`
	Name      string             `json:"name" validate:"required"`
	Phone     string             `json:"phone" validate:"required"`
	Notes     string             `json:"notes"`
	Lines     []QuoteLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// IssueTokenResponse represents the successful checkout response
type IssueTokenResponse struct {
	Token   string `json:"token"`
	OrderID string `json:"order_id"`
}

// CheckoutHandler handles HTTP requests for payment token issuance
type CheckoutHandler struct {
	checkoutService service.CheckoutService
	logger          *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		logger:          logger,
	}
}

// RegisterRoutes registers all checkout routes
func (h *CheckoutHandler) RegisterRoutes(r chi.Router, authMiddleware, rateLimit func(http.Handler) http.Handler) {
	r.Route("/api/checkout", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			if rateLimit != nil {
				r.Use(rateLimit)
			}
			r.Post("/token", h.IssueToken)
		})
	})
}

// IssueToken handles payment token issuance
func (h *CheckoutHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	userIDStr, ok := middleware.GetUserID(r.Context())
	if !ok {
		h.logger.Error("User ID not found in context")
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	addressID, err := uuid.Parse(req.AddressID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid address ID")
		return
	}

	lines, err := parseLines(req.Lines)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	result, err := h.checkoutService.IssueToken(r.Context(), service.IssueTokenInput{
		UserID:      userID,
		Email:       req.Email,
		UserIP:      clientIP(r),
		UserName:    req.Name,
		UserPhone:   req.Phone,
		AddressID:   addressID,
		Notes:       req.Notes,
		IsWholesale: middleware.IsB2BApproved(r.Context()),
		Lines:       lines,
	})
	if err != nil {
		h.logger.Error("Token issuance failed", zap.Error(err), zap.String("user_id", userIDStr))
		respondCheckoutError(w, err)
		return
	}

	h.logger.Info("Checkout token issued",
		zap.String("user_id", userIDStr),
		zap.String("order_id", result.OrderID.String()),
	)

	middleware.RespondWithJSON(w, http.StatusCreated, IssueTokenResponse{
		Token:   result.Token,
		OrderID: result.OrderID.String(),
	})
}

// clientIP yields a bare IP for the gateway's user_ip field. RemoteAddr
// carries host:port unless a proxy header already rewrote it to a plain IP.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
