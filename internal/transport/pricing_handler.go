package transport

import (
	"net/http"

	"klimapart/internal/middleware"
	"klimapart/internal/pricing"
	"klimapart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// QuoteLineRequest is one cart line of a quote request. No price field
// exists on purpose; prices are resolved server-side.
type QuoteLineRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// QuoteCartRequest represents the batch quote request payload
type QuoteCartRequest struct {
	Lines []QuoteLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// QuoteCartResponse represents the batch quote response
type QuoteCartResponse struct {
	Quotes []pricing.Quote `json:"quotes"`
}

// B2BQuoteRequest represents the batch wholesale price request payload
type B2BQuoteRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,uuid"`
}

// B2BQuoteResponse maps product id to wholesale unit price (as string, the
// canonical decimal rendering).
type B2BQuoteResponse struct {
	Prices map[string]string `json:"prices"`
}

// PricingHandler handles HTTP requests for price resolution
type PricingHandler struct {
	pricingService service.PricingService
	logger         *zap.Logger
}

// NewPricingHandler creates a new PricingHandler
func NewPricingHandler(pricingService service.PricingService, logger *zap.Logger) *PricingHandler {
	return &PricingHandler{
		pricingService: pricingService,
		logger:         logger,
	}
}

// RegisterRoutes registers all pricing routes
func (h *PricingHandler) RegisterRoutes(r chi.Router, authMiddleware, b2bMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/pricing", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/quote", h.QuoteCart)

			r.Group(func(r chi.Router) {
				r.Use(b2bMiddleware)
				r.Post("/b2b", h.QuoteB2B)
			})
		})
	})
}

// QuoteCart handles the batch cart quote (storefront display path)
func (h *PricingHandler) QuoteCart(w http.ResponseWriter, r *http.Request) {
	var req QuoteCartRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Quote validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	lines, err := parseLines(req.Lines)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	quotes, err := h.pricingService.QuoteCart(r.Context(), lines, middleware.IsB2BApproved(r.Context()))
	if err != nil {
		h.logger.Error("Cart quote failed", zap.Error(err))
		respondPricingError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, QuoteCartResponse{Quotes: quotes})
}

// QuoteB2B handles the batch wholesale price lookup
func (h *PricingHandler) QuoteB2B(w http.ResponseWriter, r *http.Request) {
	var req B2BQuoteRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("B2B quote validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ids := make([]uuid.UUID, 0, len(req.ProductIDs))
	for _, raw := range req.ProductIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
			return
		}
		ids = append(ids, id)
	}

	prices, err := h.pricingService.QuoteB2B(r.Context(), ids)
	if err != nil {
		h.logger.Error("B2B quote failed", zap.Error(err))
		respondPricingError(w, err)
		return
	}

	response := B2BQuoteResponse{Prices: make(map[string]string, len(prices))}
	for id, price := range prices {
		response.Prices[id.String()] = price.StringFixed(2)
	}

	middleware.RespondWithJSON(w, http.StatusOK, response)
}

func parseLines(reqLines []QuoteLineRequest) ([]service.CartLine, error) {
	lines := make([]service.CartLine, 0, len(reqLines))
	for _, line := range reqLines {
		id, err := uuid.Parse(line.ProductID)
		if err != nil {
			return nil, err
		}
		lines = append(lines, service.CartLine{ProductID: id, Quantity: line.Quantity})
	}
	return lines, nil
}
