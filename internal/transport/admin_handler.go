package transport

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"klimapart/internal/domain"
	"klimapart/internal/middleware"
	"klimapart/internal/repository"
	"klimapart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// UpdateRateRequest represents the currency rate update payload
type UpdateRateRequest struct {
	Currency string  `json:"currency" validate:"required,oneof=USD EUR"`
	Rate     float64 `json:"rate" validate:"required,gt=0"`
}

// ScopedPercentRequest is one brand/category entry of the discount payload
type ScopedPercentRequest struct {
	ID      string  `json:"id" validate:"required,uuid"`
	Percent float64 `json:"percent" validate:"gte=0,lte=100"`
}

// ReplaceDiscountsRequest represents the full discount configuration payload
type ReplaceDiscountsRequest struct {
	GeneralPercent *float64               `json:"general_percent" validate:"omitempty,gte=0,lte=100"`
	Brands         []ScopedPercentRequest `json:"brands" validate:"dive"`
	Categories     []ScopedPercentRequest `json:"categories" validate:"dive"`
}

// CampaignTierRequest is one tier of a campaign payload
type CampaignTierRequest struct {
	MinQuantity int     `json:"min_quantity" validate:"required,gt=0"`
	Value       float64 `json:"value" validate:"gte=0"`
}

// CampaignRequest represents a campaign create/update payload
type CampaignRequest struct {
	Name       string                `json:"name" validate:"required"`
	PromoType  string                `json:"promo_type" validate:"required,oneof=PERCENTAGE FIXED_PRICE"`
	Scope      string                `json:"scope" validate:"required,oneof=PRODUCT BRAND CATEGORY"`
	ProductID  *string               `json:"product_id" validate:"omitempty,uuid"`
	BrandID    *string               `json:"brand_id" validate:"omitempty,uuid"`
	CategoryID *string               `json:"category_id" validate:"omitempty,uuid"`
	StartsAt   time.Time             `json:"starts_at" validate:"required"`
	EndsAt     time.Time             `json:"ends_at" validate:"required"`
	IsActive   bool                  `json:"is_active"`
	Tiers      []CampaignTierRequest `json:"tiers" validate:"required,min=1,dive"`
}

// UpdateOrderStatusRequest represents the admin order status payload
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=CONFIRMED SHIPPED DELIVERED CANCELLED"`
}

// AdminHandler handles the administrator endpoints of the pricing core
type AdminHandler struct {
	currencyService service.CurrencyService
	discountService service.DiscountService
	campaignService service.CampaignService
	orderService    service.OrderService
	logger          *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	currencyService service.CurrencyService,
	discountService service.DiscountService,
	campaignService service.CampaignService,
	orderService service.OrderService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		currencyService: currencyService,
		discountService: discountService,
		campaignService: campaignService,
		orderService:    orderService,
		logger:          logger,
	}
}

// RegisterRoutes registers all admin routes behind auth + admin role
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)

		r.Get("/currency-rates", h.ListRates)
		r.Put("/currency-rates", h.UpdateRate)

		r.Get("/b2b-discounts", h.ListDiscounts)
		r.Put("/b2b-discounts", h.ReplaceDiscounts)

		r.Get("/campaigns", h.ListCampaigns)
		r.Post("/campaigns", h.CreateCampaign)
		r.Get("/campaigns/{id}", h.GetCampaign)
		r.Put("/campaigns/{id}", h.UpdateCampaign)
		r.Delete("/campaigns/{id}", h.DeleteCampaign)

		r.Put("/orders/{id}/status", h.UpdateOrderStatus)
	})
}

// ListRates returns the current rate table
func (h *AdminHandler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.currencyService.Rates(r.Context())
	if err != nil {
		h.logger.Error("Failed to list rates", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list rates")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, rates)
}

// UpdateRate stores a new rate and triggers the cached price recompute
func (h *AdminHandler) UpdateRate(w http.ResponseWriter, r *http.Request) {
	var req UpdateRateRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	recomputed, err := h.currencyService.UpdateRate(r.Context(), domain.Currency(req.Currency), decimal.NewFromFloat(req.Rate))
	if err != nil {
		h.logger.Error("Rate update failed", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrInvalidRate), errors.Is(err, service.ErrInvalidCurrency), errors.Is(err, service.ErrSettlementUpdate):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update rate")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Rate for %s updated, %d product prices recomputed", req.Currency, recomputed),
	})
}

// ListDiscounts returns the current wholesale discount set
func (h *AdminHandler) ListDiscounts(w http.ResponseWriter, r *http.Request) {
	discounts, err := h.discountService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list discounts", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list discounts")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, discounts)
}

// ReplaceDiscounts swaps the full wholesale discount configuration
func (h *AdminHandler) ReplaceDiscounts(w http.ResponseWriter, r *http.Request) {
	var req ReplaceDiscountsRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cfg, err := buildDiscountConfig(req)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.discountService.ReplaceAll(r.Context(), cfg); err != nil {
		h.logger.Error("Discount replacement failed", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrInvalidPercent), errors.Is(err, service.ErrDuplicateScope):
			middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		default:
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to replace discounts")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "discount configuration saved"})
}

// ListCampaigns returns all campaigns with computed status
func (h *AdminHandler) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	campaigns, err := h.campaignService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list campaigns", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list campaigns")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, campaignsWithStatus(campaigns))
}

// GetCampaign returns one campaign
func (h *AdminHandler) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := h.campaignService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.logger.Error("Failed to get campaign", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get campaign")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, campaignWithStatus(campaign))
}

// CreateCampaign creates a campaign with its tiers
func (h *AdminHandler) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	campaign, ok := h.decodeCampaign(w, r)
	if !ok {
		return
	}

	if err := h.campaignService.Create(r.Context(), campaign); err != nil {
		h.respondCampaignError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, campaignWithStatus(campaign))
}

// UpdateCampaign rewrites a campaign and its tier set
func (h *AdminHandler) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, ok := h.decodeCampaign(w, r)
	if !ok {
		return
	}
	campaign.ID = id

	if err := h.campaignService.Update(r.Context(), campaign); err != nil {
		h.respondCampaignError(w, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, campaignWithStatus(campaign))
}

// DeleteCampaign removes a campaign
func (h *AdminHandler) DeleteCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid campaign id")
		return
	}

	if err := h.campaignService.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrCampaignNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "campaign not found")
			return
		}
		h.logger.Error("Failed to delete campaign", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete campaign")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "campaign deleted"})
}

// UpdateOrderStatus applies an administrator fulfilment transition
func (h *AdminHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	var req UpdateOrderStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.orderService.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case errors.Is(err, service.ErrIllegalTransition):
			middleware.RespondWithError(w, http.StatusConflict, err.Error())
		default:
			h.logger.Error("Order status update failed", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}

func (h *AdminHandler) decodeCampaign(w http.ResponseWriter, r *http.Request) (*domain.Campaign, bool) {
	var req CampaignRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, false
	}

	campaign := &domain.Campaign{
		Name:      req.Name,
		PromoType: domain.PromoType(req.PromoType),
		Scope:     domain.CampaignScope(req.Scope),
		StartsAt:  req.StartsAt,
		EndsAt:    req.EndsAt,
		IsActive:  req.IsActive,
	}

	for _, ref := range []struct {
		raw  *string
		dest **uuid.UUID
	}{
		{req.ProductID, &campaign.ProductID},
		{req.BrandID, &campaign.BrandID},
		{req.CategoryID, &campaign.CategoryID},
	} {
		if ref.raw == nil {
			continue
		}
		id, err := uuid.Parse(*ref.raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid scope reference id")
			return nil, false
		}
		*ref.dest = &id
	}

	for _, tier := range req.Tiers {
		campaign.Tiers = append(campaign.Tiers, domain.CampaignTier{
			MinQuantity: tier.MinQuantity,
			Value:       decimal.NewFromFloat(tier.Value),
		})
	}

	return campaign, true
}

func (h *AdminHandler) respondCampaignError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrCampaignNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "campaign not found")
	case errors.Is(err, service.ErrInvalidCampaignScope),
		errors.Is(err, service.ErrInvalidWindow),
		errors.Is(err, service.ErrNoTiers),
		errors.Is(err, service.ErrDuplicateTier),
		errors.Is(err, service.ErrInvalidTierValue):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("Campaign operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "campaign operation failed")
	}
}

func buildDiscountConfig(req ReplaceDiscountsRequest) (service.DiscountConfig, error) {
	var cfg service.DiscountConfig

	if req.GeneralPercent != nil {
		p := decimal.NewFromFloat(*req.GeneralPercent)
		cfg.GeneralPercent = &p
	}

	var err error
	if cfg.Brands, err = scopedPercents(req.Brands); err != nil {
		return cfg, err
	}
	if cfg.Categories, err = scopedPercents(req.Categories); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func scopedPercents(entries []ScopedPercentRequest) ([]service.ScopedPercent, error) {
	out := make([]service.ScopedPercent, 0, len(entries))
	for _, entry := range entries {
		id, err := uuid.Parse(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid scope reference id %q", entry.ID)
		}
		out = append(out, service.ScopedPercent{RefID: id, Percent: decimal.NewFromFloat(entry.Percent)})
	}
	return out, nil
}

// CampaignResponse decorates a campaign with its computed status
type CampaignResponse struct {
	*domain.Campaign
	Status domain.CampaignStatus `json:"status"`
}

func campaignWithStatus(campaign *domain.Campaign) CampaignResponse {
	return CampaignResponse{Campaign: campaign, Status: campaign.Status(time.Now())}
}

func campaignsWithStatus(campaigns []*domain.Campaign) []CampaignResponse {
	out := make([]CampaignResponse, 0, len(campaigns))
	for _, campaign := range campaigns {
		out = append(out, campaignWithStatus(campaign))
	}
	return out
}
