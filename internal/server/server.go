package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"klimapart/internal/config"
	"klimapart/internal/domain"
	custommiddleware "klimapart/internal/middleware"
	"klimapart/internal/payment"
	"klimapart/internal/pricing"
	"klimapart/internal/repository"
	"klimapart/internal/service"
	"klimapart/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     *sql.DB
	redis  *redis.Client
}

func NewServer(cfg *config.Config, logger *zap.Logger, db *sql.DB) *Server {
	// Create router
	router := chi.NewRouter()

	// Add basic middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.Server.Env == "development"))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Initialize repositories
	productRepo := repository.NewProductRepository(db)
	rateRepo := repository.NewCurrencyRateRepository(db)
	discountRepo := repository.NewB2BDiscountRepository(db)
	campaignRepo := repository.NewCampaignRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	addressRepo := repository.NewAddressRepository(db)

	// Initialize services
	fallbackRates := pricing.RateTable{
		domain.CurrencyUSD: decimal.NewFromFloat(cfg.Pricing.FallbackUSD),
		domain.CurrencyEUR: decimal.NewFromFloat(cfg.Pricing.FallbackEUR),
	}
	gateway := payment.NewClient(cfg.Payment, logger)
	pricingService := service.NewPricingService(productRepo, rateRepo, discountRepo, campaignRepo, fallbackRates, logger)
	currencyService := service.NewCurrencyService(rateRepo, productRepo, logger)
	discountService := service.NewDiscountService(discountRepo, logger)
	campaignService := service.NewCampaignService(campaignRepo, logger)
	checkoutService := service.NewCheckoutService(pricingService, orderRepo, addressRepo, gateway, logger)
	callbackService := service.NewCallbackService(orderRepo, cfg.Payment, logger)
	orderService := service.NewOrderService(orderRepo, logger)

	// Initialize handlers
	pricingHandler := transport.NewPricingHandler(pricingService, logger)
	checkoutHandler := transport.NewCheckoutHandler(checkoutService, logger)
	callbackHandler := transport.NewCallbackHandler(callbackService, logger)
	adminHandler := transport.NewAdminHandler(currencyService, discountService, campaignService, orderService, logger)

	// Create auth middleware
	authMiddleware := custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger)
	adminMiddleware := custommiddleware.RequireAdmin(logger)
	b2bMiddleware := custommiddleware.RequireB2B(logger)

	// The callback endpoint is hit by the gateway, not users, so its limiter
	// is keyed separately and sized for retry bursts.
	callbackRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 120,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:callback",
	}, logger)

	// Checkout runs behind auth, so this limiter is keyed per user.
	checkoutRateLimit := custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: 30,
		Window:            time.Minute,
		KeyPrefix:         "ratelimit:checkout",
	}, logger)

	// Register routes
	pricingHandler.RegisterRoutes(router, authMiddleware, b2bMiddleware)
	checkoutHandler.RegisterRoutes(router, authMiddleware, checkoutRateLimit)
	callbackHandler.RegisterRoutes(router, callbackRateLimit)
	adminHandler.RegisterRoutes(router, authMiddleware, adminMiddleware)

	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
