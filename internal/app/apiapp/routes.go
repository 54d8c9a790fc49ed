package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/botalove/backend/internal/config"
	authsvc "github.com/botalove/backend/internal/services/auth"
	boostsvc "github.com/botalove/backend/internal/services/boosts"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	invsvc "github.com/botalove/backend/internal/services/inventory"
	listingsvc "github.com/botalove/backend/internal/services/listings"
	matchingsvc "github.com/botalove/backend/internal/services/matching"
	paysvc "github.com/botalove/backend/internal/services/payments"
	quotasvc "github.com/botalove/backend/internal/services/quota"
	ratesvc "github.com/botalove/backend/internal/services/rate"
	"github.com/botalove/backend/internal/transport/http/handlers"
)

type Dependencies struct {
	JWTManager       *authsvc.JWTManager
	GateService      *gatesvc.Service
	QuotaService     *quotasvc.Service
	InventoryService *invsvc.Service
	MatchingService  *matchingsvc.Service
	ListingService   *listingsvc.Service
	PaymentService   *paysvc.Service
	BoostService     *boostsvc.Service
	RateLimiter      *ratesvc.Limiter
	TierResolver     handlers.TierResolver
	Logger           *zap.Logger
	Config           config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(deps.JWTManager, deps.Config.Env)
	authorizeHandler := handlers.NewAuthorizeHandler(deps.GateService)
	quotaHandler := handlers.NewQuotaHandler(deps.QuotaService)
	inventoryHandler := handlers.NewInventoryHandler(deps.InventoryService)
	swipeHandler := handlers.NewSwipeHandler(deps.MatchingService, deps.RateLimiter, deps.TierResolver)
	rewindHandler := handlers.NewRewindHandler(deps.MatchingService)
	boostHandler := handlers.NewBoostHandler(deps.BoostService)
	listingsHandler := handlers.NewListingsHandler(deps.ListingService)
	purchaseHandler := handlers.NewPurchaseHandler(deps.PaymentService)
	authMW := AuthMiddleware(deps.JWTManager, deps.Logger)

	r.Get("/healthz", healthHandler.Get)
	r.Post("/auth/dev_token", authHandler.DevToken)

	r.With(authMW).Post("/authorize", authorizeHandler.Handle)
	r.With(authMW).Get("/quota", quotaHandler.Handle)
	r.With(authMW).Get("/inventory", inventoryHandler.Handle)
	r.With(authMW).Post("/swipes", swipeHandler.Handle)
	r.With(authMW).Post("/rewind", rewindHandler.Handle)
	r.With(authMW).Post("/boost", boostHandler.Activate)
	r.With(authMW).Get("/boost/status", boostHandler.Status)
	r.With(authMW).Post("/purchase/create", purchaseHandler.Create)
	r.Post("/purchase/webhook", purchaseHandler.Webhook)

	r.Route("/listings", func(r chi.Router) {
		r.Use(authMW)
		r.Post("/", listingsHandler.Publish)
		r.Get("/{listingID}", listingsHandler.Status)
		r.Post("/{listingID}/payment", listingsHandler.ConfirmPayment)
		r.Post("/{listingID}/renew", listingsHandler.Renew)
		r.Post("/{listingID}/interested", listingsHandler.MarkInterested)
	})
}
