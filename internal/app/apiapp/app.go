package apiapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/botalove/backend/internal/config"
	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
	redrepo "github.com/botalove/backend/internal/repo/redis"
	authsvc "github.com/botalove/backend/internal/services/auth"
	boostsvc "github.com/botalove/backend/internal/services/boosts"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	invsvc "github.com/botalove/backend/internal/services/inventory"
	listingsvc "github.com/botalove/backend/internal/services/listings"
	matchingsvc "github.com/botalove/backend/internal/services/matching"
	paysvc "github.com/botalove/backend/internal/services/payments"
	privsvc "github.com/botalove/backend/internal/services/privileges"
	quotasvc "github.com/botalove/backend/internal/services/quota"
	ratesvc "github.com/botalove/backend/internal/services/rate"
)

type App struct {
	cfg        config.Config
	logger     *zap.Logger
	server     *http.Server
	postgres   *pgxpool.Pool
	redis      *goredis.Client
	httpRouter http.Handler
}

func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		return nil, fmt.Errorf("logger is nil")
	}

	r := chi.NewRouter()
	ApplyMiddlewares(r, log)

	var pool *pgxpool.Pool
	if p, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN); err != nil {
		log.Warn("postgres init failed, continuing in degraded mode", zap.Error(err))
	} else {
		pool = p
	}

	redisClient := redrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	rateRepo := redrepo.NewRateRepo(redisClient)
	inventoryRepo := pgrepo.NewInventoryRepo(pool)
	quotaRepo := pgrepo.NewQuotaRepo(pool)
	planRepo := pgrepo.NewPlanRepo(pool)
	swipeRepo := pgrepo.NewSwipeRepo(pool)
	likeRepo := pgrepo.NewLikeRepo(pool)
	matchRepo := pgrepo.NewMatchRepo(pool)
	privilegeRepo := pgrepo.NewPrivilegeRepo(pool)
	listingRepo := pgrepo.NewListingRepo(pool)
	paymentRepo := pgrepo.NewPaymentRepo(pool)

	jwtManager := authsvc.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.JWTAccessTTL)
	tierLimits := tierLimitsFromConfig(cfg.Remote.Limits)

	rateLimiter := ratesvc.NewLimiter(
		rateRepo,
		cfg.Remote.RateLimits.LikesPerMinute,
		cfg.Remote.RateLimits.LikesPer10Seconds,
	)
	inventoryService := invsvc.NewService(pool, inventoryRepo)
	quotaService := quotasvc.NewService(pool, quotaRepo, planRepo, quotasvc.Config{
		TierLimits:      tierLimits,
		DefaultTimezone: cfg.Remote.Defaults.Timezone,
	})
	gateService := gatesvc.NewService(gatesvc.Dependencies{
		Pool:       pool,
		QuotaStore: quotaRepo,
		Inventory:  inventoryRepo,
		PlanStore:  planRepo,
	}, gatesvc.Config{
		TierLimits:      tierLimits,
		DefaultTimezone: cfg.Remote.Defaults.Timezone,
		ConflictRetries: cfg.Remote.Gate.ConflictRetries,
	})
	matchingService := matchingsvc.NewService(matchingsvc.Dependencies{
		SwipeStore: swipeRepo,
		LikeStore:  likeRepo,
		MatchStore: matchRepo,
		QuotaStore: quotaRepo,
		Inventory:  inventoryRepo,
		Gate:       gateService,
	}, matchingsvc.Config{
		DefaultTimezone: cfg.Remote.Defaults.Timezone,
	})
	privilegeService := privsvc.NewService(privilegeRepo)
	listingService := listingsvc.NewService(listingRepo, privilegeService)
	paymentService := paysvc.NewService(paysvc.Dependencies{
		Transactions: paymentRepo,
		Inventory:    inventoryRepo,
		Plans:        planRepo,
	}, paysvc.Config{})
	boostService := boostsvc.NewService(gateService, privilegeService, boostsvc.Config{
		Duration: cfg.Remote.Boost.Duration,
	})

	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      r,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	RegisterRoutes(r, Dependencies{
		JWTManager:       jwtManager,
		GateService:      gateService,
		QuotaService:     quotaService,
		InventoryService: inventoryService,
		MatchingService:  matchingService,
		ListingService:   listingService,
		PaymentService:   paymentService,
		BoostService:     boostService,
		RateLimiter:      rateLimiter,
		TierResolver:     planRepo,
		Logger:           log,
		Config:           cfg,
	})

	return &App{
		cfg:        cfg,
		logger:     log,
		server:     server,
		postgres:   pool,
		redis:      redisClient,
		httpRouter: r,
	}, nil
}

// tierLimitsFromConfig overlays the ops-tunable limits on the built-in
// per-tier tables. Premium is always unlimited and takes no overrides.
func tierLimitsFromConfig(limits config.LimitsConfig) map[enums.PlanTier]rules.TierLimits {
	overlay := func(tier enums.PlanTier, views, likes *int) rules.TierLimits {
		tl := rules.DefaultTierLimits(tier)
		if views != nil {
			tl.ViewsPerDay = *views
		}
		if likes != nil {
			tl.LikesPerDay = *likes
		}
		return tl
	}

	return map[enums.PlanTier]rules.TierLimits{
		enums.PlanTierBronze: overlay(enums.PlanTierBronze, limits.BronzeViewsPerDay, limits.BronzeLikesPerDay),
		enums.PlanTierSilver: overlay(enums.PlanTierSilver, limits.SilverViewsPerDay, limits.SilverLikesPerDay),
		enums.PlanTierGold:   overlay(enums.PlanTierGold, limits.GoldViewsPerDay, limits.GoldLikesPerDay),
	}
}

func (a *App) Run() error {
	a.logger.Info("api server started", zap.String("addr", a.cfg.HTTP.Addr))
	err := a.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if err := a.server.Shutdown(ctx); err != nil {
		shutdownErr = err
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil && shutdownErr == nil {
			shutdownErr = err
		}
	}

	return shutdownErr
}

func (a *App) Handler() http.Handler {
	return a.httpRouter
}
