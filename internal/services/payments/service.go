package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/botalove/backend/internal/domain/enums"
	"github.com/botalove/backend/internal/domain/rules"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
)

var (
	ErrValidation          = errors.New("validation error")
	ErrUnknownSKU          = errors.New("unknown product sku")
	ErrTransactionNotFound = errors.New("payment transaction not found")
)

type TransactionStore interface {
	Begin(ctx context.Context, actorID int64, provider, productSKU string, amountCents int, currency, idempotencyKey string) (pgrepo.PaymentTransactionRecord, bool, error)
	Confirm(ctx context.Context, provider, reference string, grant func(ctx context.Context, tx pgx.Tx, rec pgrepo.PaymentTransactionRecord) error) (pgrepo.PaymentTransactionRecord, bool, error)
}

type InventoryStore interface {
	Grant(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) (int, error)
}

type PlanStore interface {
	Extend(ctx context.Context, tx pgx.Tx, actorID int64, tier enums.PlanTier, duration time.Duration, now time.Time) error
}

type Config struct {
	Provider   string
	Currency   string
	PlanPeriod time.Duration
}

type PurchaseIntent struct {
	Transaction pgrepo.PaymentTransactionRecord
	Created     bool
}

type ConfirmResult struct {
	Transaction pgrepo.PaymentTransactionRecord
	Idempotent  bool
}

type Dependencies struct {
	Transactions TransactionStore
	Inventory    InventoryStore
	Plans        PlanStore
}

// Service runs the simulated purchase flow: begin a pending transaction,
// confirm it by provider reference, and grant the product inside the confirm
// transaction. Repeated confirms of the same reference settle once.
type Service struct {
	transactions TransactionStore
	inventory    InventoryStore
	plans        PlanStore
	cfg          Config
	now          func() time.Time
}

func NewService(deps Dependencies, cfg Config) *Service {
	if strings.TrimSpace(cfg.Provider) == "" {
		cfg.Provider = "simulated"
	}
	if strings.TrimSpace(cfg.Currency) == "" {
		cfg.Currency = "BRL"
	}
	if cfg.PlanPeriod <= 0 {
		cfg.PlanPeriod = 30 * 24 * time.Hour
	}

	return &Service{
		transactions: deps.Transactions,
		inventory:    deps.Inventory,
		plans:        deps.Plans,
		cfg:          cfg,
		now:          time.Now,
	}
}

func (s *Service) BeginPurchase(ctx context.Context, actorID int64, skuRaw, idempotencyKey string) (PurchaseIntent, error) {
	if actorID <= 0 || strings.TrimSpace(idempotencyKey) == "" {
		return PurchaseIntent{}, ErrValidation
	}
	sku, ok := enums.ParsePurchaseSKU(skuRaw)
	if !ok {
		return PurchaseIntent{}, ErrUnknownSKU
	}
	price, ok := rules.SKUPriceCents(sku)
	if !ok {
		return PurchaseIntent{}, ErrUnknownSKU
	}
	if s.transactions == nil {
		return PurchaseIntent{}, fmt.Errorf("payment transaction store is nil")
	}

	rec, created, err := s.transactions.Begin(ctx, actorID, s.cfg.Provider, string(sku), price, s.cfg.Currency, idempotencyKey)
	if err != nil {
		return PurchaseIntent{}, fmt.Errorf("begin purchase: %w", err)
	}

	return PurchaseIntent{Transaction: rec, Created: created}, nil
}

func (s *Service) ConfirmPurchase(ctx context.Context, provider, reference string) (ConfirmResult, error) {
	if strings.TrimSpace(reference) == "" {
		return ConfirmResult{}, ErrValidation
	}
	if strings.TrimSpace(provider) == "" {
		provider = s.cfg.Provider
	}
	if s.transactions == nil || s.inventory == nil || s.plans == nil {
		return ConfirmResult{}, fmt.Errorf("payment dependencies are not configured")
	}

	rec, idempotent, err := s.transactions.Confirm(ctx, provider, reference, s.applyPurchase)
	if err != nil {
		if errors.Is(err, pgrepo.ErrPaymentTransactionNotFound) {
			return ConfirmResult{}, ErrTransactionNotFound
		}
		return ConfirmResult{}, err
	}

	return ConfirmResult{Transaction: rec, Idempotent: idempotent}, nil
}

func (s *Service) applyPurchase(ctx context.Context, tx pgx.Tx, rec pgrepo.PaymentTransactionRecord) error {
	sku, ok := enums.ParsePurchaseSKU(rec.ProductSKU)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownSKU, rec.ProductSKU)
	}

	switch sku {
	case enums.PurchaseSKUSuperLikePack3:
		return s.grant(ctx, tx, rec.ActorID, enums.ItemTypeSuperLike, 3)
	case enums.PurchaseSKUAnonMessage1:
		return s.grant(ctx, tx, rec.ActorID, enums.ItemTypeAnonymousMessage, 1)
	case enums.PurchaseSKUDirectMessage1:
		return s.grant(ctx, tx, rec.ActorID, enums.ItemTypeDirectMessage, 1)
	case enums.PurchaseSKUUndo1:
		return s.grant(ctx, tx, rec.ActorID, enums.ItemTypeUndoSwipe, 1)
	case enums.PurchaseSKUBoost1:
		return s.grant(ctx, tx, rec.ActorID, enums.ItemTypeBoost, 1)
	case enums.PurchaseSKUPlanSilver1m:
		return s.extend(ctx, tx, rec.ActorID, enums.PlanTierSilver)
	case enums.PurchaseSKUPlanGold1m:
		return s.extend(ctx, tx, rec.ActorID, enums.PlanTierGold)
	case enums.PurchaseSKUPlanPremium1m:
		return s.extend(ctx, tx, rec.ActorID, enums.PlanTierPremium)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSKU, rec.ProductSKU)
	}
}

func (s *Service) grant(ctx context.Context, tx pgx.Tx, actorID int64, item enums.ItemType, quantity int) error {
	if _, err := s.inventory.Grant(ctx, tx, actorID, item, quantity); err != nil {
		return fmt.Errorf("grant %s: %w", item, err)
	}
	return nil
}

func (s *Service) extend(ctx context.Context, tx pgx.Tx, actorID int64, tier enums.PlanTier) error {
	if err := s.plans.Extend(ctx, tx, actorID, tier, s.cfg.PlanPeriod, s.now().UTC()); err != nil {
		return fmt.Errorf("extend %s plan: %w", tier, err)
	}
	return nil
}
