package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5"
	goredis "github.com/redis/go-redis/v9"

	"github.com/botalove/backend/internal/domain/enums"
	pgrepo "github.com/botalove/backend/internal/repo/postgres"
	redrepo "github.com/botalove/backend/internal/repo/redis"
	authsvc "github.com/botalove/backend/internal/services/auth"
	gatesvc "github.com/botalove/backend/internal/services/gate"
	matchingsvc "github.com/botalove/backend/internal/services/matching"
	ratesvc "github.com/botalove/backend/internal/services/rate"
)

// stubStores satisfies the matching store interfaces; the denying gate below
// never runs the effect, so none of these are ever reached.
type stubStores struct{}

func (stubStores) Create(_ context.Context, _ pgx.Tx, _, _ int64, _ string, _ time.Time) (pgrepo.SwipeRecord, error) {
	return pgrepo.SwipeRecord{}, nil
}

func (stubStores) GetLastByActor(_ context.Context, _ pgx.Tx, _ int64) (pgrepo.SwipeRecord, error) {
	return pgrepo.SwipeRecord{}, nil
}

func (stubStores) DeleteByID(_ context.Context, _ pgx.Tx, _ int64) error { return nil }

func (stubStores) Upsert(_ context.Context, _ pgx.Tx, _, _ int64, _ bool) error { return nil }

func (stubStores) Exists(_ context.Context, _ pgx.Tx, _, _ int64) (bool, error) { return false, nil }

func (stubStores) Delete(_ context.Context, _ pgx.Tx, _, _ int64) (bool, error) { return false, nil }

func (stubStores) CreateIfMutualLike(_ context.Context, _ pgx.Tx, _, _ int64, _ string) (pgrepo.MatchRecord, bool, error) {
	return pgrepo.MatchRecord{}, false, nil
}

func (stubStores) GetByUsers(_ context.Context, _, _ int64) (pgrepo.MatchRecord, error) {
	return pgrepo.MatchRecord{}, pgrepo.ErrMatchNotFound
}

func (stubStores) DeleteByUsers(_ context.Context, _ pgx.Tx, _, _ int64) (bool, error) {
	return false, nil
}

type stubTier struct {
	tier enums.PlanTier
}

func (s stubTier) GetTier(_ context.Context, _ int64, _ time.Time) (enums.PlanTier, error) {
	return s.tier, nil
}

// denyingGate refuses every charge so the handler path under test never
// reaches the stores.
type denyingGate struct{}

func (denyingGate) AuthorizeAndDo(_ context.Context, _ int64, action gatesvc.Action, _ string, _ func(ctx context.Context, tx pgx.Tx) error) (gatesvc.Decision, error) {
	return gatesvc.Decision{
		Granted:     false,
		Reason:      gatesvc.ReasonQuotaExhausted,
		ChargedFrom: gatesvc.ChargedFromNone,
	}, nil
}

func TestSwipeHandlerReturnsTooFastOnThirdLikeBurst(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	rateRepo := redrepo.NewRateRepo(redisClient)
	rateLimiter := ratesvc.NewLimiter(rateRepo, 2, 0)

	svc := matchingsvc.NewService(matchingsvc.Dependencies{
		SwipeStore: stubStores{},
		LikeStore:  stubStores{},
		MatchStore: stubStores{},
		Gate:       denyingGate{},
	}, matchingsvc.Config{})

	h := NewSwipeHandler(svc, rateLimiter, stubTier{tier: enums.PlanTierPremium})

	for i := 0; i < 2; i++ {
		resp := performSwipeRequest(t, h, 1000+int64(i), "LIKE")
		if resp.Code != http.StatusPaymentRequired {
			t.Fatalf("unexpected status on like %d: got %d want %d", i, resp.Code, http.StatusPaymentRequired)
		}
	}

	resp := performSwipeRequest(t, h, 1002, "LIKE")
	if resp.Code != http.StatusTooManyRequests {
		t.Fatalf("unexpected status on third like: got %d want %d", resp.Code, http.StatusTooManyRequests)
	}

	var payload struct {
		Code          string `json:"code"`
		Message       string `json:"message"`
		RetryAfterSec int64  `json:"retry_after_sec"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	if payload.Code != "TOO_FAST" {
		t.Fatalf("unexpected error code: got %q want %q", payload.Code, "TOO_FAST")
	}
	if payload.RetryAfterSec <= 0 {
		t.Fatalf("expected positive retry_after_sec, got %d", payload.RetryAfterSec)
	}
}

func TestSwipeHandlerSkipsRateLimitForPass(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	rateLimiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), 1, 0)

	svc := matchingsvc.NewService(matchingsvc.Dependencies{
		SwipeStore: stubStores{},
		LikeStore:  stubStores{},
		MatchStore: stubStores{},
		Gate:       denyingGate{},
	}, matchingsvc.Config{})

	h := NewSwipeHandler(svc, rateLimiter, stubTier{tier: enums.PlanTierPremium})

	for i := 0; i < 5; i++ {
		resp := performSwipeRequest(t, h, 2000+int64(i), "PASS")
		if resp.Code == http.StatusTooManyRequests {
			t.Fatalf("pass %d must not be rate limited", i)
		}
	}
}

func TestSwipeHandlerDoesNotRateLimitMeteredTier(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer func() { _ = redisClient.Close() }()

	rateLimiter := ratesvc.NewLimiter(redrepo.NewRateRepo(redisClient), 1, 0)

	svc := matchingsvc.NewService(matchingsvc.Dependencies{
		SwipeStore: stubStores{},
		LikeStore:  stubStores{},
		MatchStore: stubStores{},
		Gate:       denyingGate{},
	}, matchingsvc.Config{})

	h := NewSwipeHandler(svc, rateLimiter, stubTier{tier: enums.PlanTierBronze})

	// Metered tiers answer to the daily ledger, not the velocity window.
	for i := 0; i < 5; i++ {
		resp := performSwipeRequest(t, h, 4000+int64(i), "LIKE")
		if resp.Code == http.StatusTooManyRequests {
			t.Fatalf("metered like %d must not be rate limited", i)
		}
		if resp.Code != http.StatusPaymentRequired {
			t.Fatalf("unexpected status on metered like %d: got %d want %d", i, resp.Code, http.StatusPaymentRequired)
		}
	}
}

func TestSwipeHandlerRejectsUnknownKind(t *testing.T) {
	svc := matchingsvc.NewService(matchingsvc.Dependencies{
		SwipeStore: stubStores{},
		LikeStore:  stubStores{},
		MatchStore: stubStores{},
		Gate:       denyingGate{},
	}, matchingsvc.Config{})

	h := NewSwipeHandler(svc, nil, nil)

	resp := performSwipeRequest(t, h, 3000, "WAVE")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", resp.Code, http.StatusBadRequest)
	}
}

func performSwipeRequest(t *testing.T, h *SwipeHandler, targetID int64, kind string) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(map[string]any{
		"target_id": targetID,
		"kind":      kind,
	})
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/swipes", bytes.NewReader(body))
	req = req.WithContext(authsvc.WithIdentity(context.Background(), authsvc.Identity{
		UserID: 101,
		Role:   "user",
	}))
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}
