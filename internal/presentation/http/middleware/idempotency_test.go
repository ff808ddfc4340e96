package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukaanpos/dukaan-api/internal/domain/entity"
	"github.com/dukaanpos/dukaan-api/internal/domain/enum"
	domainRepo "github.com/dukaanpos/dukaan-api/internal/domain/repository"
	"github.com/dukaanpos/dukaan-api/internal/infrastructure/database"
	infraRepo "github.com/dukaanpos/dukaan-api/internal/infrastructure/repository"
	"github.com/dukaanpos/dukaan-api/internal/presentation/http/dto/response"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// idempotencyEnv wires the guard against a live in-memory database and a
// real ledger write, the way a retried payment post reaches it in
// production.
type idempotencyEnv struct {
	db       *gorm.DB
	repo     domainRepo.IdempotencyRepository
	ledger   domainRepo.LedgerRepository
	ctx      context.Context
	userID   uuid.UUID
	customer *entity.Customer
}

func newIdempotencyEnv(t *testing.T) *idempotencyEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap database: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	userID := uuid.New()
	shop := &entity.Shop{Name: "Corner Store", Slug: "corner-store-" + uuid.NewString()[:8], OwnerID: userID}
	if err := db.Create(shop).Error; err != nil {
		t.Fatalf("create shop: %v", err)
	}
	customer := &entity.Customer{ShopID: shop.ID, Name: "Asha"}
	if err := db.Create(customer).Error; err != nil {
		t.Fatalf("create customer: %v", err)
	}

	return &idempotencyEnv{
		db:       db,
		repo:     infraRepo.NewIdempotencyRepository(db),
		ledger:   infraRepo.NewLedgerRepository(db),
		ctx:      infraRepo.WithShop(context.Background(), shop.ID),
		userID:   userID,
		customer: customer,
	}
}

// router mounts the guard in front of the given handler with the test
// user authenticated, mirroring the protected transaction routes.
func (e *idempotencyEnv) router(handler gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/transactions",
		func(c *gin.Context) { c.Set("user_id", e.userID) },
		IdempotencyRequired(e.repo),
		handler,
	)
	return r
}

// chargeHandler books a 5.00 credit on the test customer through the real
// repository, so a double execution is visible on the balance.
func (e *idempotencyEnv) chargeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		entry, err := e.ledger.ApplyEntry(e.ctx, e.customer.ID, enum.EntryTypeCredit, 500, "Manual Charge")
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, "Transaction recorded", entry)
	}
}

func (e *idempotencyEnv) post(t *testing.T, r *gin.Engine, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/transactions", nil)
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (e *idempotencyEnv) balance(t *testing.T) int64 {
	t.Helper()
	var customer entity.Customer
	if err := e.db.First(&customer, "id = ?", e.customer.ID).Error; err != nil {
		t.Fatalf("load customer: %v", err)
	}
	return customer.TotalDue
}

func (e *idempotencyEnv) entryCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&entity.LedgerEntry{}).Where("customer_id = ?", e.customer.ID).Count(&count).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	return count
}

func TestIdempotencyRedeliveryAppliesWriteOnce(t *testing.T) {
	e := newIdempotencyEnv(t)
	r := e.router(e.chargeHandler())

	first := e.post(t, r, "txn-1")
	if first.Code != 201 {
		t.Fatalf("first delivery must execute, got %d: %s", first.Code, first.Body.String())
	}
	if got := e.balance(t); got != 500 {
		t.Fatalf("expected balance 500 after first delivery, got %d", got)
	}

	second := e.post(t, r, "txn-1")
	if second.Code != 201 {
		t.Fatalf("redelivery must replay the original status, got %d", second.Code)
	}
	if second.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Fatalf("redelivery must carry the replay header")
	}
	if second.Body.String() != first.Body.String() {
		t.Fatalf("redelivery must replay the original body:\n got %s\nwant %s", second.Body.String(), first.Body.String())
	}
	if got := e.balance(t); got != 500 {
		t.Fatalf("redelivery moved the balance: got %d, want 500", got)
	}
	if got := e.entryCount(t); got != 1 {
		t.Fatalf("redelivery appended an entry: got %d, want 1", got)
	}
}

func TestIdempotencyExpiredKeyExecutesAgain(t *testing.T) {
	e := newIdempotencyEnv(t)
	r := e.router(e.chargeHandler())

	stale := &entity.IdempotencyKey{
		Key:          "txn-old",
		UserID:       e.userID,
		Endpoint:     "POST /transactions",
		ResponseCode: 201,
		ResponseBody: `{"stale":true}`,
		ExpiresAt:    time.Now().Add(-time.Minute),
	}
	if err := e.db.Create(stale).Error; err != nil {
		t.Fatalf("seed stale key: %v", err)
	}

	w := e.post(t, r, "txn-old")
	if w.Code != 201 {
		t.Fatalf("expired key must allow re-execution, got %d: %s", w.Code, w.Body.String())
	}
	if w.Header().Get("X-Idempotency-Replayed") != "" {
		t.Fatalf("re-execution must not be marked as a replay")
	}
	if got := e.balance(t); got != 500 {
		t.Fatalf("expected the write to apply once, balance %d", got)
	}
}

func TestIdempotencyMissingKeyIsRejected(t *testing.T) {
	e := newIdempotencyEnv(t)
	r := e.router(e.chargeHandler())

	w := e.post(t, r, "")
	if w.Code != 400 {
		t.Fatalf("expected 400 without a key, got %d", w.Code)
	}
	if got := e.balance(t); got != 0 {
		t.Fatalf("rejected request must not write, balance %d", got)
	}
}

func TestIdempotencyFailedAttemptMayRetry(t *testing.T) {
	e := newIdempotencyEnv(t)
	calls := 0
	r := e.router(func(c *gin.Context) {
		calls++
		if calls == 1 {
			response.ErrorWithCode(c, 503, "upstream unavailable")
			return
		}
		e.chargeHandler()(c)
	})

	if w := e.post(t, r, "txn-retry"); w.Code != 503 {
		t.Fatalf("expected the first attempt to fail with 503, got %d", w.Code)
	}

	w := e.post(t, r, "txn-retry")
	if w.Code != 201 {
		t.Fatalf("a failed attempt must stay retryable, got %d: %s", w.Code, w.Body.String())
	}
	if calls != 2 {
		t.Fatalf("expected the handler to run twice, ran %d times", calls)
	}
	if got := e.balance(t); got != 500 {
		t.Fatalf("expected exactly one applied write, balance %d", got)
	}
}

func TestIdempotencyInFlightKeyDoesNotDoubleExecute(t *testing.T) {
	e := newIdempotencyEnv(t)
	r := e.router(e.chargeHandler())

	// A reservation without a stored response is a request still running
	// on another connection.
	pending := &entity.IdempotencyKey{
		Key:       "txn-racing",
		UserID:    e.userID,
		Endpoint:  "POST /transactions",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := e.db.Create(pending).Error; err != nil {
		t.Fatalf("seed pending reservation: %v", err)
	}

	w := e.post(t, r, "txn-racing")
	if w.Code != 409 {
		t.Fatalf("expected 409 while the first delivery is in flight, got %d", w.Code)
	}
	if got := e.balance(t); got != 0 {
		t.Fatalf("concurrent redelivery must not write, balance %d", got)
	}
	if got := e.entryCount(t); got != 0 {
		t.Fatalf("concurrent redelivery appended an entry: %d", got)
	}
}

func TestIdempotencyKeysAreScopedPerUser(t *testing.T) {
	e := newIdempotencyEnv(t)
	otherUser := uuid.New()

	gin.SetMode(gin.TestMode)
	r := gin.New()
	asUser := func(id uuid.UUID) gin.HandlerFunc {
		return func(c *gin.Context) { c.Set("user_id", id) }
	}
	r.POST("/mine", asUser(e.userID), IdempotencyRequired(e.repo), e.chargeHandler())
	r.POST("/theirs", asUser(otherUser), IdempotencyRequired(e.repo), e.chargeHandler())

	for _, path := range []string{"/mine", "/theirs"} {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.Header.Set(IdempotencyKeyHeader, "shared-key")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != 201 {
			t.Fatalf("%s: expected the same key to execute for each user, got %d", path, w.Code)
		}
		if w.Header().Get("X-Idempotency-Replayed") != "" {
			t.Fatalf("%s: distinct users must not replay each other", path)
		}
	}
	if got := e.balance(t); got != 1000 {
		t.Fatalf("expected both users' writes to apply, balance %d", got)
	}
}
