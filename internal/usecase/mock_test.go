//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"lingua-fulfillment/internal/domain"
	"lingua-fulfillment/internal/domain/model"
	"lingua-fulfillment/internal/domain/ports/adapter"
	"lingua-fulfillment/internal/domain/ports/repository"
)

// =============================
// Repositories
// =============================

// ---- Mock IntentRepository ----

type MockIntentRepo struct {
	mu   sync.Mutex
	data map[string]*model.PendingIntent // by order id

	SaveFunc                   func(ctx context.Context, tx repository.Tx, in *model.PendingIntent) error
	FindByOrderIDFunc          func(ctx context.Context, tx repository.Tx, orderID string) (*model.PendingIntent, error)
	FindByOrderIDForUpdateFunc func(ctx context.Context, tx repository.Tx, orderID string) (*model.PendingIntent, error)
	MarkStatusFunc             func(ctx context.Context, tx repository.Tx, orderID string, status model.IntentStatus) error
}

var _ repository.IntentRepository = (*MockIntentRepo)(nil)

func NewMockIntentRepo() *MockIntentRepo {
	return &MockIntentRepo{data: map[string]*model.PendingIntent{}}
}

func (r *MockIntentRepo) Save(ctx context.Context, tx repository.Tx, in *model.PendingIntent) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, in)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[in.OrderID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *in
	r.data[in.OrderID] = &cp
	return nil
}

func (r *MockIntentRepo) FindByOrderID(ctx context.Context, tx repository.Tx, orderID string) (*model.PendingIntent, error) {
	if r.FindByOrderIDFunc != nil {
		return r.FindByOrderIDFunc(ctx, tx, orderID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if in, ok := r.data[orderID]; ok {
		cp := *in
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockIntentRepo) FindByOrderIDForUpdate(ctx context.Context, tx repository.Tx, orderID string) (*model.PendingIntent, error) {
	if r.FindByOrderIDForUpdateFunc != nil {
		return r.FindByOrderIDForUpdateFunc(ctx, tx, orderID)
	}
	// The in-memory mock has no row locks; serialization is simulated by
	// the MockTxManager when a test needs it.
	return r.FindByOrderID(ctx, tx, orderID)
}

func (r *MockIntentRepo) MarkStatus(ctx context.Context, tx repository.Tx, orderID string, status model.IntentStatus) error {
	if r.MarkStatusFunc != nil {
		return r.MarkStatusFunc(ctx, tx, orderID, status)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	in, ok := r.data[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	in.Status = status
	in.UpdatedAt = time.Now()
	return nil
}

// ---- Mock PurchaseRepository ----

type MockPurchaseRepo struct {
	mu   sync.Mutex
	data map[string]*model.Purchase // by purchase id

	SaveFunc                func(ctx context.Context, tx repository.Tx, p *model.Purchase) error
	ExistsByProviderIDsFunc func(ctx context.Context, tx repository.Tx, orderID, captureID string) (bool, error)
	FindByProviderIDsFunc   func(ctx context.Context, tx repository.Tx, orderID, captureID string) (*model.Purchase, error)
	MarkRefundedFunc        func(ctx context.Context, tx repository.Tx, id string) error
	ListByBuyerFunc         func(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.Purchase, error)

	// ExistsDelay widens the window between the existence check and the
	// insert, for tests that race concurrent deliveries.
	ExistsDelay time.Duration
}

var _ repository.PurchaseRepository = (*MockPurchaseRepo)(nil)

func NewMockPurchaseRepo() *MockPurchaseRepo {
	return &MockPurchaseRepo{data: map[string]*model.Purchase{}}
}

func (r *MockPurchaseRepo) Save(ctx context.Context, tx repository.Tx, p *model.Purchase) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPurchaseRepo) matches(p *model.Purchase, orderID, captureID string) bool {
	if orderID != "" && p.OrderID == orderID {
		return true
	}
	return captureID != "" && p.CaptureID != nil && *p.CaptureID == captureID
}

func (r *MockPurchaseRepo) ExistsByProviderIDs(ctx context.Context, tx repository.Tx, orderID, captureID string) (bool, error) {
	if r.ExistsByProviderIDsFunc != nil {
		return r.ExistsByProviderIDsFunc(ctx, tx, orderID, captureID)
	}
	r.mu.Lock()
	found := false
	for _, p := range r.data {
		if r.matches(p, orderID, captureID) {
			found = true
			break
		}
	}
	r.mu.Unlock()
	if r.ExistsDelay > 0 {
		time.Sleep(r.ExistsDelay)
	}
	return found, nil
}

func (r *MockPurchaseRepo) FindByProviderIDs(ctx context.Context, tx repository.Tx, orderID, captureID string) (*model.Purchase, error) {
	if r.FindByProviderIDsFunc != nil {
		return r.FindByProviderIDsFunc(ctx, tx, orderID, captureID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if r.matches(p, orderID, captureID) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPurchaseRepo) MarkRefunded(ctx context.Context, tx repository.Tx, id string) error {
	if r.MarkRefundedFunc != nil {
		return r.MarkRefundedFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PurchaseStatusCompleted {
		return domain.ErrNotFound
	}
	p.Status = model.PurchaseStatusRefunded
	return nil
}

func (r *MockPurchaseRepo) ListByBuyer(ctx context.Context, tx repository.Tx, buyerID string) ([]*model.Purchase, error) {
	if r.ListByBuyerFunc != nil {
		return r.ListByBuyerFunc(ctx, tx, buyerID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Purchase
	for _, p := range r.data {
		if p.BuyerID == buyerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.After(out[j].PaidAt) })
	return out, nil
}

// Count reports how many purchase rows the mock holds.
func (r *MockPurchaseRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock EntitlementRepository ----

type MockEntitlementRepo struct {
	mu   sync.Mutex
	data map[string]*model.Entitlement // by "buyer|product"

	UpsertFunc     func(ctx context.Context, tx repository.Tx, e *model.Entitlement) error
	FindFunc       func(ctx context.Context, tx repository.Tx, buyerID, productID string) (*model.Entitlement, error)
	DeactivateFunc func(ctx context.Context, tx repository.Tx, buyerID, productID string) error
}

var _ repository.EntitlementRepository = (*MockEntitlementRepo)(nil)

func NewMockEntitlementRepo() *MockEntitlementRepo {
	return &MockEntitlementRepo{data: map[string]*model.Entitlement{}}
}

func entKey(buyerID, productID string) string { return buyerID + "|" + productID }

func (r *MockEntitlementRepo) Upsert(ctx context.Context, tx repository.Tx, e *model.Entitlement) error {
	if r.UpsertFunc != nil {
		return r.UpsertFunc(ctx, tx, e)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	cp := *e
	r.data[entKey(e.BuyerID, e.ProductID)] = &cp
	return nil
}

func (r *MockEntitlementRepo) Find(ctx context.Context, tx repository.Tx, buyerID, productID string) (*model.Entitlement, error) {
	if r.FindFunc != nil {
		return r.FindFunc(ctx, tx, buyerID, productID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.data[entKey(buyerID, productID)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (r *MockEntitlementRepo) Deactivate(ctx context.Context, tx repository.Tx, buyerID, productID string) error {
	if r.DeactivateFunc != nil {
		return r.DeactivateFunc(ctx, tx, buyerID, productID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.data[entKey(buyerID, productID)]
	if !ok {
		return domain.ErrNotFound
	}
	e.Active = false
	return nil
}

// Count reports how many entitlement rows the mock holds.
func (r *MockEntitlementRepo) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock ProductRepository ----

type MockProductRepo struct {
	mu   sync.Mutex
	data map[string]*model.Product

	FindByMachineNameFunc func(ctx context.Context, tx repository.Tx, machineName string) (*model.Product, error)
}

var _ repository.ProductRepository = (*MockProductRepo)(nil)

func NewMockProductRepo() *MockProductRepo {
	return &MockProductRepo{data: map[string]*model.Product{}}
}

func (r *MockProductRepo) Seed(p *model.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *p
	r.data[p.MachineName] = &cp
}

func (r *MockProductRepo) FindByMachineName(ctx context.Context, tx repository.Tx, machineName string) (*model.Product, error) {
	if r.FindByMachineNameFunc != nil {
		return r.FindByMachineNameFunc(ctx, tx, machineName)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[machineName]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

// =============================
// Adapters
// =============================

// ---- Mock CheckoutGateway ----

type MockCheckoutGateway struct {
	ProviderVal model.PaymentProvider

	CreateCheckoutFunc func(ctx context.Context, buyerID string, product *model.Product) (string, string, error)
}

var _ adapter.CheckoutGateway = (*MockCheckoutGateway)(nil)

func (g *MockCheckoutGateway) Provider() model.PaymentProvider {
	if g.ProviderVal == "" {
		return model.ProviderPayPal
	}
	return g.ProviderVal
}

func (g *MockCheckoutGateway) CreateCheckout(ctx context.Context, buyerID string, product *model.Product) (string, string, error) {
	if g.CreateCheckoutFunc != nil {
		return g.CreateCheckoutFunc(ctx, buyerID, product)
	}
	orderID := "ORD-" + uuid.NewString()
	return orderID, "https://pay.example/" + orderID, nil
}

// ---- Mock PurchaseNotifier ----

type MockNotifier struct {
	mu       sync.Mutex
	Notified []string // buyer ids, in call order

	NotifyPurchaseFunc func(ctx context.Context, buyerID string, product *model.Product, paidAt time.Time) error
}

var _ adapter.PurchaseNotifier = (*MockNotifier)(nil)

func (n *MockNotifier) NotifyPurchase(ctx context.Context, buyerID string, product *model.Product, paidAt time.Time) error {
	if n.NotifyPurchaseFunc != nil {
		return n.NotifyPurchaseFunc(ctx, buyerID, product, paidAt)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notified = append(n.Notified, buyerID)
	return nil
}

func (n *MockNotifier) Calls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Notified)
}

// =============================
// Infra helpers for tests
// =============================

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

// WithTx runs the function immediately without a real transaction. Tests
// that need transactional behavior assign a custom WithTxFunc.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, nil)
}

// NewSerializingTxManager mimics the row lock the real engine takes on the
// intent: transactions run one at a time, never interleaved.
func NewSerializingTxManager() *MockTxManager {
	var mu sync.Mutex
	return &MockTxManager{
		WithTxFunc: func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
			mu.Lock()
			defer mu.Unlock()
			return fn(ctx, nil)
		},
	}
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
