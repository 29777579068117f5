package usecase_test

import (
	"context"
	"io"
	"time"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"github.com/stretchr/testify/mock"
)

// =====================
// Mock: ProductRepository
// =====================

type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(ctx context.Context, limit int) ([]model.Product, error) {
	args := m.Called(ctx, limit)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Error(1)
}

func (m *MockProductRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *MockProductRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	args := m.Called(ctx, p)
	out, _ := args.Get(0).(model.Product)
	return out, args.Error(1)
}

func (m *MockProductRepository) CreateBulk(ctx context.Context, ps []model.Product) error {
	args := m.Called(ctx, ps)
	return args.Error(0)
}

func (m *MockProductRepository) Update(ctx context.Context, id int64, u repo.ProductUpdate) error {
	args := m.Called(ctx, id, u)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Mock: InventoryRepository
// =====================

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	args := m.Called(ctx, productID, qty)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryRepository) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

// =====================
// Mock: TransactionRepository
// =====================

type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	args := m.Called(ctx, t)
	out, _ := args.Get(0).(model.Transaction)
	return out, args.Error(1)
}

func (m *MockTransactionRepository) FindByID(ctx context.Context, id int64) (model.Transaction, error) {
	args := m.Called(ctx, id)
	out, _ := args.Get(0).(model.Transaction)
	return out, args.Error(1)
}

func (m *MockTransactionRepository) List(ctx context.Context) ([]model.Transaction, error) {
	args := m.Called(ctx)
	out, _ := args.Get(0).([]model.Transaction)
	return out, args.Error(1)
}

func (m *MockTransactionRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Mock: AuditLogRepository
// =====================

type MockAuditLogRepository struct {
	mock.Mock
}

func (m *MockAuditLogRepository) Create(ctx context.Context, log model.AuditLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockAuditLogRepository) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	args := m.Called(ctx, filter)
	out, _ := args.Get(0).([]model.AuditLog)
	return out, args.Error(1)
}

// =====================
// Mock: UserRepository
// =====================

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	us, _ := args.Get(0).([]model.User)
	return us, args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// =====================
// Mock: RefreshTokenRepository
// =====================

type MockRefreshTokenRepository struct {
	mock.Mock
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, token *model.RefreshToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*model.RefreshToken, error) {
	args := m.Called(ctx, tokenHash)
	rt, _ := args.Get(0).(*model.RefreshToken)
	return rt, args.Error(1)
}

func (m *MockRefreshTokenRepository) MarkUsed(ctx context.Context, tokenID string, usedAt time.Time) error {
	args := m.Called(ctx, tokenID, usedAt)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteAllByUserID(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRefreshTokenRepository) DeleteByID(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

// =====================
// Mock: AuthValidator
// =====================

type MockAuthValidator struct {
	mock.Mock
}

func (m *MockAuthValidator) ValidateRegister(ctx context.Context, name string, email string, password string, confPassword string) error {
	args := m.Called(ctx, name, email, password, confPassword)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	args := m.Called(ctx, email, password)
	return args.Error(0)
}

func (m *MockAuthValidator) ValidateRefresh(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

// =====================
// Mock: ImageStore / ProductCache
// =====================

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, r io.Reader) (string, error) {
	args := m.Called(ctx, r)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Remove(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

type MockProductCache struct {
	mock.Mock
}

func (m *MockProductCache) Version(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductCache) Get(ctx context.Context, version int64, limit int) ([]model.Product, bool, error) {
	args := m.Called(ctx, version, limit)
	ps, _ := args.Get(0).([]model.Product)
	return ps, args.Bool(1), args.Error(2)
}

func (m *MockProductCache) Set(ctx context.Context, version int64, limit int, items []model.Product) error {
	args := m.Called(ctx, version, limit, items)
	return args.Error(0)
}

func (m *MockProductCache) Invalidate(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// =====================
// Fake: TransactionManager
// =====================

// fakeTxRepos はモックをそのまま返す
type fakeTxRepos struct {
	products     *MockProductRepository
	inventory    *MockInventoryRepository
	transactions *MockTransactionRepository
	auditLogs    *MockAuditLogRepository
}

func (r *fakeTxRepos) Products() repo.ProductRepository         { return r.products }
func (r *fakeTxRepos) Inventory() repo.InventoryRepository      { return r.inventory }
func (r *fakeTxRepos) Transactions() repo.TransactionRepository { return r.transactions }
func (r *fakeTxRepos) AuditLogs() repo.AuditLogRepository       { return r.auditLogs }

type fakeTxManager struct {
	repos *fakeTxRepos
	calls int
}

func (tm *fakeTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	tm.calls++
	return fn(tm.repos)
}

func newFakeTx() (*fakeTxManager, *fakeTxRepos) {
	r := &fakeTxRepos{
		products:     new(MockProductRepository),
		inventory:    new(MockInventoryRepository),
		transactions: new(MockTransactionRepository),
		auditLogs:    new(MockAuditLogRepository),
	}
	return &fakeTxManager{repos: r}, r
}

func i64(v int64) *int64 { return &v }
func str(s string) *string { return &s }
