package usecase_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"vending/internal/domain/model"
	"vending/internal/infra/db"
	infraRepo "vending/internal/infra/repository"
	repo "vending/internal/repository"
	"vending/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()

	gormDB, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "purchase.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	//SQLiteは書き込みを1本にする
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return gormDB
}

func stockOf(t *testing.T, gormDB *gorm.DB, id int64) int64 {
	t.Helper()
	var p model.Product
	require.NoError(t, gormDB.First(&p, id).Error)
	return p.Stock
}

func countTransactions(t *testing.T, gormDB *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gormDB.Model(&model.Transaction{}).Count(&n).Error)
	return n
}

func TestPurchase_SQLite_Scenarios(t *testing.T) {
	ctx := context.Background()
	gormDB := openSQLite(t)

	p := model.Product{Name: "Air Mineral", Price: 2000, Stock: 10}
	require.NoError(t, gormDB.Create(&p).Error)

	uc := usecase.NewPurchaseUsecase(infraRepo.NewTxManagerGorm(gormDB), nil)

	out, err := uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(2000), Quantity: i64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), out.ChangeAmount)
	assert.Equal(t, int64(2000), out.TotalPrice)
	assert.Equal(t, int64(9), stockOf(t, gormDB, p.ID))

	var tx model.Transaction
	require.NoError(t, gormDB.First(&tx, out.TransactionID).Error)
	assert.Equal(t, "Air Mineral", tx.ProductName)
	assert.Equal(t, int64(2000), tx.PaidAmount)

	//失敗時は在庫も履歴も変わらない
	_, err = uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(1000), Quantity: i64(1)})
	assert.ErrorIs(t, err, usecase.ErrInsufficientPayment)
	_, err = uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(100000), Quantity: i64(10)})
	assert.ErrorIs(t, err, usecase.ErrInsufficientStock)
	_, err = uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID + 100), InsertedAmount: i64(2000), Quantity: i64(1)})
	assert.ErrorIs(t, err, usecase.ErrNotFound)

	assert.Equal(t, int64(9), stockOf(t, gormDB, p.ID))
	assert.Equal(t, int64(1), countTransactions(t, gormDB))
}

func TestPurchase_SQLite_ConcurrentNeverOversells(t *testing.T) {
	ctx := context.Background()
	gormDB := openSQLite(t)

	p := model.Product{Name: "Cokelat", Price: 50000, Stock: 5}
	require.NoError(t, gormDB.Create(&p).Error)

	uc := usecase.NewPurchaseUsecase(infraRepo.NewTxManagerGorm(gormDB), nil)

	const buyers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(50000), Quantity: i64(1)})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, usecase.ErrInsufficientStock)
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)
	assert.Equal(t, int64(0), stockOf(t, gormDB, p.ID))
	assert.Equal(t, int64(5), countTransactions(t, gormDB))
}

// 在庫チェックの後、条件付きUPDATEの直前に別の購入が在庫を持っていくInventory
type contendedInventory struct {
	repo.InventoryRepository
	taken int64
}

func (i contendedInventory) DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error) {
	if _, err := i.InventoryRepository.DecreaseStockIfEnough(ctx, productID, i.taken); err != nil {
		return false, err
	}
	return i.InventoryRepository.DecreaseStockIfEnough(ctx, productID, qty)
}

type contendedTxRepos struct {
	repo.TxRepos
	taken int64
}

func (r contendedTxRepos) Inventory() repo.InventoryRepository {
	return contendedInventory{InventoryRepository: r.TxRepos.Inventory(), taken: r.taken}
}

type contendedTxManager struct {
	inner repo.TransactionManager
	taken int64
}

func (m contendedTxManager) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	return m.inner.WithinTx(ctx, func(r repo.TxRepos) error {
		return fn(contendedTxRepos{TxRepos: r, taken: m.taken})
	})
}

func TestPurchase_SQLite_StockTakenAfterCheckIsRejected(t *testing.T) {
	ctx := context.Background()
	gormDB := openSQLite(t)

	p := model.Product{Name: "Cokelat", Price: 50000, Stock: 1}
	require.NoError(t, gormDB.Create(&p).Error)

	tm := contendedTxManager{inner: infraRepo.NewTxManagerGorm(gormDB), taken: 1}
	uc := usecase.NewPurchaseUsecase(tm, nil)

	_, err := uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(50000), Quantity: i64(1)})
	requireKind(t, err, usecase.ErrInsufficientStock, 400)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, "Stock tidak cukup", he.Message)

	//Txごと戻るので割り込んだ減算も残らない
	assert.Equal(t, int64(1), stockOf(t, gormDB, p.ID))
	assert.Equal(t, int64(0), countTransactions(t, gormDB))
}

func TestPurchase_SQLite_StockLeftAfterContentionStillSells(t *testing.T) {
	ctx := context.Background()
	gormDB := openSQLite(t)

	p := model.Product{Name: "Keripik", Price: 20000, Stock: 2}
	require.NoError(t, gormDB.Create(&p).Error)

	tm := contendedTxManager{inner: infraRepo.NewTxManagerGorm(gormDB), taken: 1}
	uc := usecase.NewPurchaseUsecase(tm, nil)

	_, err := uc.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(20000), Quantity: i64(1)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stockOf(t, gormDB, p.ID))
	assert.Equal(t, int64(1), countTransactions(t, gormDB))
}

// 画像の保存中に購入が入るImageStore
type purchasingImageStore struct {
	buy func()
}

func (s purchasingImageStore) Save(ctx context.Context, r io.Reader) (string, error) {
	s.buy()
	return "/uploads/edited.png", nil
}

func (s purchasingImageStore) Remove(ctx context.Context, url string) error { return nil }

func TestProductUpdate_SQLite_KeepsPurchaseDuringImageUpload(t *testing.T) {
	ctx := context.Background()
	gormDB := openSQLite(t)

	p := model.Product{Name: "Air Mineral", Price: 2000, Stock: 10}
	require.NoError(t, gormDB.Create(&p).Error)

	txm := infraRepo.NewTxManagerGorm(gormDB)
	purchases := usecase.NewPurchaseUsecase(txm, nil)
	images := purchasingImageStore{buy: func() {
		_, err := purchases.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(2000), Quantity: i64(1)})
		require.NoError(t, err)
	}}

	products := usecase.NewProductUsecase(infraRepo.NewProductGormRepository(gormDB), txm, images, nil)
	require.NoError(t, products.Update(ctx, 1, p.ID, usecase.ProductInput{
		Name:  str("Air Mineral 600ml"),
		Image: strings.NewReader("img"),
	}))

	var got model.Product
	require.NoError(t, gormDB.First(&got, p.ID).Error)
	assert.Equal(t, "Air Mineral 600ml", got.Name)
	assert.Equal(t, int64(9), got.Stock)
	require.NotNil(t, got.ImageURL)
	assert.Equal(t, "/uploads/edited.png", *got.ImageURL)
	assert.Equal(t, int64(1), countTransactions(t, gormDB))

	var adjustments int64
	require.NoError(t, gormDB.Model(&model.InventoryAdjustment{}).Count(&adjustments).Error)
	assert.Equal(t, int64(0), adjustments)
}

func TestProductUpdate_SQLite_StockEditDeltaSeesPurchase(t *testing.T) {
	ctx := context.Background()
	gormDB := openSQLite(t)

	p := model.Product{Name: "Teh Botol", Price: 5000, Stock: 8}
	require.NoError(t, gormDB.Create(&p).Error)

	txm := infraRepo.NewTxManagerGorm(gormDB)
	purchases := usecase.NewPurchaseUsecase(txm, nil)
	images := purchasingImageStore{buy: func() {
		_, err := purchases.Purchase(ctx, usecase.PurchaseInput{ProductID: i64(p.ID), InsertedAmount: i64(10000), Quantity: i64(2)})
		require.NoError(t, err)
	}}

	products := usecase.NewProductUsecase(infraRepo.NewProductGormRepository(gormDB), txm, images, nil)
	require.NoError(t, products.Update(ctx, 1, p.ID, usecase.ProductInput{
		Stock: i64(10),
		Image: strings.NewReader("img"),
	}))

	assert.Equal(t, int64(10), stockOf(t, gormDB, p.ID))

	var adj model.InventoryAdjustment
	require.NoError(t, gormDB.Where("product_id = ?", p.ID).First(&adj).Error)
	//購入後の6から10へ
	assert.Equal(t, int64(4), adj.Delta)
}
