package repository

import (
	"context"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"gorm.io/gorm"
)

type TransactionGormRepository struct {
	db *gorm.DB
}

func NewTransactionGormRepository(db *gorm.DB) *TransactionGormRepository {
	return &TransactionGormRepository{db: db}
}

func (r *TransactionGormRepository) Create(ctx context.Context, t model.Transaction) (model.Transaction, error) {
	if err := r.db.WithContext(ctx).Create(&t).Error; err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

func (r *TransactionGormRepository) FindByID(ctx context.Context, id int64) (model.Transaction, error) {
	var t model.Transaction
	err := r.db.WithContext(ctx).First(&t, id).Error
	if isNotFound(err) {
		return model.Transaction{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Transaction{}, err
	}
	return t, nil
}

// 新しい順（同時刻はid降順）
func (r *TransactionGormRepository) List(ctx context.Context) ([]model.Transaction, error) {
	items := []model.Transaction{}
	err := r.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&items).Error
	if err != nil {
		return []model.Transaction{}, err
	}
	return items, nil
}

// 履歴の削除。在庫は戻さない
func (r *TransactionGormRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.Transaction{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
