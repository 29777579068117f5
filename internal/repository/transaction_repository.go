package repository

import (
	"context"

	"vending/internal/domain/model"
)

// 購入履歴の保存・一覧・削除。更新はしない。
type TransactionRepository interface {
	Create(ctx context.Context, t model.Transaction) (model.Transaction, error)
	FindByID(ctx context.Context, id int64) (model.Transaction, error)

	//新しい順
	List(ctx context.Context) ([]model.Transaction, error)
	Delete(ctx context.Context, id int64) error
}
