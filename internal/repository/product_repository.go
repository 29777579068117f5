package repository

import (
	"context"
	"errors"

	"vending/internal/domain/model"
)

var ErrNotFound = errors.New("not found")

// 一意制約違反（emailの重複など）
var ErrDuplicate = errors.New("duplicate")

// List で件数を絞らないとき
const NoLimit = -1

// 商品の部分更新。nilの項目は書き換えない
type ProductUpdate struct {
	Name     *string
	ImageURL *string
	Price    *int64
	Stock    *int64
}

func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.ImageURL == nil && u.Price == nil && u.Stock == nil
}

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	//limitが負なら全件、0なら空
	List(ctx context.Context, limit int) ([]model.Product, error)
	FindByID(ctx context.Context, id int64) (model.Product, error)
	//Tx内で使う。コミットまで他の更新を待たせる
	FindByIDForUpdate(ctx context.Context, id int64) (model.Product, error)
	Count(ctx context.Context) (int64, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	CreateBulk(ctx context.Context, ps []model.Product) error
	Update(ctx context.Context, id int64, u ProductUpdate) error
	Delete(ctx context.Context, id int64) error
}
