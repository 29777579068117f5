package repository

import (
	"context"

	"vending/internal/domain/model"
)

type InventoryRepository interface {
	// 在庫が足りるときだけ減算（1本のUPDATEで判定と減算を行う）
	DecreaseStockIfEnough(ctx context.Context, productID int64, qty int64) (bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
