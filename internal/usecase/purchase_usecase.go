package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"go.uber.org/zap"
)

// 購入処理（在庫チェック・お釣り計算・在庫減算・履歴作成）
type PurchaseUsecase struct {
	tx    repo.TransactionManager
	cache ProductCache
}

// DI
func NewPurchaseUsecase(tx repo.TransactionManager, cache ProductCache) *PurchaseUsecase {
	if cache == nil {
		cache = NoopProductCache{}
	}
	return &PurchaseUsecase{tx: tx, cache: cache}
}

// POST /purchase の入力。未指定を区別するためポインタ
type PurchaseInput struct {
	ProductID      *int64
	InsertedAmount *int64
	Quantity       *int64
}

type PurchaseOutput struct {
	Message       string `json:"msg"`
	ChangeAmount  int64  `json:"changeAmount"`
	TotalPrice    int64  `json:"totalPrice"`
	TransactionID int64  `json:"transactionId"`
}

func (u *PurchaseUsecase) Purchase(ctx context.Context, in PurchaseInput) (PurchaseOutput, error) {
	log := zap.L().With(
		zap.Int64p("product_id", in.ProductID),
		zap.Int64p("inserted_amount", in.InsertedAmount),
		zap.Int64p("quantity", in.Quantity),
	)
	log.Info("purchase request received")

	//入力チェック（0も未指定扱い）
	if isZero(in.ProductID) || isZero(in.InsertedAmount) || isZero(in.Quantity) {
		log.Warn("purchase rejected: missing required fields")
		return PurchaseOutput{}, NewHTTPError(ErrInvalidInput, "Missing required fields")
	}
	productID, inserted, qty := *in.ProductID, *in.InsertedAmount, *in.Quantity
	if qty <= 0 {
		log.Warn("purchase rejected: invalid quantity")
		return PurchaseOutput{}, NewHTTPError(ErrInvalidInput, "Quantity must be greater than 0")
	}
	if inserted <= 0 {
		log.Warn("purchase rejected: invalid inserted amount")
		return PurchaseOutput{}, NewHTTPError(ErrInvalidInput, "Inserted amount must be greater than 0")
	}
	if productID < 0 {
		return PurchaseOutput{}, NewHTTPError(ErrNotFound, "Product not found")
	}

	var out PurchaseOutput

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if errors.Is(err, repo.ErrNotFound) {
			log.Warn("purchase rejected: product not found")
			return NewHTTPError(ErrNotFound, "Product not found")
		}
		if err != nil {
			return err
		}

		//在庫チェック
		if p.Stock < qty {
			log.Warn("purchase rejected: insufficient stock", zap.Int64("available", p.Stock))
			return NewHTTPError(ErrInsufficientStock, "Stock tidak cukup")
		}

		//合計金額（オーバーフローは入力不正扱い）
		if p.Price > 0 && qty > math.MaxInt64/p.Price {
			return NewHTTPError(ErrInvalidInput, "Quantity too large")
		}
		total := p.Price * qty

		if inserted < total {
			log.Warn("purchase rejected: insufficient payment",
				zap.Int64("required", total),
				zap.Int64("shortfall", total-inserted),
			)
			return NewHTTPError(ErrInsufficientPayment, "Uang tidak cukup")
		}
		change := inserted - total

		//在庫減算。チェック後に他の購入で減っていたらここで弾かれる
		ok, err := r.Inventory().DecreaseStockIfEnough(ctx, productID, qty)
		if err != nil {
			return err
		}
		if !ok {
			log.Warn("purchase rejected: stock changed concurrently")
			return NewHTTPError(ErrInsufficientStock, "Stock tidak cukup")
		}

		//購入時点の商品名・金額を残す
		t, err := r.Transactions().Create(ctx, model.Transaction{
			ProductID:    productID,
			ProductName:  p.Name,
			Quantity:     qty,
			PaidAmount:   inserted,
			ChangeAmount: change,
			TotalPrice:   total,
		})
		if err != nil {
			return err
		}

		out = PurchaseOutput{
			Message:       fmt.Sprintf("Berhasil membeli %d %s", qty, p.Name),
			ChangeAmount:  change,
			TotalPrice:    total,
			TransactionID: t.ID,
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return PurchaseOutput{}, err
		}
		log.Error("purchase failed", zap.Error(err))
		return PurchaseOutput{}, NewHTTPError(ErrInternal, "Error processing purchase")
	}

	//在庫が変わったので一覧キャッシュを捨てる
	if err := u.cache.Invalidate(ctx); err != nil {
		log.Warn("product cache invalidate failed", zap.Error(err))
	}

	log.Info("purchase completed",
		zap.Int64("transaction_id", out.TransactionID),
		zap.Int64("total_price", out.TotalPrice),
		zap.Int64("change_amount", out.ChangeAmount),
	)
	return out, nil
}

func isZero(v *int64) bool {
	return v == nil || *v == 0
}
