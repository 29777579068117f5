package usecase

import (
	"context"
	"errors"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"go.uber.org/zap"
)

// 購入履歴（管理者用）
type TransactionUsecase struct {
	transactions repo.TransactionRepository
	tx           repo.TransactionManager
}

// DI
func NewTransactionUsecase(transactions repo.TransactionRepository, tx repo.TransactionManager) *TransactionUsecase {
	return &TransactionUsecase{transactions: transactions, tx: tx}
}

// 新しい順
func (u *TransactionUsecase) List(ctx context.Context) ([]model.Transaction, error) {
	items, err := u.transactions.List(ctx)
	if err != nil {
		zap.L().Error("list transactions failed", zap.Error(err))
		return nil, NewHTTPError(ErrInternal, "Error fetching transactions")
	}
	return items, nil
}

// 履歴だけ消す。在庫は戻さない
func (u *TransactionUsecase) Delete(ctx context.Context, actorID int64, id int64) error {
	if id <= 0 {
		return NewHTTPError(ErrNotFound, "Transaction not found")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		t, err := r.Transactions().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := r.Transactions().Delete(ctx, id); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditLog(actorID, model.AuditActionDeleteTransaction, model.AuditResourceTransaction, id, t, nil))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(ErrNotFound, "Transaction not found")
	}
	if err != nil {
		zap.L().Error("delete transaction failed", zap.Int64("transaction_id", id), zap.Error(err))
		return NewHTTPError(ErrInternal, "Error deleting transaction")
	}

	zap.L().Info("transaction deleted", zap.Int64("transaction_id", id), zap.Int64("actor_user_id", actorID))
	return nil
}
