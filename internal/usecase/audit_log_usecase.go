package usecase

import (
	"context"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"go.uber.org/zap"
)

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type AuditLogUsecase struct {
	logs repo.AuditLogRepository
}

func NewAuditLogUsecase(logs repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{logs: logs}
}

// 新しい順。limitは1〜200に丸める
func (u *AuditLogUsecase) List(ctx context.Context, filter repo.AuditLogFilter) ([]model.AuditLog, error) {
	if filter.Offset < 0 {
		return nil, NewHTTPError(ErrInvalidInput, "Invalid offset")
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultAuditLimit
	}
	if filter.Limit > maxAuditLimit {
		filter.Limit = maxAuditLimit
	}

	items, err := u.logs.List(ctx, filter)
	if err != nil {
		zap.L().Error("list audit logs failed", zap.Error(err))
		return nil, NewHTTPError(ErrInternal, "Error fetching audit logs")
	}
	return items, nil
}
