package repository

import (
	"context"
	"time"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"gorm.io/gorm"
)

// AuditLogGormRepository は管理者操作の記録。商品・購入履歴の変更と同じTxで書く
type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, entry model.AuditLog) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(&entry).Error
}

// 新しい順。limit/offsetの補正はusecase側で済ませておく
func (r *AuditLogGormRepository) List(ctx context.Context, f repo.AuditLogFilter) ([]model.AuditLog, error) {
	entries := []model.AuditLog{}
	err := r.db.WithContext(ctx).
		Scopes(
			whereEq("actor_user_id", f.ActorUserID),
			whereEq("action", f.Action),
			whereEq("resource_type", f.ResourceType),
			whereEq("resource_id", f.ResourceID),
			paginate(f.Limit, f.Offset),
		).
		Order("id desc").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// nilなら条件を付けない
func whereEq[T any](col string, v *T) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if v == nil {
			return db
		}
		return db.Where(col+" = ?", *v)
	}
}

func paginate(limit, offset int) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if limit > 0 {
			db = db.Limit(limit)
		}
		if offset > 0 {
			db = db.Offset(offset)
		}
		return db
	}
}
