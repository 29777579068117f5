package usecase

import (
	"context"
	"errors"
	"io"

	"vending/internal/domain/model"
)

// 画像として判定できなかったとき ImageStore.Save が返す
var ErrNotImage = errors.New("only image files are allowed")

// アップロード画像の保存先
type ImageStore interface {
	//保存して公開URL（/uploads/xxx）を返す
	Save(ctx context.Context, r io.Reader) (string, error)
	//失敗してもレコード削除は止めない
	Remove(ctx context.Context, url string) error
}

// GET /products のキャッシュ。
// 世代はInvalidateで進む。古い世代で読んだ一覧をSetしても新しい世代からは見えない
type ProductCache interface {
	Version(ctx context.Context) (int64, error)
	Get(ctx context.Context, version int64, limit int) ([]model.Product, bool, error)
	Set(ctx context.Context, version int64, limit int, items []model.Product) error
	Invalidate(ctx context.Context) error
}

// キャッシュなしのとき用
type NoopProductCache struct{}

func (NoopProductCache) Version(ctx context.Context) (int64, error) { return 0, nil }
func (NoopProductCache) Get(ctx context.Context, version int64, limit int) ([]model.Product, bool, error) {
	return nil, false, nil
}
func (NoopProductCache) Set(ctx context.Context, version int64, limit int, items []model.Product) error {
	return nil
}
func (NoopProductCache) Invalidate(ctx context.Context) error { return nil }
