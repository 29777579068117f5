package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"time"

	"vending/internal/domain/model"
	repo "vending/internal/repository"

	"go.uber.org/zap"
)

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	images   ImageStore
	cache    ProductCache
}

// DI
func NewProductUsecase(
	products repo.ProductRepository,
	tx repo.TransactionManager,
	images ImageStore,
	cache ProductCache,
) *ProductUsecase {
	if cache == nil {
		cache = NoopProductCache{}
	}
	return &ProductUsecase{
		products: products,
		tx:       tx,
		images:   images,
		cache:    cache,
	}
}

// 作成・更新の入力。更新時はnilの項目を変更しない
type ProductInput struct {
	Name  *string
	Price *int64
	Stock *int64
	Image io.Reader // なければnil
}

// limitがnilなら全件、0なら空
func (u *ProductUsecase) List(ctx context.Context, limit *int) ([]model.Product, error) {
	n := repo.NoLimit
	if limit != nil {
		if *limit < 0 {
			return nil, NewHTTPError(ErrInvalidInput, "Invalid limit")
		}
		n = *limit
	}

	//DBを読む前の世代で保存する。途中でInvalidateされたらその一覧は使われない
	version, err := u.cache.Version(ctx)
	useCache := err == nil
	if err != nil {
		zap.L().Warn("product cache version failed", zap.Error(err))
	}

	if useCache {
		if items, ok, err := u.cache.Get(ctx, version, n); err != nil {
			zap.L().Warn("product cache get failed", zap.Error(err))
		} else if ok {
			return items, nil
		}
	}

	items, err := u.products.List(ctx, n)
	if err != nil {
		zap.L().Error("list products failed", zap.Error(err))
		return nil, NewHTTPError(ErrInternal, "Error fetching products")
	}

	if useCache {
		if err := u.cache.Set(ctx, version, n, items); err != nil {
			zap.L().Warn("product cache set failed", zap.Error(err))
		}
	}
	return items, nil
}

func (u *ProductUsecase) Get(ctx context.Context, id int64) (model.Product, error) {
	if id <= 0 {
		return model.Product{}, NewHTTPError(ErrNotFound, "Product not found")
	}
	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewHTTPError(ErrNotFound, "Product not found")
	}
	if err != nil {
		return model.Product{}, NewHTTPError(ErrInternal, "Error fetching product")
	}
	return p, nil
}

func (u *ProductUsecase) Create(ctx context.Context, actorID int64, in ProductInput) (model.Product, error) {
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return model.Product{}, NewHTTPError(ErrInvalidInput, "Name is required")
	}
	if in.Price == nil {
		return model.Product{}, NewHTTPError(ErrInvalidInput, "Price is required")
	}
	if *in.Price < 0 {
		return model.Product{}, NewHTTPError(ErrInvalidInput, "Price must be >= 0")
	}
	var stock int64
	if in.Stock != nil {
		stock = *in.Stock
	}
	if stock < 0 {
		return model.Product{}, NewHTTPError(ErrInvalidInput, "Stock must be >= 0")
	}

	p := model.Product{
		Name:  strings.TrimSpace(*in.Name),
		Price: *in.Price,
		Stock: stock,
	}

	imageURL, err := u.saveImage(ctx, in.Image)
	if err != nil {
		return model.Product{}, err
	}
	p.ImageURL = imageURL

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		created, err := r.Products().Create(ctx, p)
		if err != nil {
			return err
		}
		p = created
		return r.AuditLogs().Create(ctx, auditLog(actorID, model.AuditActionCreateProduct, model.AuditResourceProduct, p.ID, nil, p))
	})
	if err != nil {
		zap.L().Error("create product failed", zap.Error(err))
		u.removeImage(ctx, imageURL)
		return model.Product{}, NewHTTPError(ErrInternal, "Error creating product")
	}

	u.invalidate(ctx)
	zap.L().Info("product created", zap.Int64("product_id", p.ID), zap.Stringp("image_url", p.ImageURL))
	return p, nil
}

func (u *ProductUsecase) Update(ctx context.Context, actorID int64, id int64, in ProductInput) error {
	if id <= 0 {
		return NewHTTPError(ErrNotFound, "Product not found")
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return NewHTTPError(ErrInvalidInput, "Name is required")
	}
	if in.Price != nil && *in.Price < 0 {
		return NewHTTPError(ErrInvalidInput, "Price must be >= 0")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return NewHTTPError(ErrInvalidInput, "Stock must be >= 0")
	}

	//画像がなければ既存のimageUrlを残す
	newImage, err := u.saveImage(ctx, in.Image)
	if err != nil {
		return err
	}

	upd := repo.ProductUpdate{
		Price:    in.Price,
		Stock:    in.Stock,
		ImageURL: newImage,
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		upd.Name = &name
	}

	//購入と同じ行を読むのでロックしてから差分を取る
	var before, after model.Product
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before = p

		after = applyProductUpdate(before, upd)
		if err := r.Products().Update(ctx, id, upd); err != nil {
			return err
		}
		if delta := after.Stock - before.Stock; delta != 0 {
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID:   id,
				AdminUserID: actorID,
				Delta:       delta,
				Reason:      "admin edit",
			}); err != nil {
				return err
			}
		}
		return r.AuditLogs().Create(ctx, auditLog(actorID, model.AuditActionUpdateProduct, model.AuditResourceProduct, id, before, after))
	})
	if err != nil {
		u.removeImage(ctx, newImage)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(ErrNotFound, "Product not found")
		}
		zap.L().Error("update product failed", zap.Int64("product_id", id), zap.Error(err))
		return NewHTTPError(ErrInternal, "Error updating product")
	}

	//差し替えた古い画像は消す
	if newImage != nil {
		u.removeImage(ctx, before.ImageURL)
	}

	u.invalidate(ctx)
	zap.L().Info("product updated", zap.Int64("product_id", id), zap.Stringp("image_url", after.ImageURL))
	return nil
}

func (u *ProductUsecase) Delete(ctx context.Context, actorID int64, id int64) error {
	if id <= 0 {
		return NewHTTPError(ErrNotFound, "Product not found")
	}

	p, err := u.products.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(ErrNotFound, "Product not found")
	}
	if err != nil {
		return NewHTTPError(ErrInternal, "Error deleting product")
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Products().Delete(ctx, id); err != nil {
			return err
		}
		return r.AuditLogs().Create(ctx, auditLog(actorID, model.AuditActionDeleteProduct, model.AuditResourceProduct, id, p, nil))
	})
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(ErrNotFound, "Product not found")
	}
	if err != nil {
		zap.L().Error("delete product failed", zap.Int64("product_id", id), zap.Error(err))
		return NewHTTPError(ErrInternal, "Error deleting product")
	}

	//画像削除はベストエフォート（失敗してもログだけ）
	u.removeImage(ctx, p.ImageURL)

	u.invalidate(ctx)
	zap.L().Info("product deleted", zap.Int64("product_id", id))
	return nil
}

func applyProductUpdate(p model.Product, upd repo.ProductUpdate) model.Product {
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.ImageURL != nil {
		p.ImageURL = upd.ImageURL
	}
	if upd.Price != nil {
		p.Price = *upd.Price
	}
	if upd.Stock != nil {
		p.Stock = *upd.Stock
	}
	return p
}

// 商品が1件もなければ初期商品を入れる
func (u *ProductUsecase) SeedDefaults(ctx context.Context) (bool, error) {
	n, err := u.products.Count(ctx)
	if err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}

	if err := u.products.CreateBulk(ctx, DefaultProducts()); err != nil {
		return false, err
	}
	u.invalidate(ctx)
	return true, nil
}

// DefaultProducts は空のDBに入れる初期商品
func DefaultProducts() []model.Product {
	img := func(s string) *string { return &s }
	return []model.Product{
		{Name: "Air Mineral", ImageURL: img("https://i.imgur.com/I7sZ8vN.png"), Price: 2000, Stock: 10},
		{Name: "Teh Botol", ImageURL: img("https://i.imgur.com/6Q2T8uK.png"), Price: 5000, Stock: 8},
		{Name: "Kopi Kaleng", ImageURL: img("https://i.imgur.com/6zGm1cw.png"), Price: 10000, Stock: 6},
		{Name: "Keripik", ImageURL: img("https://i.imgur.com/1nF7h7q.png"), Price: 20000, Stock: 5},
		{Name: "Cokelat", ImageURL: img("https://i.imgur.com/Nv3C0z0.png"), Price: 50000, Stock: 4},
	}
}

func (u *ProductUsecase) saveImage(ctx context.Context, r io.Reader) (*string, error) {
	if r == nil {
		return nil, nil
	}
	url, err := u.images.Save(ctx, r)
	if errors.Is(err, ErrNotImage) {
		return nil, NewHTTPError(ErrInvalidInput, "Only image files are allowed!")
	}
	if err != nil {
		zap.L().Error("save image failed", zap.Error(err))
		return nil, NewHTTPError(ErrInternal, "Error saving image")
	}
	return &url, nil
}

func (u *ProductUsecase) removeImage(ctx context.Context, url *string) {
	if url == nil || *url == "" {
		return
	}
	if err := u.images.Remove(ctx, *url); err != nil {
		zap.L().Warn("remove image failed", zap.String("image_url", *url), zap.Error(err))
	}
}

func (u *ProductUsecase) invalidate(ctx context.Context) {
	if err := u.cache.Invalidate(ctx); err != nil {
		zap.L().Warn("product cache invalidate failed", zap.Error(err))
	}
}

// 監査ログの組み立て。before/afterはnilなら空文字
func auditLog(actorID int64, action model.AuditAction, rt model.AuditResourceType, id int64, before, after interface{}) model.AuditLog {
	return model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: rt,
		ResourceID:   id,
		BeforeJSON:   toJSON(before),
		AfterJSON:    toJSON(after),
		CreatedAt:    time.Now(),
	}
}

func toJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
