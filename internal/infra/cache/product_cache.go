package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"vending/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

const defaultKey = "vending:products"

// ProductListCache は GET /products の結果を世代ごとのRedis hashへlimit毎に置く。
// 商品が変わったら世代を進めるので、古い一覧は新しい世代から読まれずTTLで消える。
type ProductListCache struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewProductListCache(client *redis.Client, ttl time.Duration) *ProductListCache {
	return &ProductListCache{client: client, key: defaultKey, ttl: ttl}
}

// WithKey はキーを差し替える（テストでの衝突回避）
func (c *ProductListCache) WithKey(key string) *ProductListCache {
	c.key = key
	return c
}

func (c *ProductListCache) versionKey() string {
	return c.key + ":ver"
}

func (c *ProductListCache) hashKey(version int64) string {
	return fmt.Sprintf("%s:v%d", c.key, version)
}

// Version は現在の世代。まだ一度もInvalidateされていなければ0
func (c *ProductListCache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *ProductListCache) Get(ctx context.Context, version int64, limit int) ([]model.Product, bool, error) {
	raw, err := c.client.HGet(ctx, c.hashKey(version), strconv.Itoa(limit)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var items []model.Product
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false, err
	}
	return items, true, nil
}

func (c *ProductListCache) Set(ctx context.Context, version int64, limit int, items []model.Product) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}

	key := c.hashKey(version)
	pipe := c.client.TxPipeline()
	pipe.HSet(ctx, key, strconv.Itoa(limit), raw)
	pipe.Expire(ctx, key, c.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

// Invalidate は世代を進め、ひとつ前の世代のhashを消す
func (c *ProductListCache) Invalidate(ctx context.Context) error {
	v, err := c.client.Incr(ctx, c.versionKey()).Result()
	if err != nil {
		return err
	}
	return c.client.Del(ctx, c.hashKey(v-1)).Err()
}

