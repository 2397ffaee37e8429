package db

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/cache"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

// Cache is the subset of cache.RedisCache the decorator needs.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}) error
	SetFor(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// Writes leave a fence next to every key they evict. A read that loaded from
// the store before the write committed finds the fence and drops its fill, so
// an old record is never cached past an update or delete.
const fenceTTL = 10 * time.Second

// CachedProductRepository is a read-through cache in front of a ProductStore.
// Cache failures are logged and never fail the request.
type CachedProductRepository struct {
	repo  ProductStore
	cache Cache
	log   *zap.Logger
}

func NewCachedProductRepository(repo ProductStore, cache Cache, log *zap.Logger) *CachedProductRepository {
	return &CachedProductRepository{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// Cache key helpers
func productKey(id string) string {
	return "product:" + id
}

func ownerProductsKey(owner string) string {
	return "products:owner:" + owner
}

func fenceKey(key string) string {
	return key + ":fence"
}

func (r *CachedProductRepository) ListByOwner(ctx context.Context, owner string) ([]models.Product, error) {
	cacheKey := ownerProductsKey(owner)

	var products []models.Product
	err := r.cache.Get(ctx, cacheKey, &products)
	if err == nil {
		r.log.Debug("Cache HIT", zap.String("key", cacheKey))
		return products, nil
	}
	r.logMiss(cacheKey, err)

	products, err = r.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}

	r.fill(ctx, cacheKey, products)
	return products, nil
}

func (r *CachedProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	cacheKey := productKey(id)

	var product models.Product
	err := r.cache.Get(ctx, cacheKey, &product)
	if err == nil {
		r.log.Debug("Cache HIT", zap.String("key", cacheKey))
		return &product, nil
	}
	r.logMiss(cacheKey, err)

	p, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if p == nil {
		return nil, nil
	}

	r.fill(ctx, cacheKey, p)
	return p, nil
}

func (r *CachedProductRepository) Create(ctx context.Context, product *models.Product) error {
	if err := r.repo.Create(ctx, product); err != nil {
		return err
	}

	r.evict(ctx, ownerProductsKey(product.Owner))
	return nil
}

func (r *CachedProductRepository) Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	p, err := r.repo.Update(ctx, id, update)
	if err != nil || p == nil {
		return p, err
	}

	r.evict(ctx, productKey(id), ownerProductsKey(p.Owner))
	return p, nil
}

func (r *CachedProductRepository) Delete(ctx context.Context, id string) error {
	// The owner's list key can only be found through the record
	existing, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	keys := []string{productKey(id)}
	if existing != nil {
		keys = append(keys, ownerProductsKey(existing.Owner))
	}
	r.evict(ctx, keys...)
	return nil
}

func (r *CachedProductRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*models.Product, error) {
	p, err := r.repo.AdjustQuantity(ctx, id, delta)
	if err != nil {
		return nil, err
	}

	r.evict(ctx, productKey(id), ownerProductsKey(p.Owner))
	return p, nil
}

func (r *CachedProductRepository) Ping(ctx context.Context) error {
	return r.repo.Ping(ctx)
}

// fill caches value unless a write fenced the key. The fence is checked again
// after the Set because a write may land between the check and the Set.
func (r *CachedProductRepository) fill(ctx context.Context, key string, value interface{}) {
	if r.fenced(ctx, key) {
		return
	}
	if err := r.cache.Set(ctx, key, value); err != nil {
		r.log.Warn("Failed to cache value", zap.String("key", key), zap.Error(err))
		return
	}
	if r.fenced(ctx, key) {
		r.invalidate(ctx, key)
	}
}

func (r *CachedProductRepository) fenced(ctx context.Context, key string) bool {
	ok, err := r.cache.Exists(ctx, fenceKey(key))
	if err != nil {
		r.log.Warn("Cache error", zap.String("key", fenceKey(key)), zap.Error(err))
		return true
	}
	return ok
}

// evict fences keys and then removes them. Called after every write.
func (r *CachedProductRepository) evict(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if err := r.cache.SetFor(ctx, fenceKey(key), true, fenceTTL); err != nil {
			r.log.Warn("Failed to fence cache key", zap.String("key", key), zap.Error(err))
		}
	}
	r.invalidate(ctx, keys...)
}

func (r *CachedProductRepository) invalidate(ctx context.Context, keys ...string) {
	if err := r.cache.Delete(ctx, keys...); err != nil {
		r.log.Warn("Failed to invalidate cache", zap.Strings("keys", keys), zap.Error(err))
		return
	}
	r.log.Debug("Cache invalidated", zap.Strings("keys", keys))
}

func (r *CachedProductRepository) logMiss(key string, err error) {
	if !errors.Is(err, cache.ErrMiss) {
		r.log.Warn("Cache error", zap.String("key", key), zap.Error(err))
	}
	r.log.Debug("Cache MISS", zap.String("key", key))
}
