package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
	"storefront/internal/catalog"
	"storefront/internal/entity"
	"storefront/internal/repository"
	"time"
)

const (
	notFoundMarker = "notfound"
	listIndexKey   = "products:lists"
	categoriesKey  = "categories:all"
)

func productKey(id int) string { return fmt.Sprintf("product:%d", id) }

func listKey(q catalog.Query) string { return "products:list:" + q.Key() }

// CachedProductRepository is a cache-aside decorator. Redis failures are
// logged and the call falls through to the wrapped repository.
type CachedProductRepository struct {
	realRepo repository.ProductRepository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedProductRepository(realRepo repository.ProductRepository, rdb *redis.Client) *CachedProductRepository {
	return &CachedProductRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      5 * time.Minute,
	}
}

func (c *CachedProductRepository) GetByID(ctx context.Context, id int) (*entity.Product, error) {
	key := productKey(id)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		if string(data) == notFoundMarker {
			return nil, fmt.Errorf("get product: %w", repository.ErrNotFound)
		}
		var product entity.Product
		if err := json.Unmarshal(data, &product); err != nil {
			logger.Warn().Err(err).Msgf("Bad cached product %d, reading through", id)
			break
		}
		return &product, nil
	case errors.Is(err, redis.Nil):
	default:
		logger.Error().Err(err).Msgf("Error getting product %d from cache", id)
	}

	product, err := c.realRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		if setErr := c.redis.Set(ctx, key, notFoundMarker, time.Minute).Err(); setErr != nil {
			logger.Error().Err(setErr).Msgf("Error caching missing product %d", id)
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, product)
	return product, nil
}

func (c *CachedProductRepository) List(ctx context.Context, q catalog.Query) ([]entity.Product, error) {
	key := listKey(q)

	data, err := c.redis.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var products []entity.Product
		if err := json.Unmarshal(data, &products); err == nil {
			return products, nil
		}
		logger.Warn().Msgf("Bad cached list %s, reading through", key)
	case errors.Is(err, redis.Nil):
	default:
		logger.Error().Err(err).Msgf("Error getting %s from cache", key)
	}

	products, err := c.realRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	if c.store(ctx, key, products) {
		if err := c.redis.SAdd(ctx, listIndexKey, key).Err(); err != nil {
			logger.Error().Err(err).Msgf("Error indexing %s", key)
		}
	}
	return products, nil
}

func (c *CachedProductRepository) store(ctx context.Context, key string, v interface{}) bool {
	data, err := json.Marshal(v)
	if err != nil {
		logger.Error().Err(err).Msgf("Error marshalling %s", key)
		return false
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error setting %s in cache", key)
		return false
	}
	return true
}

// PreWarm loads the default listing and every product into the cache.
func (c *CachedProductRepository) PreWarm(ctx context.Context) error {
	products, err := c.realRepo.List(ctx, catalog.Query{})
	if err != nil {
		logger.Error().Err(err).Msg("Error getting products")
		return err
	}

	key := listKey(catalog.Query{})
	if c.store(ctx, key, products) {
		if err := c.redis.SAdd(ctx, listIndexKey, key).Err(); err != nil {
			logger.Error().Err(err).Msgf("Error indexing %s", key)
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for i := range products {
		product := &products[i]
		g.Go(func() error {
			c.store(gctx, productKey(product.ID), product)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info().Msgf("Pre-warmed cache with %d products", len(products))
	return nil
}

func (c *CachedProductRepository) Create(ctx context.Context, product *entity.Product) error {
	if err := c.realRepo.Create(ctx, product); err != nil {
		return err
	}
	c.InvalidateProducts(ctx, product.ID)
	return nil
}

func (c *CachedProductRepository) Update(ctx context.Context, product *entity.Product) error {
	err := c.realRepo.Update(ctx, product)
	c.InvalidateProducts(ctx, product.ID)
	return err
}

func (c *CachedProductRepository) Delete(ctx context.Context, id int) error {
	err := c.realRepo.Delete(ctx, id)
	c.InvalidateProducts(ctx, id)
	return err
}

func (c *CachedProductRepository) AdjustStock(ctx context.Context, id int, change int) error {
	err := c.realRepo.AdjustStock(ctx, id, change)
	c.InvalidateProducts(ctx, id)
	return err
}

// InvalidateProducts drops the given product entries and every cached list.
func (c *CachedProductRepository) InvalidateProducts(ctx context.Context, ids ...int) {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, productKey(id))
	}

	lists, err := c.redis.SMembers(ctx, listIndexKey).Result()
	if err != nil {
		logger.Error().Err(err).Msg("Error reading cached product lists")
	}
	keys = append(keys, lists...)
	keys = append(keys, listIndexKey)

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		logger.Error().Err(err).Msgf("Error deleting %d product cache keys", len(keys))
	}
}

type CachedCategoryRepository struct {
	realRepo repository.CategoryRepository
	redis    *redis.Client
	ttl      time.Duration
}

func NewCachedCategoryRepository(realRepo repository.CategoryRepository, rdb *redis.Client) *CachedCategoryRepository {
	return &CachedCategoryRepository{
		realRepo: realRepo,
		redis:    rdb,
		ttl:      10 * time.Minute,
	}
}

func (c *CachedCategoryRepository) List(ctx context.Context) ([]entity.Category, error) {
	data, err := c.redis.Get(ctx, categoriesKey).Bytes()
	if err == nil {
		var categories []entity.Category
		if err := json.Unmarshal(data, &categories); err == nil {
			return categories, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Error().Err(err).Msg("Error getting categories from cache")
	}

	categories, err := c.realRepo.List(ctx)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(categories); err == nil {
		if err := c.redis.Set(ctx, categoriesKey, data, c.ttl).Err(); err != nil {
			logger.Error().Err(err).Msg("Error setting categories in cache")
		}
	}
	return categories, nil
}

func (c *CachedCategoryRepository) GetByID(ctx context.Context, id int) (*entity.Category, error) {
	return c.realRepo.GetByID(ctx, id)
}

func (c *CachedCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	if err := c.realRepo.Create(ctx, category); err != nil {
		return err
	}
	if err := c.redis.Del(ctx, categoriesKey).Err(); err != nil {
		logger.Error().Err(err).Msg("Error deleting categories cache")
	}
	return nil
}
