package sentimiento

import (
	"path/filepath"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// ModelLoader loads the model stored at path.
type ModelLoader func(path string) (*Model, error)

// ModelCache holds one loaded model per path so a process reads each model
// file once. It is meant to be owned by the application's composition root
// and shared by request handlers. Concurrent first calls for a path wait for
// a single load; loads of different paths run independently.
type ModelCache struct {
	group singleflight.Group
	items *cache.Cache
	load  ModelLoader
	ttl   time.Duration
	log   logrus.FieldLogger
}

// ModelCacheOpt configures a ModelCache.
type ModelCacheOpt func(*ModelCache)

// WithModelLoader replaces ModelFromDisk as the loader.
func WithModelLoader(load ModelLoader) ModelCacheOpt {
	return func(c *ModelCache) {
		c.load = load
	}
}

// WithCacheTTL evicts models that were loaded longer than ttl ago, so a
// retrained model on disk is picked up without a restart. Zero keeps
// models until Invalidate.
func WithCacheTTL(ttl time.Duration) ModelCacheOpt {
	return func(c *ModelCache) {
		c.ttl = ttl
	}
}

// WithCacheLogger sets the cache's logger.
func WithCacheLogger(log logrus.FieldLogger) ModelCacheOpt {
	return func(c *ModelCache) {
		c.log = log
	}
}

// NewModelCache creates an empty cache.
func NewModelCache(opts ...ModelCacheOpt) *ModelCache {
	c := &ModelCache{
		load: ModelFromDisk,
		log:  logrus.StandardLogger(),
	}
	for _, applyOpt := range opts {
		applyOpt(c)
	}

	if c.ttl > 0 {
		c.items = cache.New(c.ttl, c.ttl)
	} else {
		c.items = cache.New(cache.NoExpiration, 0)
	}
	return c
}

func cacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

// Get returns the model at path, loading it on first use. Failed loads are
// not cached.
func (c *ModelCache) Get(path string) (*Model, error) {
	key := cacheKey(path)
	if v, ok := c.items.Get(key); ok {
		return v.(*Model), nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A load that finished just before this call already stored it.
		if v, ok := c.items.Get(key); ok {
			return v, nil
		}

		start := time.Now()
		m, err := c.load(path)
		if err != nil {
			return nil, err
		}
		c.items.Set(key, m, cache.DefaultExpiration)
		c.log.WithFields(logrus.Fields{
			"path":     key,
			"model_id": m.metadata.ModelID,
			"took":     time.Since(start),
		}).Info("model loaded")
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Model), nil
}

// Analyzer returns an analyzer over the cached model at path.
func (c *ModelCache) Analyzer(path string) (*Analyzer, error) {
	m, err := c.Get(path)
	if err != nil {
		return nil, err
	}
	return m.Analyzer(), nil
}

// Invalidate drops the cached model for path; the next Get reloads it.
func (c *ModelCache) Invalidate(path string) {
	c.items.Delete(cacheKey(path))
}

// Len returns the number of cached models.
func (c *ModelCache) Len() int {
	return c.items.ItemCount()
}
