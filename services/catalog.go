package services

import (
	"context"
	"errors"
	"time"

	"github.com/Digitallaureate/kabirFirstBackend/models"
	"github.com/Digitallaureate/kabirFirstBackend/repository"

	"github.com/patrickmn/go-cache"
)

const (
	cacheKeyTriggers  = "triggers"
	cacheKeyMonuments = "monuments"
	cacheKeyLanguages = "languages"
)

// Catalog serves the admin-managed lookup lists. Results are cached for ttl;
// a ttl of zero reads the store on every call.
type Catalog struct {
	store repository.Store
	cache *cache.Cache
	ttl   time.Duration
}

func NewCatalog(store repository.Store, ttl time.Duration) *Catalog {
	cleanup := 2 * ttl
	if ttl <= 0 {
		cleanup = time.Minute
	}
	return &Catalog{store: store, cache: cache.New(ttl, cleanup), ttl: ttl}
}

// ActiveTriggers returns a snapshot of the active magic words.
func (c *Catalog) ActiveTriggers(ctx context.Context) ([]Trigger, error) {
	if v, ok := c.cached(cacheKeyTriggers); ok {
		return v.([]Trigger), nil
	}
	var words []models.MagicWord
	if err := c.store.Find(ctx, models.CollectionMagicWords, repository.Filter{"isActive": true}, repository.FindOptions{}, &words); err != nil {
		return nil, err
	}
	out := make([]Trigger, 0, len(words))
	for _, w := range words {
		if w.Title == "" {
			continue
		}
		out = append(out, Trigger{ID: w.ID, Title: w.Title})
	}
	c.remember(cacheKeyTriggers, out)
	return out, nil
}

func (c *Catalog) Monuments(ctx context.Context) ([]models.Monument, error) {
	if v, ok := c.cached(cacheKeyMonuments); ok {
		return v.([]models.Monument), nil
	}
	var out []models.Monument
	if err := c.store.Find(ctx, models.CollectionMonuments, nil, repository.FindOptions{}, &out); err != nil {
		return nil, err
	}
	c.remember(cacheKeyMonuments, out)
	return out, nil
}

// Monument reads one monument directly, bypassing the list cache.
func (c *Catalog) Monument(ctx context.Context, id string) (*models.Monument, error) {
	var m models.Monument
	if err := c.store.Get(ctx, models.CollectionMonuments, id, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// MonumentTitle resolves a monument id to its display name. Unknown ids
// resolve to an empty string.
func (c *Catalog) MonumentTitle(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", nil
	}
	m, err := c.Monument(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return m.DisplayName(), nil
}

func (c *Catalog) Languages(ctx context.Context) ([]models.ServiceLanguage, error) {
	if v, ok := c.cached(cacheKeyLanguages); ok {
		return v.([]models.ServiceLanguage), nil
	}
	var out []models.ServiceLanguage
	if err := c.store.Find(ctx, models.CollectionServiceLanguages, nil, repository.FindOptions{}, &out); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Title == "" {
			out[i].Title = out[i].Name
		}
	}
	c.remember(cacheKeyLanguages, out)
	return out, nil
}

func (c *Catalog) cached(key string) (interface{}, bool) {
	if c.ttl <= 0 {
		return nil, false
	}
	return c.cache.Get(key)
}

func (c *Catalog) remember(key string, v interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.cache.Set(key, v, cache.DefaultExpiration)
}
