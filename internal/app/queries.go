package app

import (
	"context"
	"fmt"
	"time"

	"tripplanner/internal/domain"
)

// Document is a stored plan snapshot and its version token.
type Document struct {
	Body []byte `json:"body"`
	ETag string `json:"etag"`
}

type QueryService struct {
	store    domain.ItineraryStore
	cache    domain.Cache
	cacheTTL time.Duration
	now      func() time.Time
}

func NewQueryService(s domain.ItineraryStore, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: s, cache: c, cacheTTL: ttl, now: time.Now}
}

// GetDocument reads one plan document, read-through the cache. Unknown
// document names are ErrNotFound.
func (s *QueryService) GetDocument(ctx context.Context, planKey, name string) (Document, error) {
	if !KnownDocument(name) {
		return Document{}, domain.ErrNotFound
	}
	key := fmt.Sprintf("doc:%s:%s", planKey, name)
	var d Document
	if s.cache != nil {
		if ok, _ := s.cache.Get(ctx, key, &d); ok {
			return d, nil
		}
	}
	body, tag, err := s.store.Load(ctx, planKey, name)
	if err != nil {
		return Document{}, err
	}
	// copy so the cached value never aliases the store's buffer
	d = Document{Body: append([]byte(nil), body...), ETag: tag}
	if s.cache != nil && len(d.Body) < 1_000_000 {
		_ = s.cache.Set(ctx, key, d, int(s.cacheTTL.Seconds()))
	}
	return d, nil
}
