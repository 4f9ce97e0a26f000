package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tripplanner/internal/domain"
)

const defaultSearchLimit = 20

type SearchOptions struct {
	Exclude        *ExclusionSet
	Cache          domain.Cache // optional
	CacheTTL       time.Duration
	PageTokenDelay time.Duration
}

// SearchClient turns raw provider pages into ranked, filtered places.
// It keeps no state between calls other than the optional shared cache.
type SearchClient struct {
	provider  domain.PlaceProvider
	exclude   *ExclusionSet
	cache     domain.Cache
	cacheTTL  time.Duration
	pageDelay time.Duration
}

func NewSearchClient(p domain.PlaceProvider, o SearchOptions) *SearchClient {
	if o.Exclude == nil {
		o.Exclude = NewExclusionSet(DefaultExcludeNames)
	}
	return &SearchClient{
		provider:  p,
		exclude:   o.Exclude,
		cache:     o.Cache,
		cacheTTL:  o.CacheTTL,
		pageDelay: o.PageTokenDelay,
	}
}

func (s *SearchClient) Excluded(name string) bool { return s.exclude.Excluded(name) }

// Geocode resolves a location name. *domain.GeocodingError means "region not found".
func (s *SearchClient) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	key := "geo:" + strings.ToLower(strings.TrimSpace(query))
	var pt domain.GeoPoint
	if s.cacheGet(ctx, key, &pt) {
		return pt, nil
	}
	pt, err := s.provider.Geocode(ctx, query)
	if err != nil {
		return domain.GeoPoint{}, err
	}
	s.cacheSet(ctx, key, pt)
	return pt, nil
}

// NearbySearch pages through the provider until there is no continuation
// token or limit raw results were accumulated, waiting PageTokenDelay before
// each follow-up page. Results are filtered to rated, non-excluded places,
// sorted by score descending and truncated to limit.
func (s *SearchClient) NearbySearch(ctx context.Context, center domain.GeoPoint, category domain.Category, keyword string, radius, limit int) ([]domain.Place, error) {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	keyword = strings.TrimSpace(keyword)
	key := fmt.Sprintf("nearby:%.6f:%.6f:%s:%s:%d:%d", center.Lat, center.Lng, category, keyword, radius, limit)
	var cached []domain.Place
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	q := domain.NearbyQuery{Center: center, Category: category, Keyword: keyword, Radius: radius}
	var raw []domain.RawPlace
	token := ""
	pages := 0
	for {
		if token != "" {
			if !sleepCtx(ctx, s.pageDelay) {
				return nil, ctx.Err()
			}
		}
		page, err := s.provider.NearbyPage(ctx, q, token)
		if err != nil {
			return nil, fmt.Errorf("nearby search %s/%q: %w", category, keyword, err)
		}
		pages++
		raw = append(raw, page.Results...)
		token = page.NextPageToken
		if token == "" || len(raw) >= limit {
			break
		}
	}

	out := s.rank(raw, limit)
	log.Debug().
		Str("category", string(category)).
		Str("keyword", keyword).
		Int("pages", pages).
		Int("raw", len(raw)).
		Int("kept", len(out)).
		Msg("nearby search")
	s.cacheSet(ctx, key, out)
	return out, nil
}

// FindExact returns the provider's single best text match, or nil when there
// is no candidate.
func (s *SearchClient) FindExact(ctx context.Context, query string) (*domain.Place, error) {
	raw, err := s.provider.FindPlace(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("find place %q: %w", query, err)
	}
	if raw == nil || raw.ExternalID == "" {
		return nil, nil
	}
	p := raw.ToPlace()
	return &p, nil
}

func (s *SearchClient) rank(raw []domain.RawPlace, limit int) []domain.Place {
	out := make([]domain.Place, 0, len(raw))
	for _, r := range raw {
		p := r.ToPlace()
		if p.Rating <= 0 || s.exclude.Excluded(p.Name) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *SearchClient) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (s *SearchClient) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// sleepCtx waits for d or returns false early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
