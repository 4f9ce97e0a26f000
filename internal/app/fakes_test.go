package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tripplanner/internal/domain"
)

// ---- cache ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	gets  int
	sets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// ---- raw provider ----

type fakeProvider struct {
	mu        sync.Mutex
	geo       map[string]domain.GeoPoint
	pages     map[string]domain.RawPage // by page token, "" is the first page
	find      map[string]*domain.RawPlace
	nearbyErr error
	tokens    []string
	geoCalls  int
}

func (f *fakeProvider) Geocode(ctx context.Context, q string) (domain.GeoPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.geoCalls++
	pt, ok := f.geo[q]
	if !ok {
		return domain.GeoPoint{}, &domain.GeocodingError{Query: q}
	}
	return pt, nil
}

func (f *fakeProvider) NearbyPage(ctx context.Context, q domain.NearbyQuery, token string) (domain.RawPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	if f.nearbyErr != nil {
		return domain.RawPage{}, f.nearbyErr
	}
	return f.pages[token], nil
}

func (f *fakeProvider) FindPlace(ctx context.Context, q string) (*domain.RawPlace, error) {
	return f.find[q], nil
}

// ---- searcher ----

type nearbyCall struct {
	Center   domain.GeoPoint
	Category domain.Category
	Keyword  string
	Radius   int
	Limit    int
}

type fakeSearcher struct {
	mu        sync.Mutex
	center    domain.GeoPoint
	geoErr    error
	exact     map[string]*domain.Place
	exactErr  error
	nearby    func(c nearbyCall) []domain.Place
	nearbyErr error
	excluded  map[string]bool
	exactQs   []string
	calls     []nearbyCall
}

func (f *fakeSearcher) Geocode(ctx context.Context, q string) (domain.GeoPoint, error) {
	if f.geoErr != nil {
		return domain.GeoPoint{}, f.geoErr
	}
	return f.center, nil
}

func (f *fakeSearcher) NearbySearch(ctx context.Context, center domain.GeoPoint, cat domain.Category, kw string, radius, limit int) ([]domain.Place, error) {
	c := nearbyCall{Center: center, Category: cat, Keyword: kw, Radius: radius, Limit: limit}
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.nearbyErr != nil {
		return nil, f.nearbyErr
	}
	if f.nearby == nil {
		return nil, nil
	}
	return append([]domain.Place(nil), f.nearby(c)...), nil
}

func (f *fakeSearcher) FindExact(ctx context.Context, q string) (*domain.Place, error) {
	f.mu.Lock()
	f.exactQs = append(f.exactQs, q)
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.exactErr != nil {
		return nil, f.exactErr
	}
	p, ok := f.exact[q]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeSearcher) Excluded(name string) bool { return f.excluded[name] }

func (f *fakeSearcher) keywords(cat domain.Category) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c.Category == cat {
			out = append(out, c.Keyword)
		}
	}
	return out
}

// ---- text model ----

type fakeLLM struct {
	mu        sync.Mutex
	responses []string
	err       error
	prompts   []string
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no scripted response")
	}
	r := f.responses[0]
	f.responses = f.responses[1:]
	return r, nil
}

// ---- store ----

type savedDoc struct {
	Key, Name string
	Data      any
}

type fakeStore struct {
	mu     sync.Mutex
	saved  []savedDoc
	failOn string
	bodies map[string][]byte
	loads  int
}

func (f *fakeStore) Save(ctx context.Context, key, name string, data any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == f.failOn {
		return "", errors.New("store down")
	}
	f.saved = append(f.saved, savedDoc{Key: key, Name: name, Data: data})
	return fmt.Sprintf(`W/"%s-%d"`, name, len(f.saved)), nil
}

func (f *fakeStore) Load(ctx context.Context, key, name string) ([]byte, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	b, ok := f.bodies[key+"/"+name]
	if !ok {
		return nil, "", domain.ErrNotFound
	}
	return b, `W/"v1"`, nil
}

// ---- helpers ----

func place(id, name string, rating float64, reviews int) domain.Place {
	return domain.Place{
		ExternalID:  id,
		Name:        name,
		Rating:      rating,
		ReviewCount: reviews,
		Score:       domain.Score(rating, reviews),
		Types:       []string{},
	}
}

func placePtr(id, name string, rating float64, reviews int) *domain.Place {
	p := place(id, name, rating, reviews)
	return &p
}

func ids(ps []domain.Place) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ExternalID)
	}
	return out
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

// ---- plan index ----

type fakeIndex struct {
	mu    sync.Mutex
	plans []domain.PlanSummary
	err   error
}

func (f *fakeIndex) RecordPlan(ctx context.Context, p domain.PlanSummary) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.plans = append(f.plans, p)
	return nil
}

func (f *fakeIndex) ListPlans(ctx context.Context, author string, limit int) ([]domain.PlanSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.PlanSummary
	for _, p := range f.plans {
		if p.Author == author && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, f.err
}
