package app_test

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"tripplanner/internal/app"
	"tripplanner/internal/domain"
)

func raw(id, name string, rating float64, reviews int) domain.RawPlace {
	return domain.RawPlace{ExternalID: id, Name: name, Rating: rating, ReviewCount: reviews}
}

func TestNearbySearch_PaginatesFiltersAndRanks(t *testing.T) {
	prov := &fakeProvider{pages: map[string]domain.RawPage{
		"": {Results: []domain.RawPlace{
			raw("a", "Low", 3.0, 10),
			raw("b", "Unrated", 0, 500),
			raw("c", "스타벅스 강릉점", 4.9, 9000),
		}, NextPageToken: "t1"},
		"t1": {Results: []domain.RawPlace{
			raw("d", "Top", 4.8, 2000),
			raw("e", "Mid", 4.5, 100),
		}},
	}}
	s := app.NewSearchClient(prov, app.SearchOptions{PageTokenDelay: time.Millisecond})

	got, err := s.NearbySearch(context.Background(), domain.GeoPoint{Lat: 37.7, Lng: 128.9}, domain.CategoryCafe, "", 2000, 10)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if want := []string{"d", "e", "a"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("ids = %v, want %v", ids(got), want)
	}
	if !reflect.DeepEqual(prov.tokens, []string{"", "t1"}) {
		t.Fatalf("tokens = %v", prov.tokens)
	}
	for _, p := range got {
		if p.Rating <= 0 {
			t.Fatalf("unrated place returned: %+v", p)
		}
	}
}

func TestNearbySearch_StopsAtLimitAndTruncates(t *testing.T) {
	prov := &fakeProvider{pages: map[string]domain.RawPage{
		"": {Results: []domain.RawPlace{
			raw("a", "A", 4.0, 10),
			raw("b", "B", 4.0, 1000),
			raw("c", "C", 4.0, 100),
		}, NextPageToken: "t1"},
		"t1": {Results: []domain.RawPlace{raw("z", "Z", 5, 99999)}},
	}}
	s := app.NewSearchClient(prov, app.SearchOptions{PageTokenDelay: time.Hour})

	got, err := s.NearbySearch(context.Background(), domain.GeoPoint{}, domain.CategoryRestaurant, "", 2000, 2)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(prov.tokens) != 1 {
		t.Fatalf("expected a single page request, got %v", prov.tokens)
	}
	if want := []string{"b", "c"}; !reflect.DeepEqual(ids(got), want) {
		t.Fatalf("ids = %v, want %v", ids(got), want)
	}
}

func TestNearbySearch_CancelledDuringPageDelay(t *testing.T) {
	prov := &fakeProvider{pages: map[string]domain.RawPage{
		"": {Results: []domain.RawPlace{raw("a", "A", 4, 1)}, NextPageToken: "t1"},
	}}
	s := app.NewSearchClient(prov, app.SearchOptions{PageTokenDelay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.NearbySearch(ctx, domain.GeoPoint{}, domain.CategoryAny, "x", 5000, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestNearbySearch_WrapsProviderError(t *testing.T) {
	prov := &fakeProvider{nearbyErr: domain.ErrUpstream}
	s := app.NewSearchClient(prov, app.SearchOptions{})
	_, err := s.NearbySearch(context.Background(), domain.GeoPoint{}, domain.CategoryAny, "x", 5000, 5)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestSearchClient_Cache(t *testing.T) {
	prov := &fakeProvider{
		geo: map[string]domain.GeoPoint{"Gangneung": {Lat: 37.75, Lng: 128.87}},
		pages: map[string]domain.RawPage{
			"": {Results: []domain.RawPlace{raw("a", "A", 4, 10)}},
		},
	}
	cache := &fakeCache{}
	s := app.NewSearchClient(prov, app.SearchOptions{Cache: cache, CacheTTL: time.Minute})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		pt, err := s.Geocode(ctx, "Gangneung")
		if err != nil || pt.Lat != 37.75 {
			t.Fatalf("geocode: %v %+v", err, pt)
		}
		got, err := s.NearbySearch(ctx, pt, domain.CategoryAttraction, "", 5000, 5)
		if err != nil || len(got) != 1 || got[0].ExternalID != "a" {
			t.Fatalf("nearby: %v %+v", err, got)
		}
	}
	if prov.geoCalls != 1 {
		t.Fatalf("geocode provider calls = %d, want 1", prov.geoCalls)
	}
	if len(prov.tokens) != 1 {
		t.Fatalf("nearby provider calls = %d, want 1", len(prov.tokens))
	}
}

func TestGeocode_NoResults(t *testing.T) {
	s := app.NewSearchClient(&fakeProvider{}, app.SearchOptions{})
	_, err := s.Geocode(context.Background(), "Atlantis")
	var ge *domain.GeocodingError
	if !errors.As(err, &ge) || ge.Query != "Atlantis" {
		t.Fatalf("err = %v, want GeocodingError", err)
	}
}

func TestFindExact(t *testing.T) {
	prov := &fakeProvider{find: map[string]*domain.RawPlace{
		"Gangneung Ojukheon": {ExternalID: "o1", Name: "Ojukheon", Rating: 4.4, ReviewCount: 3000},
		"Gangneung Blank":    {Name: "Blank"},
	}}
	s := app.NewSearchClient(prov, app.SearchOptions{})
	ctx := context.Background()

	p, err := s.FindExact(ctx, "Gangneung Ojukheon")
	if err != nil || p == nil || p.ExternalID != "o1" || p.Score <= 0 {
		t.Fatalf("found %+v err %v", p, err)
	}
	for _, q := range []string{"Gangneung Nothing", "Gangneung Blank"} {
		p, err := s.FindExact(ctx, q)
		if err != nil || p != nil {
			t.Fatalf("%s: want nil, got %+v err %v", q, p, err)
		}
	}
}
