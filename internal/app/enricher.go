package app

import (
	"context"

	"golang.org/x/sync/errgroup"

	"tripplanner/internal/domain"
)

const (
	amenityRadius = 2000
	amenityLimit  = 3
)

// Enricher attaches nearby restaurants, cafes and lodgings to attractions.
type Enricher struct {
	search  PlaceSearcher
	workers int
}

func NewEnricher(s PlaceSearcher, workers int) *Enricher {
	if workers <= 0 {
		workers = 1
	}
	return &Enricher{search: s, workers: workers}
}

// Enrich returns one bundle per attraction in attraction order. Searches run
// concurrently up to the worker limit; the first failure cancels the rest.
func (e *Enricher) Enrich(ctx context.Context, attractions []domain.Place) ([]domain.AttractionBundle, error) {
	bundles := make([]domain.AttractionBundle, len(attractions))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for i, a := range attractions {
		bundles[i].Attraction = a
		for _, cat := range []domain.Category{domain.CategoryRestaurant, domain.CategoryCafe, domain.CategoryLodging} {
			i, a, cat := i, a, cat
			g.Go(func() error {
				ps, err := e.search.NearbySearch(gctx, domain.GeoPoint{Lat: a.Lat, Lng: a.Lng}, cat, "", amenityRadius, amenityLimit)
				if err != nil {
					return err
				}
				if ps == nil {
					ps = []domain.Place{}
				}
				// each goroutine owns a distinct field of bundles[i]
				switch cat {
				case domain.CategoryRestaurant:
					bundles[i].Restaurants = ps
				case domain.CategoryCafe:
					bundles[i].Cafes = ps
				case domain.CategoryLodging:
					bundles[i].Lodgings = ps
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}

// Flatten builds the global place lists. Amenities are de-duplicated by
// ExternalID per category, first occurrence wins.
func Flatten(bundles []domain.AttractionBundle) domain.PlaceLists {
	out := domain.PlaceLists{
		Attractions: make([]domain.Place, 0, len(bundles)),
		Restaurants: []domain.Place{},
		Cafes:       []domain.Place{},
		Lodgings:    []domain.Place{},
	}
	seenR := map[string]struct{}{}
	seenC := map[string]struct{}{}
	seenL := map[string]struct{}{}
	for _, b := range bundles {
		out.Attractions = append(out.Attractions, b.Attraction)
		out.Restaurants = unionByID(out.Restaurants, b.Restaurants, seenR)
		out.Cafes = unionByID(out.Cafes, b.Cafes, seenC)
		out.Lodgings = unionByID(out.Lodgings, b.Lodgings, seenL)
	}
	return out
}

func unionByID(dst, src []domain.Place, seen map[string]struct{}) []domain.Place {
	for _, p := range src {
		if _, ok := seen[p.ExternalID]; ok {
			continue
		}
		seen[p.ExternalID] = struct{}{}
		dst = append(dst, p)
	}
	return dst
}
