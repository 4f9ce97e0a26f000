package domain

import "context"

// PlaceProvider is the raw external places API. Pagination delays, filtering
// and ranking are the caller's business.
type PlaceProvider interface {
	// Geocode returns *GeocodingError when the service has zero results.
	Geocode(ctx context.Context, query string) (GeoPoint, error)
	NearbyPage(ctx context.Context, q NearbyQuery, pageToken string) (RawPage, error)
	// FindPlace returns nil, nil when the provider has no candidate.
	FindPlace(ctx context.Context, query string) (*RawPlace, error)
}

// TextGenerator is a single-turn generative text model.
type TextGenerator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ItineraryStore keeps plan documents as opaque JSON blobs.
type ItineraryStore interface {
	Save(ctx context.Context, planKey, document string, data any) (string, error)
	Load(ctx context.Context, planKey, document string) ([]byte, string, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// PlanIndex lists created plans per author.
type PlanIndex interface {
	RecordPlan(ctx context.Context, p PlanSummary) error
	ListPlans(ctx context.Context, author string, limit int) ([]PlanSummary, error)
}

// ZoneLocator maps a coordinate to an IANA time zone name, "" when unknown.
type ZoneLocator interface {
	Zone(p GeoPoint) string
}
