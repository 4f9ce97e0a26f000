// internal/adapters/googleplaces/client.go
package googleplaces

import (
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/domain"
)

const (
	DefaultPlacesBase  = "https://maps.googleapis.com/maps/api/place"
	DefaultGeocodeBase = "https://maps.googleapis.com/maps/api/geocode"
)

type Options struct {
	PlacesBase  string
	GeocodeBase string
	Key         string
	Language    string
	RPS         int
	Timeout     time.Duration // per external call
}

type Client struct {
	places  string
	geocode string
	key     string
	lang    string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
}

func New(o Options) (*Client, error) {
	if o.Key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if o.RPS <= 0 {
		o.RPS = 10
	}
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.PlacesBase == "" {
		o.PlacesBase = DefaultPlacesBase
	}
	if o.GeocodeBase == "" {
		o.GeocodeBase = DefaultGeocodeBase
	}
	return &Client{
		places:  strings.TrimRight(o.PlacesBase, "/"),
		geocode: strings.TrimRight(o.GeocodeBase, "/"),
		key:     o.Key,
		lang:    o.Language,
		hc:      &http.Client{Timeout: o.Timeout},
		rl:      rate.NewLimiter(rate.Limit(o.RPS), o.RPS),
		timeout: o.Timeout,
	}, nil
}

// ---- Public API ----

func (c *Client) Geocode(ctx context.Context, query string) (domain.GeoPoint, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v := url.Values{"address": {query}}
	var out geocodeResponse
	if err := c.get(ctx, "geocode", c.geocode+"/json", v, &out); err != nil {
		return domain.GeoPoint{}, err
	}
	if err := statusErr(out.Status, out.ErrorMessage); err != nil {
		return domain.GeoPoint{}, err
	}
	if len(out.Results) == 0 {
		return domain.GeoPoint{}, &domain.GeocodingError{Query: query}
	}
	loc := out.Results[0].Geometry.Location
	return domain.GeoPoint{Lat: loc.Lat, Lng: loc.Lng}, nil
}

// NearbyPage fetches one page. A fresh next_page_token is answered with
// INVALID_REQUEST until the provider has published it, so that status is
// retried a few times when a token is present.
func (c *Client) NearbyPage(ctx context.Context, q domain.NearbyQuery, pageToken string) (domain.RawPage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v := url.Values{}
	if pageToken != "" {
		v.Set("pagetoken", pageToken)
	} else {
		v.Set("location", fmt.Sprintf("%f,%f", q.Center.Lat, q.Center.Lng))
		v.Set("radius", strconv.Itoa(q.Radius))
		if q.Category != domain.CategoryAny {
			v.Set("type", string(q.Category))
		}
		if kw := strings.TrimSpace(q.Keyword); kw != "" {
			v.Set("keyword", kw)
		}
	}

	var out nearbyResponse
	for i := 0; i < 3; i++ {
		out = nearbyResponse{}
		if err := c.get(ctx, "nearbysearch", c.places+"/nearbysearch/json", v, &out); err != nil {
			return domain.RawPage{}, err
		}
		if out.Status == statusInvalidRequest && pageToken != "" && i < 2 {
			if !sleepCtx(ctx, backoff(i+2)) {
				return domain.RawPage{}, ctx.Err()
			}
			continue
		}
		break
	}
	if err := statusErr(out.Status, out.ErrorMessage); err != nil {
		return domain.RawPage{}, err
	}

	page := domain.RawPage{NextPageToken: out.NextPageToken}
	page.Results = make([]domain.RawPlace, 0, len(out.Results))
	for _, r := range out.Results {
		page.Results = append(page.Results, c.mapPlace(r))
	}
	return page, nil
}

func (c *Client) FindPlace(ctx context.Context, query string) (*domain.RawPlace, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	v := url.Values{
		"input":     {query},
		"inputtype": {"textquery"},
		"fields":    {"place_id,name,geometry,formatted_address,rating,user_ratings_total,types,photos"},
	}
	var out findPlaceResponse
	if err := c.get(ctx, "findplacefromtext", c.places+"/findplacefromtext/json", v, &out); err != nil {
		return nil, err
	}
	if err := statusErr(out.Status, out.ErrorMessage); err != nil {
		return nil, err
	}
	if len(out.Candidates) == 0 {
		return nil, nil
	}
	p := c.mapPlace(out.Candidates[0])
	return &p, nil
}

// PhotoURL builds the photo endpoint URL for a photo reference.
func (c *Client) PhotoURL(ref string) string {
	v := url.Values{"maxwidth": {"400"}, "photo_reference": {ref}, "key": {c.key}}
	return c.places + "/photo?" + v.Encode()
}

func (c *Client) mapPlace(r placeResult) domain.RawPlace {
	p := domain.RawPlace{
		ExternalID: r.PlaceID,
		Name:       r.Name,
		Lat:        r.Geometry.Location.Lat,
		Lng:        r.Geometry.Location.Lng,
		Types:      r.Types,
	}
	switch {
	case r.Vicinity != nil:
		p.Address = *r.Vicinity
	case r.FormattedAddress != nil:
		p.Address = *r.FormattedAddress
	}
	if r.Rating != nil {
		p.Rating = *r.Rating
	}
	if r.UserRatingsTotal != nil {
		p.ReviewCount = *r.UserRatingsTotal
	}
	if len(r.Photos) > 0 && r.Photos[0].PhotoReference != "" {
		p.ImageURL = c.PhotoURL(r.Photos[0].PhotoReference)
	}
	return p
}

// ---- Internals ----

func statusErr(status, msg string) error {
	switch status {
	case statusOK, statusZeroResults, statusNotFound, "":
		return nil
	case statusRequestDenied:
		return fmt.Errorf("%w: %s", domain.ErrForbidden, msg)
	default:
		return fmt.Errorf("%w: places status %s: %s", domain.ErrUpstream, status, msg)
	}
}

// get performs a GET with client-side rate limiting, retries, and JSON decode into out.
// Retries on 429 and transient 5xx, honoring Retry-After when provided.
func (c *Client) get(ctx context.Context, endpoint, base string, params url.Values, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The limiter refuses early when the wait would outlast the deadline.
		if _, ok := ctx.Deadline(); ok {
			return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
		}
		return err
	}

	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	q.Set("key", c.key)
	if c.lang != "" {
		q.Set("language", c.lang)
	}
	u := base + "?" + q.Encode()

	var lastErr error
	for i := 0; i < 4; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "tripplanner/1.0")

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveExternal("places", endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = fmt.Errorf("%w: %v", domain.ErrUpstream, err)
			if i < 3 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveExternal("places", endpoint, resp.StatusCode, time.Since(start))

		switch resp.StatusCode {
		case http.StatusOK:
			err := json.NewDecoder(resp.Body).Decode(out)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("%w: decode %s: %v", domain.ErrUpstream, endpoint, err)
			}
			return nil

		case http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			wait := retryAfter(resp)
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%w: remote %d", domain.ErrUpstream, resp.StatusCode)
			if i < 3 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%w: bad status %d: %s", domain.ErrUpstream, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	if lastErr == nil {
		lastErr = errors.New("places: no attempt succeeded")
	}
	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
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

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff returns 200ms * 2^i plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}
