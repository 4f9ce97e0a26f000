package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/domain"
)

const (
	TierExact    = "exact"
	TierKeyword  = "keyword"
	TierBackfill = "backfill"

	regionRadius = 5000
)

// PlaceSearcher is the search capability the resolver and enricher need.
type PlaceSearcher interface {
	Geocode(ctx context.Context, query string) (domain.GeoPoint, error)
	NearbySearch(ctx context.Context, center domain.GeoPoint, category domain.Category, keyword string, radius, limit int) ([]domain.Place, error)
	FindExact(ctx context.Context, query string) (*domain.Place, error)
	Excluded(name string) bool
}

type ResolveInput struct {
	Region     string
	Center     domain.GeoPoint
	Theme      string
	Companions string
	Expected   int
}

type ResolveStats struct {
	Exact    int      `json:"exact"`
	Keyword  int      `json:"keyword"`
	Backfill int      `json:"backfill"`
	Dropped  []string `json:"dropped,omitempty"`
}

type Resolver struct {
	search        PlaceSearcher
	keywordLimit  int
	backfillLimit func(expected int) int
}

func NewResolver(s PlaceSearcher) *Resolver {
	return &Resolver{
		search:        s,
		keywordLimit:  5,
		backfillLimit: func(expected int) int { return expected * 2 },
	}
}

// candidateStrategy tries to turn one candidate into an eligible place.
// A nil place with a nil error is a miss.
type candidateStrategy struct {
	tier string
	run  func(ctx context.Context, in ResolveInput, c Candidate, st *resolveState) (*domain.Place, error)
}

// resolveState tracks identities already taken in one run.
type resolveState struct {
	search   PlaceSearcher
	ids      map[string]struct{}
	names    map[string]struct{}
	accepted []domain.Place
	stats    ResolveStats
	calls    int
	failures int
	lastErr  error
}

func (st *resolveState) eligible(p *domain.Place) bool {
	if p == nil || p.ExternalID == "" || p.Rating <= 0 || st.search.Excluded(p.Name) {
		return false
	}
	if _, ok := st.ids[p.ExternalID]; ok {
		return false
	}
	_, ok := st.names[p.Name]
	return !ok
}

func (st *resolveState) accept(p domain.Place, description, tier string) {
	p.Description = description
	st.ids[p.ExternalID] = struct{}{}
	st.names[p.Name] = struct{}{}
	st.accepted = append(st.accepted, p)
	switch tier {
	case TierExact:
		st.stats.Exact++
	case TierKeyword:
		st.stats.Keyword++
	case TierBackfill:
		st.stats.Backfill++
	}
	observability.ObserveResolved(tier)
}

// record counts an external call. The run aborts only when the caller's
// context is done; any other error, including a single call timing out, is a
// miss for this attempt.
func (st *resolveState) record(ctx context.Context, err error) error {
	st.calls++
	if err == nil {
		return nil
	}
	if cerr := ctx.Err(); cerr != nil {
		return cerr
	}
	st.failures++
	st.lastErr = err
	log.Warn().Err(err).Msg("resolver search failed")
	return nil
}

func (st *resolveState) firstEligible(ps []domain.Place) *domain.Place {
	for i := range ps {
		if st.eligible(&ps[i]) {
			return &ps[i]
		}
	}
	return nil
}

func (r *Resolver) strategies() []candidateStrategy {
	return []candidateStrategy{
		{tier: TierExact, run: r.exactMatch},
		{tier: TierKeyword, run: r.keywordMatch},
	}
}

// Resolve converts candidates into at most in.Expected verified places. Names
// with no real-world match are dropped. When candidates run out before the
// target, popular places around the region center fill the rest.
func (r *Resolver) Resolve(ctx context.Context, in ResolveInput, cands []Candidate) ([]domain.Place, ResolveStats, error) {
	st := &resolveState{
		search: r.search,
		ids:    make(map[string]struct{}),
		names:  make(map[string]struct{}),
	}
	if in.Expected <= 0 {
		return nil, st.stats, nil
	}

	for _, c := range cands {
		if len(st.accepted) >= in.Expected {
			break
		}
		found := false
		for _, s := range r.strategies() {
			p, err := s.run(ctx, in, c, st)
			if err != nil {
				return nil, st.stats, err
			}
			if p != nil {
				st.accept(*p, c.Description, s.tier)
				found = true
				break
			}
		}
		if !found {
			st.stats.Dropped = append(st.stats.Dropped, c.Name)
			log.Debug().Str("candidate", c.Name).Msg("candidate has no real-world match")
		}
	}

	if len(st.accepted) < in.Expected {
		if err := r.backfill(ctx, in, st); err != nil {
			return nil, st.stats, err
		}
	}

	if len(st.accepted) == 0 && st.calls > 0 && st.failures == st.calls {
		return nil, st.stats, fmt.Errorf("resolve attractions: every search failed: %w", st.lastErr)
	}
	return st.accepted, st.stats, nil
}

func (r *Resolver) exactMatch(ctx context.Context, in ResolveInput, c Candidate, st *resolveState) (*domain.Place, error) {
	q := strings.TrimSpace(in.Region + " " + c.Name)
	p, err := r.search.FindExact(ctx, q)
	if err := st.record(ctx, err); err != nil {
		return nil, err
	}
	if st.eligible(p) {
		return p, nil
	}
	return nil, nil
}

func (r *Resolver) keywordMatch(ctx context.Context, in ResolveInput, c Candidate, st *resolveState) (*domain.Place, error) {
	for _, kw := range keywordVariants(c.Name, in.Theme, in.Companions) {
		ps, err := r.search.NearbySearch(ctx, in.Center, domain.CategoryAny, kw, regionRadius, r.keywordLimit)
		if err := st.record(ctx, err); err != nil {
			return nil, err
		}
		if p := st.firstEligible(ps); p != nil {
			return p, nil
		}
	}
	return nil, nil
}

func (r *Resolver) backfill(ctx context.Context, in ResolveInput, st *resolveState) error {
	limit := r.backfillLimit(in.Expected)
	for _, kw := range backfillKeywords(in.Theme, in.Companions) {
		ps, err := r.search.NearbySearch(ctx, in.Center, domain.CategoryAttraction, kw, regionRadius, limit)
		if err := st.record(ctx, err); err != nil {
			return err
		}
		for i := range ps {
			if len(st.accepted) >= in.Expected {
				return nil
			}
			if st.eligible(&ps[i]) {
				st.accept(ps[i], "", TierBackfill)
			}
		}
		if len(st.accepted) >= in.Expected {
			return nil
		}
	}
	if missing := in.Expected - len(st.accepted); missing > 0 {
		log.Info().Int("missing", missing).Str("region", in.Region).Msg("backfill exhausted")
	}
	return nil
}

// keywordVariants returns [name+theme+companions, name+theme, name+companions, name]
// without blank parts or repeated strings.
func keywordVariants(name, theme, companions string) []string {
	return uniqueJoined([][]string{
		{name, theme, companions},
		{name, theme},
		{name, companions},
		{name},
	}, false)
}

// backfillKeywords degrades from theme+companions down to no keyword.
func backfillKeywords(theme, companions string) []string {
	return uniqueJoined([][]string{
		{theme, companions},
		{theme},
		{companions},
		{},
	}, true)
}

func uniqueJoined(sets [][]string, allowEmpty bool) []string {
	joined := lo.FilterMap(sets, func(parts []string, _ int) (string, bool) {
		kept := lo.Compact(lo.Map(parts, func(p string, _ int) string { return strings.TrimSpace(p) }))
		s := strings.Join(kept, " ")
		return s, s != "" || allowEmpty
	})
	return lo.Uniq(joined)
}
