package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/domain"
)

type PipelineOptions struct {
	EnrichWorkers int
	Shape         ScheduleShape
	// Repair runs CheckSchedule over the composed slots.
	Repair bool
}

// Result is everything one synthesis run produced.
type Result struct {
	Days       int                       `json:"days"`
	Expected   int                       `json:"expectedAttractions"`
	Center     domain.GeoPoint           `json:"center"`
	Candidates []Candidate               `json:"candidates"`
	Bundles    []domain.AttractionBundle `json:"bundles"`
	Places     domain.PlaceLists         `json:"places"`
	Itinerary  domain.Itinerary          `json:"itinerary"`
	Stats      ResolveStats              `json:"resolve"`
	Report     *ScheduleReport           `json:"scheduleReport,omitempty"`
}

// Synthesizer is what callers of the pipeline depend on.
type Synthesizer interface {
	Synthesize(ctx context.Context, req domain.TravelRequest) (Result, error)
}

// Pipeline sequences candidate generation, resolution, enrichment and
// schedule composition for one travel request.
type Pipeline struct {
	llm      domain.TextGenerator
	search   PlaceSearcher
	resolver *Resolver
	enricher *Enricher
	composer *Composer
	repair   bool
}

func NewPipeline(llm domain.TextGenerator, search PlaceSearcher, o PipelineOptions) *Pipeline {
	return &Pipeline{
		llm:      llm,
		search:   search,
		resolver: NewResolver(search),
		enricher: NewEnricher(search, o.EnrichWorkers),
		composer: NewComposer(llm, o.Shape),
		repair:   o.Repair,
	}
}

// Synthesize runs the whole pipeline. It fails only when the region cannot be
// geocoded or the external services are unreachable; sparse attraction lists
// and an empty schedule are valid results.
func (p *Pipeline) Synthesize(ctx context.Context, req domain.TravelRequest) (Result, error) {
	start := time.Now()
	days := domain.CountInclusiveDays(req.StartDate, req.EndDate)
	if days < 1 {
		return Result{}, fmt.Errorf("%w: end date before start date", domain.ErrInvalidRequest)
	}
	res := Result{Days: days, Expected: domain.ExpectedAttractionCount(days)}
	lg := log.With().Str("region", req.Region).Int("days", days).Logger()

	center, err := p.search.Geocode(ctx, req.Region)
	if err != nil {
		var ge *domain.GeocodingError
		if errors.As(err, &ge) {
			observability.ObservePipeline("geocode_failed")
		} else {
			observability.ObservePipeline("places_failed")
		}
		return Result{}, fmt.Errorf("geocode region: %w", err)
	}
	res.Center = center

	text, err := p.llm.Complete(ctx, CandidatePrompt(req, res.Expected))
	if err != nil {
		observability.ObservePipeline("llm_failed")
		return Result{}, fmt.Errorf("candidate completion: %w", err)
	}
	res.Candidates = ExtractCandidates(text)
	lg.Debug().Int("candidates", len(res.Candidates)).Msg("candidates extracted")

	attractions, stats, err := p.resolver.Resolve(ctx, ResolveInput{
		Region:     req.Region,
		Center:     center,
		Theme:      req.Theme,
		Companions: req.Companions,
		Expected:   res.Expected,
	}, res.Candidates)
	if err != nil {
		observability.ObservePipeline("places_failed")
		return Result{}, err
	}
	res.Stats = stats
	if len(attractions) < res.Expected {
		lg.Warn().Int("resolved", len(attractions)).Int("expected", res.Expected).Msg("fewer attractions than expected")
	}

	res.Bundles, err = p.enricher.Enrich(ctx, attractions)
	if err != nil {
		observability.ObservePipeline("places_failed")
		return Result{}, fmt.Errorf("enrich attractions: %w", err)
	}
	res.Places = Flatten(res.Bundles)

	slots, err := p.composer.Compose(ctx, days, res.Places)
	if err != nil {
		observability.ObservePipeline("llm_failed")
		return Result{}, err
	}
	if p.repair {
		var rep ScheduleReport
		slots, rep = CheckSchedule(slots, days)
		if !rep.Clean() {
			lg.Warn().Int("dropped", len(rep.Dropped)).Ints("missing_days", rep.MissingDays).Msg("schedule repaired")
		}
		res.Report = &rep
	}
	res.Itinerary = domain.Itinerary{Days: days, Slots: slots}

	outcome := "ok"
	if len(slots) == 0 {
		outcome = "empty_schedule"
	}
	observability.ObservePipeline(outcome)
	lg.Info().
		Int("attractions", len(attractions)).
		Int("exact", stats.Exact).
		Int("keyword", stats.Keyword).
		Int("backfill", stats.Backfill).
		Int("slots", len(slots)).
		Dur("took", time.Since(start)).
		Msg("itinerary synthesized")
	return res, nil
}

// CandidatePrompt asks for a numbered "<n>. <name>: <description>" list. A
// couple of spare names are requested since some will not resolve.
func CandidatePrompt(req domain.TravelRequest, expected int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recommend %d real tourist attractions in %s", expected+2, req.Region)
	if req.People > 0 {
		fmt.Fprintf(&b, " for a group of %d", req.People)
	}
	if c := strings.TrimSpace(req.Companions); c != "" {
		fmt.Fprintf(&b, " travelling with %s", c)
	}
	b.WriteString(".")
	if t := strings.TrimSpace(req.Theme); t != "" {
		fmt.Fprintf(&b, " The trip theme is %s.", t)
	}
	b.WriteString("\nOnly name places that exist and can be found on a map. Do not name restaurants, cafes or hotels.\n")
	b.WriteString("Answer with a numbered list only, one place per line, in the form:\n")
	b.WriteString("1. <place name>: <one sentence description>\n")
	return b.String()
}
