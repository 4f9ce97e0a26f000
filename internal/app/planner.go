package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tripplanner/internal/domain"
)

const (
	dateLayout  = "2006-01-02"
	maxPlanDays = 30
)

// PlanResult is a synthesized and stored plan.
type PlanResult struct {
	PlanKey string            `json:"planKey"`
	Info    PlanInfo          `json:"info"`
	Result  Result            `json:"result"`
	ETags   map[string]string `json:"etags"`
}

// Planner creates plans: synthesize an itinerary, then persist its snapshots.
type Planner struct {
	pipeline Synthesizer
	store    domain.ItineraryStore
	index    domain.PlanIndex   // optional
	zones    domain.ZoneLocator // optional
	newID    func() string
}

func NewPlanner(p Synthesizer, store domain.ItineraryStore, index domain.PlanIndex) *Planner {
	return &Planner{pipeline: p, store: store, index: index, newID: uuid.NewString}
}

// WithZones records the region's time zone in the info document.
func (p *Planner) WithZones(z domain.ZoneLocator) *Planner {
	p.zones = z
	return p
}

func ValidateRequest(req domain.TravelRequest) error {
	var problems []string
	if strings.TrimSpace(req.Title) == "" {
		problems = append(problems, "title is required")
	}
	if strings.TrimSpace(req.Region) == "" {
		problems = append(problems, "region is required")
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		problems = append(problems, "startDate and endDate are required")
	} else if days := domain.CountInclusiveDays(req.StartDate, req.EndDate); days < 1 {
		problems = append(problems, "endDate is before startDate")
	} else if days > maxPlanDays {
		problems = append(problems, fmt.Sprintf("trip longer than %d days", maxPlanDays))
	}
	if req.People < 1 {
		problems = append(problems, "people must be at least 1")
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// CreatePlan validates the request, runs the pipeline and writes the info,
// places and schedules documents. Nothing is written unless synthesis
// succeeds, and any failed write fails the operation.
func (p *Planner) CreatePlan(ctx context.Context, author string, req domain.TravelRequest) (PlanResult, error) {
	if err := ValidateRequest(req); err != nil {
		return PlanResult{}, err
	}
	res, err := p.pipeline.Synthesize(ctx, req)
	if err != nil {
		return PlanResult{}, err
	}

	key := p.newID()
	info := mapPlanInfo(author, req, res.Days)
	if p.zones != nil {
		info.Timezone = p.zones.Zone(res.Center)
	}
	docs := []struct {
		name string
		data any
	}{
		{DocInfo, info},
		{DocPlaces, res.Places},
		{DocSchedules, mapScheduleList(res.Itinerary, p.newID)},
	}
	etags := make(map[string]string, len(docs))
	for _, d := range docs {
		tag, err := p.store.Save(ctx, key, d.name, d.data)
		if err != nil {
			return PlanResult{}, fmt.Errorf("save %s document of plan %s: %w", d.name, key, err)
		}
		etags[d.name] = tag
	}
	if p.index != nil {
		err := p.index.RecordPlan(ctx, domain.PlanSummary{
			PlanKey:   key,
			Author:    author,
			Title:     info.Title,
			Region:    info.Tags.Region,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
			Days:      res.Days,
		})
		if err != nil {
			return PlanResult{}, fmt.Errorf("index plan %s: %w", key, err)
		}
	}

	log.Info().Str("plan", key).Str("author", author).Int("slots", len(res.Itinerary.Slots)).Msg("plan created")
	return PlanResult{PlanKey: key, Info: info, Result: res, ETags: etags}, nil
}

// ListPlans returns the author's plans, newest first.
func (p *Planner) ListPlans(ctx context.Context, author string, limit int) ([]domain.PlanSummary, error) {
	if p.index == nil {
		return []domain.PlanSummary{}, nil
	}
	return p.index.ListPlans(ctx, author, limit)
}
