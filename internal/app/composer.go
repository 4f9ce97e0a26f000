package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/domain"
)

// ScheduleShape selects the JSON layout the model is asked to produce.
type ScheduleShape string

const (
	// ShapeDays is [{"day":1,"schedule":[slot...]}].
	ShapeDays ScheduleShape = "days"
	// ShapeFlat is {"schedules":[slot-with-day...]}.
	ShapeFlat ScheduleShape = "flat"
)

func ParseShape(s string) ScheduleShape {
	if ScheduleShape(strings.ToLower(strings.TrimSpace(s))) == ShapeFlat {
		return ShapeFlat
	}
	return ShapeDays
}

// titleAliases maps model labels onto slot titles, including the korean
// labels the model falls back to for korean regions.
var titleAliases = map[string]domain.SlotTitle{
	"breakfast":   domain.TitleBreakfast,
	"lunch":       domain.TitleLunch,
	"dinner":      domain.TitleDinner,
	"sightseeing": domain.TitleSightseeing,
	"tour":        domain.TitleSightseeing,
	"cafe":        domain.TitleCafe,
	"café":        domain.TitleCafe,
	"check-in":    domain.TitleCheckIn,
	"checkin":     domain.TitleCheckIn,
	"check in":    domain.TitleCheckIn,
	"lodging":     domain.TitleLodging,
	"hotel":       domain.TitleLodging,
	"아침":          domain.TitleBreakfast,
	"점심":          domain.TitleLunch,
	"저녁":          domain.TitleDinner,
	"관광":          domain.TitleSightseeing,
	"카페":          domain.TitleCafe,
	"체크인":         domain.TitleCheckIn,
	"숙소":          domain.TitleLodging,
	"숙박":          domain.TitleLodging,
}

func normalizeTitle(s string) domain.SlotTitle {
	k := strings.ToLower(strings.TrimSpace(s))
	if t, ok := titleAliases[k]; ok {
		return t
	}
	return domain.SlotTitle(k)
}

// Composer asks the text model for a day-by-day schedule over verified places.
type Composer struct {
	llm   domain.TextGenerator
	shape ScheduleShape
}

func NewComposer(llm domain.TextGenerator, shape ScheduleShape) *Composer {
	if shape != ShapeFlat {
		shape = ShapeDays
	}
	return &Composer{llm: llm, shape: shape}
}

// Compose builds the prompt, calls the model and extracts the schedule.
// Only a failing model call is an error; unusable output yields no slots.
func (c *Composer) Compose(ctx context.Context, days int, lists domain.PlaceLists) ([]domain.ScheduleSlot, error) {
	prompt := c.BuildPrompt(days, lists)
	text, err := c.llm.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("schedule completion: %w", err)
	}
	slots, err := ParseSchedule(text, c.shape)
	if err != nil {
		observability.ObserveExtraction("empty")
		log.Warn().Err(err).Int("response_len", len(text)).Msg("schedule response unusable, returning empty schedule")
		return []domain.ScheduleSlot{}, nil
	}
	observability.ObserveExtraction("slots")
	return slots, nil
}

func (c *Composer) BuildPrompt(days int, lists domain.PlaceLists) string {
	var b strings.Builder
	b.WriteString("Build a travel schedule that satisfies every rule below and output it as JSON only.\n")
	fmt.Fprintf(&b, "- Cover every day from day 1 to day %d. No day may be missing.\n", days)
	b.WriteString("- Visit about two attractions per day; the first day starts at lunch and the last day ends after lunch.\n")
	b.WriteString("- Order each day as breakfast -> sightseeing -> lunch -> cafe -> sightseeing -> dinner. Breakfast starts at 9.0 or later.\n")
	b.WriteString("- Recommend lodging (check-in) on the first day only.\n")
	b.WriteString("- Pick restaurants and cafes near the most recent attraction and never repeat a restaurant or cafe.\n")
	b.WriteString("- startTime and endTime are 24-hour floats (e.g. 9.0, 13.5). Within a day times must not overlap.\n")
	b.WriteString("- place is the exact place name from the lists below.\n")
	b.WriteString("- title is one of: breakfast, lunch, dinner, sightseeing, cafe, check-in, lodging.\n")
	b.WriteString("- content is one real sentence about the place, not just \"meal\".\n")
	b.WriteString("- Use ONLY the places listed below. Never invent a place that is not listed.\n")
	b.WriteString("Output no explanations, sentences or markdown. Follow this example exactly:\n")
	if c.shape == ShapeFlat {
		b.WriteString(`{"schedules":[{"place":"Hyeongje Kalguksu","title":"lunch","content":"A local favourite serving hand-cut noodle soup.","day":1,"startTime":12,"endTime":13.5}]}`)
	} else {
		b.WriteString(`[{"day":1,"schedule":[{"place":"Hyeongje Kalguksu","title":"lunch","content":"A local favourite serving hand-cut noodle soup.","startTime":12,"endTime":13.5}]}]`)
	}
	b.WriteString("\n")

	section := func(title string, ps []domain.Place) {
		fmt.Fprintf(&b, "[%s]\n", title)
		for _, p := range ps {
			b.WriteString("- ")
			b.WriteString(p.Name)
			b.WriteString("\n")
		}
	}
	section("Attractions", lists.Attractions)
	section("Restaurants", lists.Restaurants)
	section("Cafes", lists.Cafes)
	section("Lodgings", lists.Lodgings)
	return b.String()
}

type wireSlot struct {
	Place     string  `json:"place"`
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Day       int     `json:"day"`
	StartTime float64 `json:"startTime"`
	EndTime   float64 `json:"endTime"`
}

type wireDay struct {
	Day      int        `json:"day"`
	Schedule []wireSlot `json:"schedule"`
}

type wireFlat struct {
	Schedules []wireSlot `json:"schedules"`
}

// ParseSchedule extracts the single JSON value of the given shape from free
// text. Any missing span or decode error is returned as an error and the
// caller degrades to an empty schedule. No repair is attempted.
func ParseSchedule(text string, shape ScheduleShape) ([]domain.ScheduleSlot, error) {
	open, close := byte('['), byte(']')
	if shape == ShapeFlat {
		open, close = '{', '}'
	}
	span, ok := bracketSpan(text, open, close)
	if !ok {
		return nil, fmt.Errorf("no %c...%c span in response", open, close)
	}

	out := []domain.ScheduleSlot{}
	add := func(day int, s wireSlot) {
		out = append(out, domain.ScheduleSlot{
			Place:     strings.TrimSpace(s.Place),
			Title:     normalizeTitle(s.Title),
			Content:   strings.TrimSpace(s.Content),
			Day:       day,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
		})
	}

	if shape == ShapeFlat {
		var f wireFlat
		if err := json.Unmarshal([]byte(span), &f); err != nil {
			return nil, fmt.Errorf("decode schedule: %w", err)
		}
		for _, s := range f.Schedules {
			add(s.Day, s)
		}
		return out, nil
	}

	var ds []wireDay
	if err := json.Unmarshal([]byte(span), &ds); err != nil {
		return nil, fmt.Errorf("decode schedule: %w", err)
	}
	for _, d := range ds {
		for _, s := range d.Schedule {
			add(d.Day, s)
		}
	}
	return out, nil
}
