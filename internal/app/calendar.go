package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// BuildCalendar renders a stored plan as an iCalendar feed, one VEVENT per
// schedule item. Grid columns are half hours from local midnight of the trip
// day in info.Timezone; an empty or unknown zone falls back to UTC.
func BuildCalendar(planKey string, info PlanInfo, grid ScheduleList, now time.Time) (string, error) {
	loc := time.UTC
	if info.Timezone != "" {
		if l, err := time.LoadLocation(info.Timezone); err == nil {
			loc = l
		}
	}
	start, err := time.ParseInLocation(dateLayout, info.StartDate, loc)
	if err != nil {
		return "", fmt.Errorf("plan %s: bad start date %q: %w", planKey, info.StartDate, err)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//tripplanner//plans//EN")
	cal.SetXWRCalName(info.Title)

	for _, it := range grid.Schedules {
		day := start.AddDate(0, 0, it.Y)
		from := day.Add(time.Duration(it.X) * 30 * time.Minute)
		to := from.Add(time.Duration(it.W) * 30 * time.Minute)

		place, _, _ := strings.Cut(it.Content, " : ")
		ev := cal.AddEvent(it.ID + "@" + planKey)
		ev.SetDtStampTime(now)
		ev.SetStartAt(from)
		ev.SetEndAt(to)
		ev.SetSummary(fmt.Sprintf("[%s] %s", it.Title, place))
		ev.SetDescription(it.Content)
		ev.SetLocation(place)
	}
	return cal.Serialize(), nil
}

// GetCalendar builds the iCalendar feed of a stored plan from its info and
// schedules documents.
func (s *QueryService) GetCalendar(ctx context.Context, planKey string) ([]byte, error) {
	infoDoc, err := s.GetDocument(ctx, planKey, DocInfo)
	if err != nil {
		return nil, err
	}
	schedDoc, err := s.GetDocument(ctx, planKey, DocSchedules)
	if err != nil {
		return nil, err
	}
	var info PlanInfo
	if err := json.Unmarshal(infoDoc.Body, &info); err != nil {
		return nil, fmt.Errorf("decode info of plan %s: %w", planKey, err)
	}
	var grid ScheduleList
	if err := json.Unmarshal(schedDoc.Body, &grid); err != nil {
		return nil, fmt.Errorf("decode schedules of plan %s: %w", planKey, err)
	}
	out, err := BuildCalendar(planKey, info, grid, s.now())
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
