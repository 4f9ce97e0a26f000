package app

import (
	"fmt"
	"sort"

	"tripplanner/internal/domain"
)

// DroppedSlot is a slot removed by CheckSchedule and the reason.
type DroppedSlot struct {
	Slot   domain.ScheduleSlot `json:"slot"`
	Reason string              `json:"reason"`
}

type ScheduleReport struct {
	Dropped     []DroppedSlot `json:"dropped,omitempty"`
	MissingDays []int         `json:"missingDays,omitempty"`
}

func (r ScheduleReport) Clean() bool {
	return len(r.Dropped) == 0 && len(r.MissingDays) == 0
}

// CheckSchedule enforces the itinerary invariants on model output. Slots with
// an out-of-range day, an invalid time window or an unknown title are
// dropped, the rest are ordered by (day, startTime) and any slot overlapping
// an earlier kept slot of the same day is dropped. Days with no slot are
// reported, never invented.
func CheckSchedule(slots []domain.ScheduleSlot, days int) ([]domain.ScheduleSlot, ScheduleReport) {
	var rep ScheduleReport
	valid := make([]domain.ScheduleSlot, 0, len(slots))
	for _, s := range slots {
		if reason := slotProblem(s, days); reason != "" {
			rep.Dropped = append(rep.Dropped, DroppedSlot{Slot: s, Reason: reason})
			continue
		}
		valid = append(valid, s)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		if valid[i].Day != valid[j].Day {
			return valid[i].Day < valid[j].Day
		}
		return valid[i].StartTime < valid[j].StartTime
	})

	kept := make([]domain.ScheduleSlot, 0, len(valid))
	lastEnd := map[int]float64{}
	for _, s := range valid {
		if end, ok := lastEnd[s.Day]; ok && s.StartTime < end {
			rep.Dropped = append(rep.Dropped, DroppedSlot{Slot: s, Reason: "overlaps previous slot"})
			continue
		}
		lastEnd[s.Day] = s.EndTime
		kept = append(kept, s)
	}

	for d := 1; d <= days; d++ {
		if _, ok := lastEnd[d]; !ok {
			rep.MissingDays = append(rep.MissingDays, d)
		}
	}
	return kept, rep
}

func slotProblem(s domain.ScheduleSlot, days int) string {
	switch {
	case s.Day < 1 || s.Day > days:
		return fmt.Sprintf("day %d outside 1..%d", s.Day, days)
	case s.StartTime < 0 || s.StartTime >= 24:
		return fmt.Sprintf("start time %.2f outside [0,24)", s.StartTime)
	case s.EndTime <= s.StartTime || s.EndTime > 24:
		return fmt.Sprintf("end time %.2f outside (%.2f,24]", s.EndTime, s.StartTime)
	case !s.Title.Valid():
		return fmt.Sprintf("unknown title %q", s.Title)
	}
	return ""
}
