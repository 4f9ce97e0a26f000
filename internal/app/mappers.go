package app

import (
	"fmt"
	"strings"

	"tripplanner/internal/domain"
)

// Document names written for every plan.
const (
	DocInfo      = "info"
	DocPlaces    = "places"
	DocSchedules = "schedules"
)

var documentNames = map[string]struct{}{DocInfo: {}, DocPlaces: {}, DocSchedules: {}}

func KnownDocument(name string) bool {
	_, ok := documentNames[name]
	return ok
}

/********** plan info **********/

type PlanTags struct {
	Region     string `json:"region"`
	People     int    `json:"people"`
	Companions string `json:"companions"`
	Theme      string `json:"theme"`
}

type PlanInfo struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	StartDate string   `json:"startDate"`
	EndDate   string   `json:"endDate"`
	Days      int      `json:"days"`
	Timezone  string   `json:"timezone,omitempty"`
	Tags      PlanTags `json:"tags"`
}

func mapPlanInfo(author string, req domain.TravelRequest, days int) PlanInfo {
	return PlanInfo{
		Title:     strings.TrimSpace(req.Title),
		Author:    author,
		StartDate: req.StartDate.Format(dateLayout),
		EndDate:   req.EndDate.Format(dateLayout),
		Days:      days,
		Tags: PlanTags{
			Region:     strings.TrimSpace(req.Region),
			People:     req.People,
			Companions: strings.TrimSpace(req.Companions),
			Theme:      strings.TrimSpace(req.Theme),
		},
	}
}

/********** schedule grid **********/

// ScheduleItem is one block of the half-hour planner grid: X is the start
// column (two per hour), Y the day row, W the width in columns.
type ScheduleItem struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	W       int    `json:"w"`
}

type ScheduleList struct {
	Days      int            `json:"days"`
	Schedules []ScheduleItem `json:"schedules"`
}

func mapScheduleList(it domain.Itinerary, newID func() string) ScheduleList {
	out := ScheduleList{Days: it.Days, Schedules: make([]ScheduleItem, 0, len(it.Slots))}
	for _, s := range it.Slots {
		out.Schedules = append(out.Schedules, ScheduleItem{
			ID:      newID(),
			Title:   string(s.Title),
			Content: slotContent(s),
			X:       int(s.StartTime * 2),
			Y:       s.Day - 1,
			W:       int((s.EndTime - s.StartTime) * 2),
		})
	}
	return out
}

func slotContent(s domain.ScheduleSlot) string {
	switch {
	case s.Place == "":
		return s.Content
	case s.Content == "":
		return s.Place
	}
	return fmt.Sprintf("%s : %s", s.Place, s.Content)
}
