package domain

import "time"

type SlotTitle string

const (
	TitleBreakfast   SlotTitle = "breakfast"
	TitleLunch       SlotTitle = "lunch"
	TitleDinner      SlotTitle = "dinner"
	TitleSightseeing SlotTitle = "sightseeing"
	TitleCafe        SlotTitle = "cafe"
	TitleCheckIn     SlotTitle = "check-in"
	TitleLodging     SlotTitle = "lodging"
)

func (t SlotTitle) Valid() bool {
	switch t {
	case TitleBreakfast, TitleLunch, TitleDinner, TitleSightseeing,
		TitleCafe, TitleCheckIn, TitleLodging:
		return true
	}
	return false
}

// ScheduleSlot is one activity of a day. Times are 24h floats (13.5 = 13:30).
type ScheduleSlot struct {
	Place     string    `json:"place"`
	Title     SlotTitle `json:"title"`
	Content   string    `json:"content"`
	Day       int       `json:"day"`
	StartTime float64   `json:"startTime"`
	EndTime   float64   `json:"endTime"`
}

// Itinerary is the synthesized schedule ordered by day.
type Itinerary struct {
	Days  int            `json:"days"`
	Slots []ScheduleSlot `json:"slots"`
}

// TravelRequest is the free-form input of one synthesis run.
type TravelRequest struct {
	Title      string    `json:"title"`
	Region     string    `json:"region"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	People     int       `json:"people"`
	Companions string    `json:"companions"`
	Theme      string    `json:"theme"`
}

// CountInclusiveDays counts calendar days from start to end, both included.
func CountInclusiveDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s).Hours()/24) + 1
}

// ExpectedAttractionCount is days*2-1.
func ExpectedAttractionCount(days int) int {
	if days < 1 {
		return 0
	}
	return days*2 - 1
}
