package domain

import "time"

// PlanSummary is the index row of a stored plan.
type PlanSummary struct {
	PlanKey   string    `json:"planKey"`
	Author    string    `json:"author"`
	Title     string    `json:"title"`
	Region    string    `json:"region"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
	Days      int       `json:"days"`
	CreatedAt time.Time `json:"createdAt"`
}
