// Package tz maps coordinates to IANA time zone names from embedded
// boundary data.
package tz

import (
	"fmt"

	"github.com/ringsaturn/tzf"

	"tripplanner/internal/domain"
)

type Locator struct{ f tzf.F }

// New loads the embedded boundary data. It takes a moment and a few MB, so
// build one Locator per process.
func New() (*Locator, error) {
	f, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load time zone data: %w", err)
	}
	return &Locator{f: f}, nil
}

// Zone returns "" for the zero point or open sea.
func (l *Locator) Zone(p domain.GeoPoint) string {
	if p.Lat == 0 && p.Lng == 0 {
		return ""
	}
	return l.f.GetTimezoneName(p.Lng, p.Lat)
}
