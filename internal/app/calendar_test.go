package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"tripplanner/internal/app"
	"tripplanner/internal/domain"
)

func TestBuildCalendar(t *testing.T) {
	info := app.PlanInfo{Title: "Spring trip", StartDate: "2025-05-01", Days: 2, Timezone: "Asia/Seoul"}
	grid := app.ScheduleList{Days: 2, Schedules: []app.ScheduleItem{
		{ID: "a", Title: "lunch", Content: "Hyeongje Kalguksu : noodle soup", X: 24, Y: 0, W: 3},
		{ID: "b", Title: "sightseeing", Content: "Gyeongpodae", X: 20, Y: 1, W: 4},
	}}
	out, err := app.BuildCalendar("k1", info, grid, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if n := strings.Count(out, "BEGIN:VEVENT"); n != 2 {
		t.Fatalf("events = %d\n%s", n, out)
	}
	for _, want := range []string{
		"DTSTART:20250501T030000Z", // 12:00 KST
		"DTEND:20250501T043000Z",
		"DTSTART:20250502T010000Z",
		"SUMMARY:[lunch] Hyeongje Kalguksu",
		"UID:a@k1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestBuildCalendar_UnknownZoneIsUTC(t *testing.T) {
	info := app.PlanInfo{StartDate: "2025-05-01", Timezone: "Mars/Olympus"}
	grid := app.ScheduleList{Schedules: []app.ScheduleItem{{ID: "a", Title: "cafe", Content: "X", X: 30, W: 2}}}
	out, err := app.BuildCalendar("k1", info, grid, time.Now())
	if err != nil || !strings.Contains(out, "DTSTART:20250501T150000Z") {
		t.Fatalf("err %v\n%s", err, out)
	}
	if _, err := app.BuildCalendar("k1", app.PlanInfo{StartDate: "May 1"}, grid, time.Now()); err == nil {
		t.Fatal("bad start date accepted")
	}
}

func TestGetCalendar(t *testing.T) {
	store := &fakeStore{bodies: map[string][]byte{
		"k1/info":      []byte(`{"title":"Spring trip","startDate":"2025-05-01","days":1}`),
		"k1/schedules": []byte(`{"days":1,"schedules":[{"id":"a","title":"lunch","content":"X : c","x":24,"y":0,"w":2}]}`),
	}}
	q := app.NewQueryService(store, nil, time.Minute)

	out, err := q.GetCalendar(context.Background(), "k1")
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if !strings.Contains(string(out), "DTSTART:20250501T120000Z") {
		t.Fatalf("unexpected calendar:\n%s", out)
	}
	if _, err := q.GetCalendar(context.Background(), "k2"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
