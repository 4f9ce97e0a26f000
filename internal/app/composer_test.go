package app_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"tripplanner/internal/app"
	"tripplanner/internal/domain"
)

func TestParseSchedule_EmbeddedInProse(t *testing.T) {
	text := `Sure! Here's your plan: [ {"day":1,"schedule":[{"place":"X","title":"lunch","content":"c","startTime":12,"endTime":13}]} ] Hope this helps!`

	got, err := app.ParseSchedule(text, app.ShapeDays)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []domain.ScheduleSlot{{Place: "X", Title: domain.TitleLunch, Content: "c", Day: 1, StartTime: 12, EndTime: 13}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	// same JSON without prose parses identically
	bare := text[strings.Index(text, "[") : strings.LastIndex(text, "]")+1]
	again, err := app.ParseSchedule(bare, app.ShapeDays)
	if err != nil || !reflect.DeepEqual(again, want) {
		t.Fatalf("bare parse: %+v err %v", again, err)
	}
}

func TestParseSchedule_Malformed(t *testing.T) {
	cases := map[string]string{
		"no brackets":  "I could not build a schedule, sorry.",
		"unterminated": `Here: [{"day":1,"schedule":[{"place":"X"}`,
		"not json":     "[day one: beach, day two: temple]",
		"wrong types":  `[{"day":"one","schedule":[]}]`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := app.ParseSchedule(text, app.ShapeDays)
			if err == nil || got != nil {
				t.Fatalf("want error, got %+v", got)
			}
		})
	}
}

func TestParseSchedule_BracketsInsideStrings(t *testing.T) {
	text := `ok [{"day":2,"schedule":[{"place":"Arte [Museum]","title":"관광","content":"say \"hi]\"","startTime":9.5,"endTime":11}]}] trailing ]`
	got, err := app.ParseSchedule(text, app.ShapeDays)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0].Place != "Arte [Museum]" || got[0].Title != domain.TitleSightseeing || got[0].Day != 2 {
		t.Fatalf("got %+v", got)
	}
}

func TestParseSchedule_FlatShape(t *testing.T) {
	text := "```json\n" + `{"schedules":[
	  {"place":"A","title":"Check-In","content":"x","day":1,"startTime":15,"endTime":16},
	  {"place":"B","title":"dinner","content":"y","day":2,"startTime":18,"endTime":19.5}
	]}` + "\n```"
	got, err := app.ParseSchedule(text, app.ShapeFlat)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 2 || got[0].Title != domain.TitleCheckIn || got[1].Day != 2 || got[1].EndTime != 19.5 {
		t.Fatalf("got %+v", got)
	}
}

func TestCompose_DegradesToEmpty(t *testing.T) {
	llm := &fakeLLM{responses: []string{"Sorry, I can't do that."}}
	c := app.NewComposer(llm, app.ShapeDays)
	got, err := c.Compose(context.Background(), 2, domain.PlaceLists{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil schedule, got %#v", got)
	}
}

func TestCompose_LLMErrorIsReturned(t *testing.T) {
	c := app.NewComposer(&fakeLLM{err: domain.ErrUpstream}, app.ShapeDays)
	if _, err := c.Compose(context.Background(), 1, domain.PlaceLists{}); !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
}

func TestBuildPrompt_ListsOnlyVerifiedPlaces(t *testing.T) {
	lists := domain.PlaceLists{
		Attractions: []domain.Place{place("a", "Gyeongpodae", 4, 1)},
		Restaurants: []domain.Place{place("r", "Hyeongje Kalguksu", 4, 1)},
		Cafes:       []domain.Place{place("c", "Terarosa", 4, 1)},
		Lodgings:    []domain.Place{place("l", "Skybay Hotel", 4, 1)},
	}
	p := app.NewComposer(&fakeLLM{}, app.ShapeFlat).BuildPrompt(3, lists)
	for _, want := range []string{"day 1 to day 3", "- Gyeongpodae\n", "- Hyeongje Kalguksu\n", "- Terarosa\n", "- Skybay Hotel\n", `{"schedules":`, "Never invent"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
	if strings.Index(p, "[Attractions]") > strings.Index(p, "[Restaurants]") {
		t.Error("sections out of order")
	}
}

func TestParseShape(t *testing.T) {
	if app.ParseShape(" FLAT ") != app.ShapeFlat || app.ParseShape("") != app.ShapeDays || app.ParseShape("other") != app.ShapeDays {
		t.Fatal("unexpected shape parsing")
	}
}
