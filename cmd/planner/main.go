package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
	_ "time/tzdata"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"tripplanner/internal/adapters/observability"
	"tripplanner/internal/app"
	"tripplanner/internal/domain"
	"tripplanner/internal/shared"
	mysqlrepo "tripplanner/internal/storage/mysql"
	"tripplanner/internal/wiring"
)

// batchRequest is one line of work in the input file.
type batchRequest struct {
	Author     string `json:"author"`
	Title      string `json:"title"`
	Region     string `json:"region"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	People     int    `json:"people"`
	Companions string `json:"companions"`
	Theme      string `json:"theme"`
}

func (b batchRequest) travelRequest() (domain.TravelRequest, error) {
	start, err := time.Parse("2006-01-02", b.StartDate)
	if err != nil {
		return domain.TravelRequest{}, fmt.Errorf("startDate: %w", err)
	}
	end, err := time.Parse("2006-01-02", b.EndDate)
	if err != nil {
		return domain.TravelRequest{}, fmt.Errorf("endDate: %w", err)
	}
	return domain.TravelRequest{
		Title:      b.Title,
		Region:     b.Region,
		StartDate:  start,
		EndDate:    end,
		People:     b.People,
		Companions: b.Companions,
		Theme:      b.Theme,
	}, nil
}

func readRequests(path string) ([]batchRequest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var reqs []batchRequest
	if err := json.NewDecoder(f).Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return reqs, nil
}

func main() {
	in := flag.String("in", "requests.json", "JSON array of plan requests")
	flag.Parse()

	ctx := context.Background()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)
	observability.Serve(cfg.MetricsAddr, observability.InitRegistry())

	reqs, err := readRequests(*in)
	if err != nil {
		log.Fatal().Err(err).Msg("read requests failed")
	}
	log.Info().
		Str("in", *in).
		Int("requests", len(reqs)).
		Int("workers", cfg.PlannerWorkers).
		Str("llm", cfg.LLMProvider).
		Msg("planner starting")

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.Ping(); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	pipeline, err := wiring.BuildPipeline(ctx, cfg, wiring.OpenCache(ctx, cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline setup failed")
	}
	planner := app.NewPlanner(pipeline, repo, repo).WithZones(wiring.Zones())

	workers := cfg.PlannerWorkers
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	var failed int32

	for i, br := range reqs {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(i int, br batchRequest) {
			defer wg.Done()
			defer sem.Release(1)

			req, err := br.travelRequest()
			if err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warn().Int("index", i).Err(err).Msg("bad request")
				return
			}
			rctx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
			out, err := planner.CreatePlan(rctx, br.Author, req)
			if err != nil {
				atomic.AddInt32(&failed, 1)
				log.Warn().Int("index", i).Str("region", br.Region).Err(err).Msg("plan failed")
				return
			}
			log.Info().Int("index", i).Str("plan", out.PlanKey).Int("slots", len(out.Result.Itinerary.Slots)).Msg("plan ok")
		}(i, br)
	}

	wg.Wait()
	log.Info().Int("requests", len(reqs)).Int32("failed", atomic.LoadInt32(&failed)).Msg("planning completed")
}
