// Package wiring builds the adapters shared by the API and the batch planner.
package wiring

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"tripplanner/internal/adapters/googleplaces"
	"tripplanner/internal/adapters/llm"
	"tripplanner/internal/adapters/memcache"
	redisad "tripplanner/internal/adapters/redis"
	"tripplanner/internal/adapters/tz"
	"tripplanner/internal/app"
	"tripplanner/internal/domain"
	"tripplanner/internal/shared"
)

// OpenCache prefers Redis when configured and reachable, else an in-process cache.
func OpenCache(ctx context.Context, cfg shared.Config) domain.Cache {
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, using in-memory cache")
			_ = rc.Close()
		} else {
			log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache ok")
			return rc
		}
	}
	return memcache.New(cfg.CacheTTL, 10*time.Minute)
}

// LLMOptions picks the key and model of the configured provider.
func LLMOptions(cfg shared.Config) llm.Options {
	o := llm.Options{
		Provider:    cfg.LLMProvider,
		MaxTokens:   cfg.LLMMaxTokens,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.ExternalTimeout,
		Retries:     2,
	}
	switch cfg.LLMProvider {
	case "gemini":
		o.APIKey, o.Model = cfg.GeminiKey, cfg.GeminiModel
	default:
		o.APIKey, o.Model = cfg.OpenAIKey, cfg.OpenAIModel
	}
	return o
}

func SearchOptions(cfg shared.Config, cache domain.Cache) app.SearchOptions {
	names := cfg.ExcludeNames
	if len(names) == 0 {
		names = app.DefaultExcludeNames
	}
	return app.SearchOptions{
		Exclude:        app.NewExclusionSet(names),
		Cache:          cache,
		CacheTTL:       cfg.CacheTTL,
		PageTokenDelay: cfg.PageTokenDelay,
	}
}

// BuildPipeline wires the places client, the text generator and the pipeline.
func BuildPipeline(ctx context.Context, cfg shared.Config, cache domain.Cache) (*app.Pipeline, error) {
	places, err := googleplaces.New(googleplaces.Options{
		PlacesBase:  cfg.PlacesBase,
		GeocodeBase: cfg.GeocodeBase,
		Key:         cfg.GoogleKey,
		Language:    cfg.PlacesLanguage,
		RPS:         cfg.PlacesRPS,
		Timeout:     cfg.ExternalTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("places client: %w", err)
	}
	gen, err := llm.New(ctx, LLMOptions(cfg))
	if err != nil {
		return nil, fmt.Errorf("llm client: %w", err)
	}
	search := app.NewSearchClient(places, SearchOptions(cfg, cache))
	return app.NewPipeline(gen, search, app.PipelineOptions{
		EnrichWorkers: cfg.EnrichWorkers,
		Shape:         app.ParseShape(cfg.ScheduleShape),
		Repair:        cfg.ScheduleRepair,
	}), nil
}

// Zones loads the time zone locator. Plans are still created without one,
// they just carry no timezone and export calendars in UTC.
func Zones() domain.ZoneLocator {
	l, err := tz.New()
	if err != nil {
		log.Warn().Err(err).Msg("time zone data unavailable")
		return nil
	}
	return l
}
