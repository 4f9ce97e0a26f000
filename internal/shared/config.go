package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv      string
	LogLevel    string
	HTTPAddr    string
	MetricsAddr string
	MySQLDSN    string
	RedisAddr   string
	RedisDB     int
	RedisPass   string
	CacheTTL    time.Duration

	// RequestTimeout bounds one HTTP request. A pipeline run makes many
	// sequential external calls, so it sits well above ExternalTimeout.
	RequestTimeout time.Duration

	PlacesBase      string
	GeocodeBase     string
	GoogleKey       string
	PlacesLanguage  string
	PlacesRPS       int
	PageTokenDelay  time.Duration
	ExternalTimeout time.Duration

	LLMProvider    string // openai|gemini
	OpenAIKey      string
	OpenAIModel    string
	GeminiKey      string
	GeminiModel    string
	LLMMaxTokens   int
	LLMTemperature float32

	EnrichWorkers  int
	PlannerWorkers int
	ExcludeNames   []string
	ScheduleRepair bool
	ScheduleShape  string // days|flat
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real env vars win.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	c := Config{
		AppEnv:      env("APP_ENV", "prod"),
		LogLevel:    env("LOG_LEVEL", "info"),
		HTTPAddr:    env("HTTP_ADDR", ":8080"),
		MetricsAddr: env("METRICS_ADDR", ":9100"),
		MySQLDSN:    env("MYSQL_DSN", "root:root@tcp(localhost:3306)/tripplanner?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:   env("REDIS_ADDR", ""),
		RedisPass:   env("REDIS_PASSWORD", ""),
		RedisDB:     atoi("REDIS_DB", 0),
		CacheTTL:    time.Duration(atoi("CACHE_TTL_SECONDS", 3600)) * time.Second,

		RequestTimeout: time.Duration(atoi("REQUEST_TIMEOUT_SECONDS", 180)) * time.Second,

		PlacesBase:      env("GOOGLE_PLACES_BASE_URL", "https://maps.googleapis.com/maps/api/place"),
		GeocodeBase:     env("GOOGLE_GEOCODE_BASE_URL", "https://maps.googleapis.com/maps/api/geocode"),
		GoogleKey:       env("GOOGLE_API_KEY", ""),
		PlacesLanguage:  env("PLACES_LANGUAGE", "ko"),
		PlacesRPS:       atoi("PLACES_RPS", 10),
		PageTokenDelay:  time.Duration(atoi("PAGE_TOKEN_DELAY_MS", 2000)) * time.Millisecond,
		ExternalTimeout: time.Duration(atoi("EXTERNAL_TIMEOUT_SECONDS", 30)) * time.Second,

		LLMProvider:    strings.ToLower(env("LLM_PROVIDER", "openai")),
		OpenAIKey:      env("OPENAI_API_KEY", ""),
		OpenAIModel:    env("OPENAI_MODEL", "gpt-4o"),
		GeminiKey:      env("GEMINI_API_KEY", ""),
		GeminiModel:    env("GEMINI_MODEL", "gemini-2.0-flash"),
		LLMMaxTokens:   atoi("LLM_MAX_TOKENS", 2000),
		LLMTemperature: float32(atof("LLM_TEMPERATURE", 0.1)),

		EnrichWorkers:  atoi("ENRICH_WORKERS", 4),
		PlannerWorkers: atoi("PLANNER_WORKERS", 2),
		ExcludeNames:   list("EXCLUDE_NAMES"),
		ScheduleRepair: boolean("SCHEDULE_REPAIR", true),
		ScheduleShape:  strings.ToLower(env("SCHEDULE_SHAPE", "days")),
	}
	if c.GoogleKey == "" {
		log.Warn().Msg("GOOGLE_API_KEY is empty")
	}
	switch c.LLMProvider {
	case "openai":
		if c.OpenAIKey == "" {
			log.Warn().Msg("OPENAI_API_KEY is empty")
		}
	case "gemini":
		if c.GeminiKey == "" {
			log.Warn().Msg("GEMINI_API_KEY is empty")
		}
	default:
		log.Warn().Str("provider", c.LLMProvider).Msg("unknown LLM_PROVIDER, using openai")
		c.LLMProvider = "openai"
	}
	return c
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atof(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func boolean(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// list splits a comma-separated env var, dropping blanks. nil when unset.
func list(k string) []string {
	v := os.Getenv(k)
	if v == "" {
		return nil
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
