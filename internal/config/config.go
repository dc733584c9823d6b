package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// DecisionDefaults enumerates every value substituted for a missing or invalid
// numeric field of a game record before a pick is computed.
type DecisionDefaults struct {
	HomeWinPct   float64 // used when home_win_pct is absent or outside [0,1]
	AwayWinPct   float64 // used when away_win_pct is absent or outside [0,1]
	HomeGoalsFor float64 // used when home_goals_for is absent or negative
	AwayGoalsFor float64 // used when away_goals_for is absent or negative
	HomeSpread   float64 // used when home_spread is absent
	AwaySpread   float64 // used when away_spread is absent
	TotalLine    float64 // used when total_line is absent or <= 0
	GoalDiff     float64 // used when goal_diff_matchup is absent

	// GoalDiffOverride is the |goal_diff_matchup| above which the moneyline
	// ignores win probabilities.
	GoalDiffOverride float64
}

// DefaultDecisionDefaults returns the league-average defaults the ingestion
// script has always written for placeholder rows.
func DefaultDecisionDefaults() DecisionDefaults {
	return DecisionDefaults{
		HomeWinPct:       0.5,
		AwayWinPct:       0.5,
		HomeGoalsFor:     3.1,
		AwayGoalsFor:     3.0,
		HomeSpread:       -1.5,
		AwaySpread:       1.5,
		TotalLine:        6.0,
		GoalDiff:         0,
		GoalDiffOverride: 2,
	}
}

// Resolver modes for RESOLVER_MODE.
const (
	ResolverBest  = "best"
	ResolverFirst = "first"
)

// Validate rejects defaults that could not themselves pass as record values:
// win percentages in [0,1], non-negative goals-for, a positive total line,
// a non-negative override threshold, and no NaN or Inf anywhere.
func (d DecisionDefaults) Validate() error {
	fields := []struct {
		env string
		val float64
		ok  func(float64) bool
	}{
		{"DEFAULT_HOME_WIN_PCT", d.HomeWinPct, func(v float64) bool { return v >= 0 && v <= 1 }},
		{"DEFAULT_AWAY_WIN_PCT", d.AwayWinPct, func(v float64) bool { return v >= 0 && v <= 1 }},
		{"DEFAULT_HOME_GOALS_FOR", d.HomeGoalsFor, func(v float64) bool { return v >= 0 }},
		{"DEFAULT_AWAY_GOALS_FOR", d.AwayGoalsFor, func(v float64) bool { return v >= 0 }},
		{"DEFAULT_HOME_SPREAD", d.HomeSpread, nil},
		{"DEFAULT_AWAY_SPREAD", d.AwaySpread, nil},
		{"DEFAULT_TOTAL_LINE", d.TotalLine, func(v float64) bool { return v > 0 }},
		{"DEFAULT_GOAL_DIFF", d.GoalDiff, nil},
		{"GOAL_DIFF_OVERRIDE", d.GoalDiffOverride, func(v float64) bool { return v >= 0 }},
	}
	for _, f := range fields {
		if math.IsNaN(f.val) || math.IsInf(f.val, 0) || (f.ok != nil && !f.ok(f.val)) {
			return fmt.Errorf("invalid %s: %v", f.env, f.val)
		}
	}
	return nil
}

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Data files
	DataDir     string
	GamesFile   string
	PicksFile   string
	ResultsFile string

	// League
	Sport          string
	LeagueTimezone string

	// Odds provider
	OddsAPIKey       string
	OddsAPIBaseURL   string
	OddsAPIRegions   string
	OddsAPITimeout   time.Duration
	OddsAPIRetries   int
	OddsAPIRateLimit float64

	// Results
	ResultsSource string
	ResultsURL    string

	// Storage backends (all optional)
	PickStore     string
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// Twilio
	TwilioAuthToken  string
	TwilioWebhookURL string

	// Behaviour
	RecordPicks      bool
	RequireGamesFile bool
	ResolverMode     string

	// Jobs
	JobQueueSize      int
	JobTimeout        time.Duration
	IngestSchedule    string
	ReconcileSchedule string
	IngestLockTTL     time.Duration

	Decision DecisionDefaults
}

// Load loads configuration from environment variables, after reading an
// optional .env file from the working directory.
// It returns an error if a value is present but unusable.
func Load() (*Config, error) {
	// Missing .env is the normal case in production.
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvInt("PORT", 10000),
		Env:  getEnv("ENV", "production"),

		DataDir: getEnv("DATA_DIR", "data"),

		Sport:          getEnv("SPORT", "icehockey_nhl"),
		LeagueTimezone: getEnv("LEAGUE_TIMEZONE", "America/New_York"),

		OddsAPIKey:       getEnv("ODDS_API_KEY", ""),
		OddsAPIBaseURL:   getEnv("ODDS_API_BASE_URL", "https://api.the-odds-api.com"),
		OddsAPIRegions:   getEnv("ODDS_API_REGIONS", "us"),
		OddsAPITimeout:   getEnvDuration("ODDS_API_TIMEOUT", 15*time.Second),
		OddsAPIRetries:   getEnvInt("ODDS_API_RETRIES", 3),
		OddsAPIRateLimit: getEnvFloat("ODDS_API_RATE_LIMIT", 2),

		ResultsSource: getEnv("RESULTS_SOURCE", "hockeyref"),
		ResultsURL:    getEnv("RESULTS_URL", ""), // empty follows the current season

		PickStore:     getEnv("PICK_STORE", "csv"),
		PostgresURL:   getEnv("POSTGRES_URL", ""),
		ClickHouseURL: getEnv("CLICKHOUSE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),

		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		TwilioWebhookURL: getEnv("TWILIO_WEBHOOK_URL", ""),

		RecordPicks:      getEnvBool("RECORD_PICKS", true),
		RequireGamesFile: getEnvBool("REQUIRE_GAMES_FILE", false),
		ResolverMode:     getEnv("RESOLVER_MODE", ResolverBest),

		JobQueueSize:      getEnvInt("JOB_QUEUE_SIZE", 4),
		JobTimeout:        getEnvDuration("JOB_TIMEOUT", 2*time.Minute),
		IngestSchedule:    getEnv("INGEST_SCHEDULE", ""),
		ReconcileSchedule: getEnv("RECONCILE_SCHEDULE", ""),
		IngestLockTTL:     getEnvDuration("INGEST_LOCK_TTL", 5*time.Minute),

		Decision: loadDecisionDefaults(),
	}

	cfg.GamesFile = getEnv("GAMES_FILE", cfg.DataDir+"/nhl_tonight_model_ready.csv")
	cfg.PicksFile = getEnv("PICKS_FILE", cfg.DataDir+"/nhl_picks_log.csv")
	cfg.ResultsFile = getEnv("RESULTS_FILE", cfg.DataDir+"/nhl_results_vs_picks.csv")

	origins := getEnv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if _, err := time.LoadLocation(cfg.LeagueTimezone); err != nil {
		return nil, fmt.Errorf("invalid LEAGUE_TIMEZONE %q: %w", cfg.LeagueTimezone, err)
	}

	switch cfg.PickStore {
	case "csv":
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("PICK_STORE=postgres requires POSTGRES_URL")
		}
	default:
		return nil, fmt.Errorf("unknown PICK_STORE %q", cfg.PickStore)
	}

	switch cfg.ResultsSource {
	case "hockeyref", "oddsapi":
	default:
		return nil, fmt.Errorf("unknown RESULTS_SOURCE %q", cfg.ResultsSource)
	}

	switch cfg.ResolverMode {
	case ResolverBest, ResolverFirst:
	default:
		return nil, fmt.Errorf("unknown RESOLVER_MODE %q", cfg.ResolverMode)
	}

	if err := cfg.Decision.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadIngest is Load plus the settings only the odds ingestion needs.
func LoadIngest() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if cfg.OddsAPIKey, err = getEnvRequired("ODDS_API_KEY"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location returns the league time zone. Load has already validated it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.LeagueTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func loadDecisionDefaults() DecisionDefaults {
	d := DefaultDecisionDefaults()
	d.HomeWinPct = getEnvFloat("DEFAULT_HOME_WIN_PCT", d.HomeWinPct)
	d.AwayWinPct = getEnvFloat("DEFAULT_AWAY_WIN_PCT", d.AwayWinPct)
	d.HomeGoalsFor = getEnvFloat("DEFAULT_HOME_GOALS_FOR", d.HomeGoalsFor)
	d.AwayGoalsFor = getEnvFloat("DEFAULT_AWAY_GOALS_FOR", d.AwayGoalsFor)
	d.HomeSpread = getEnvFloat("DEFAULT_HOME_SPREAD", d.HomeSpread)
	d.AwaySpread = getEnvFloat("DEFAULT_AWAY_SPREAD", d.AwaySpread)
	d.TotalLine = getEnvFloat("DEFAULT_TOTAL_LINE", d.TotalLine)
	d.GoalDiff = getEnvFloat("DEFAULT_GOAL_DIFF", d.GoalDiff)
	d.GoalDiffOverride = getEnvFloat("GOAL_DIFF_OVERRIDE", d.GoalDiffOverride)
	return d
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
