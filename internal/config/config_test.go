package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("PICK_STORE", "")
	t.Setenv("RESULTS_SOURCE", "")
	t.Setenv("DATA_DIR", "testdata")
	t.Setenv("PORT", "")
	t.Setenv("LEAGUE_TIMEZONE", "")
	t.Setenv("GAMES_FILE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 10000 {
		t.Errorf("Port = %d, want 10000", cfg.Port)
	}
	if cfg.GamesFile != "testdata/nhl_tonight_model_ready.csv" {
		t.Errorf("GamesFile = %q", cfg.GamesFile)
	}
	if cfg.Decision != DefaultDecisionDefaults() {
		t.Errorf("Decision = %+v, want defaults", cfg.Decision)
	}
	if cfg.Location().String() != "America/New_York" {
		t.Errorf("Location = %s", cfg.Location())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEFAULT_TOTAL_LINE", "5.5")
	t.Setenv("GOAL_DIFF_OVERRIDE", "3")
	t.Setenv("JOB_TIMEOUT", "30s")
	t.Setenv("RECORD_PICKS", "false")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Decision.TotalLine != 5.5 {
		t.Errorf("TotalLine = %v, want 5.5", cfg.Decision.TotalLine)
	}
	if cfg.Decision.GoalDiffOverride != 3 {
		t.Errorf("GoalDiffOverride = %v, want 3", cfg.Decision.GoalDiffOverride)
	}
	if cfg.JobTimeout != 30*time.Second {
		t.Errorf("JobTimeout = %v", cfg.JobTimeout)
	}
	if cfg.RecordPicks {
		t.Error("RecordPicks should be false")
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad timezone", "LEAGUE_TIMEZONE", "Mars/Olympus"},
		{"bad pick store", "PICK_STORE", "sqlite"},
		{"postgres without url", "PICK_STORE", "postgres"},
		{"bad results source", "RESULTS_SOURCE", "espn"},
		{"bad resolver mode", "RESOLVER_MODE", "fuzzy"},
		{"win pct above one", "DEFAULT_HOME_WIN_PCT", "1.7"},
		{"negative win pct", "DEFAULT_AWAY_WIN_PCT", "-0.1"},
		{"zero total line", "DEFAULT_TOTAL_LINE", "0"},
		{"negative goals for", "DEFAULT_HOME_GOALS_FOR", "-3"},
		{"nan override", "GOAL_DIFF_OVERRIDE", "NaN"},
		{"inf spread", "DEFAULT_AWAY_SPREAD", "+Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("POSTGRES_URL", "")
			t.Setenv(tt.key, tt.val)
			if _, err := Load(); err == nil {
				t.Errorf("Load() with %s=%s should fail", tt.key, tt.val)
			}
		})
	}
}

func TestDecisionDefaults_Validate(t *testing.T) {
	if err := DefaultDecisionDefaults().Validate(); err != nil {
		t.Fatalf("built-in defaults invalid: %v", err)
	}

	d := DefaultDecisionDefaults()
	d.HomeWinPct, d.AwayWinPct, d.HomeGoalsFor, d.GoalDiffOverride = 1, 0, 0, 0
	if err := d.Validate(); err != nil {
		t.Errorf("boundary values rejected: %v", err)
	}
}

func TestLoad_ResolverMode(t *testing.T) {
	t.Setenv("RESOLVER_MODE", "")
	cfg, err := Load()
	if err != nil || cfg.ResolverMode != ResolverBest {
		t.Fatalf("default = %+v, %v", cfg, err)
	}

	t.Setenv("RESOLVER_MODE", "first")
	if cfg, err = Load(); err != nil || cfg.ResolverMode != ResolverFirst {
		t.Errorf("first = %+v, %v", cfg, err)
	}
}

func TestLoadIngest_RequiresAPIKey(t *testing.T) {
	t.Setenv("ODDS_API_KEY", "")
	if _, err := LoadIngest(); err == nil {
		t.Fatal("LoadIngest() without ODDS_API_KEY should fail")
	}

	t.Setenv("ODDS_API_KEY", "k")
	cfg, err := LoadIngest()
	if err != nil {
		t.Fatalf("LoadIngest() error = %v", err)
	}
	if cfg.OddsAPIKey != "k" {
		t.Errorf("OddsAPIKey = %q", cfg.OddsAPIKey)
	}
}
