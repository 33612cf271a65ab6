package config

import (
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/LeventeLantos/ema-scheduler/internal/timing"
)

var envMu sync.Mutex

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("TEXTMAGIC_USERNAME", "study")
	t.Setenv("TEXTMAGIC_API_KEY", "secret")
	t.Setenv("EMA_TEMPLATE_ID", "12345")
}

func TestLoadAll_HappyPath_Defaults(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	cfg, err := LoadAll(Options{RequireTemplate: true})
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if cfg.TextMagic.Username != "study" || cfg.TextMagic.APIKey != "secret" {
		t.Fatalf("unexpected credentials: %+v", cfg.TextMagic)
	}
	if cfg.TextMagic.TemplateID != 12345 {
		t.Fatalf("unexpected TemplateID: %d", cfg.TextMagic.TemplateID)
	}
	if cfg.TextMagic.BaseURL != "https://rest.textmagic.com" {
		t.Fatalf("unexpected BaseURL default: %q", cfg.TextMagic.BaseURL)
	}
	if cfg.TextMagic.RatePerSec != 2 || cfg.TextMagic.PageSize != 100 {
		t.Fatalf("unexpected client defaults: %+v", cfg.TextMagic)
	}

	c := cfg.Campaign
	if c.MessagesPerDay != 4 || c.Days != 7 || c.StartDelayDays != 1 {
		t.Fatalf("unexpected campaign defaults: %+v", c)
	}
	if c.Window != 12*time.Hour {
		t.Fatalf("unexpected Window default: %v", c.Window)
	}
	if c.MinSpacing != 90*time.Minute {
		t.Fatalf("unexpected MinSpacing default: %v", c.MinSpacing)
	}
	if c.Location.String() != "America/Toronto" {
		t.Fatalf("unexpected Location default: %v", c.Location)
	}
	if cfg.Conflict.FullScan {
		t.Fatalf("expected early-exit conflict scan by default")
	}
	if cfg.Log.Level != slog.LevelInfo {
		t.Fatalf("unexpected log level default: %v", cfg.Log.Level)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected Redis disabled when REDIS_ADDR not set")
	}
}

func TestLoadAll_HappyPath_WithRedis(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_PASSWORD", "secret")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_TTL_SECONDS", "42")

	cfg, err := LoadAll(Options{RequireTemplate: true})
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	if !cfg.Redis.Enabled {
		t.Fatalf("expected Redis enabled")
	}
	if cfg.Redis.Address != "localhost:6379" || cfg.Redis.Password != "secret" {
		t.Fatalf("unexpected Redis config: %+v", cfg.Redis)
	}
	if cfg.Redis.DB != 3 {
		t.Fatalf("unexpected Redis.DB: %d", cfg.Redis.DB)
	}
	if cfg.Redis.TTL != 42*time.Second {
		t.Fatalf("unexpected Redis.TTL: %v", cfg.Redis.TTL)
	}
}

func TestLoadAll_Overrides(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	t.Setenv("MSGS_PER_DAY", "3")
	t.Setenv("DAYS_OF_MSGS", "14")
	t.Setenv("START_DELAY_DAYS", "0")
	t.Setenv("MSG_PERIOD_MINUTES", "600")
	t.Setenv("MIN_SPACING_MINUTES", "60")
	t.Setenv("CAMPAIGN_TIMEZONE", "UTC")
	t.Setenv("CONFLICT_FULL_SCAN", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadAll(Options{RequireTemplate: true})
	if err != nil {
		t.Fatalf("LoadAll() error: %v", err)
	}

	c := cfg.Campaign
	if c.MessagesPerDay != 3 || c.Days != 14 || c.StartDelayDays != 0 {
		t.Fatalf("unexpected campaign config: %+v", c)
	}
	if c.Window != 10*time.Hour || c.MinSpacing != time.Hour {
		t.Fatalf("unexpected window/spacing: %v %v", c.Window, c.MinSpacing)
	}
	if c.Location != time.UTC {
		t.Fatalf("unexpected Location: %v", c.Location)
	}
	if !cfg.Conflict.FullScan {
		t.Fatalf("expected full scan enabled")
	}
	if cfg.Log.Level != slog.LevelDebug {
		t.Fatalf("unexpected log level: %v", cfg.Log.Level)
	}
}

func TestLoadAll_TemplateOptional(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	t.Setenv("TEXTMAGIC_USERNAME", "study")
	t.Setenv("TEXTMAGIC_API_KEY", "secret")

	if _, err := LoadAll(Options{}); err != nil {
		t.Fatalf("expected template to be optional, got %v", err)
	}

	_, err := LoadAll(Options{RequireTemplate: true})
	if err == nil || !strings.Contains(err.Error(), "EMA_TEMPLATE_ID") {
		t.Fatalf("expected error mentioning EMA_TEMPLATE_ID, got: %v", err)
	}
}

func TestLoadAll_RequiredEnvMissing_ReportsAll(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	_, err := LoadAll(Options{RequireTemplate: true})
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	for _, key := range []string{"TEXTMAGIC_USERNAME", "TEXTMAGIC_API_KEY", "EMA_TEMPLATE_ID"} {
		if !strings.Contains(err.Error(), key) {
			t.Fatalf("expected error mentioning %s, got: %v", key, err)
		}
	}
}

func TestLoadAll_InvalidValues(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"invalid EMA_TEMPLATE_ID", "EMA_TEMPLATE_ID", "abc"},
		{"invalid MSGS_PER_DAY", "MSGS_PER_DAY", "four"},
		{"invalid DAYS_OF_MSGS", "DAYS_OF_MSGS", "x"},
		{"invalid MSG_PERIOD_MINUTES", "MSG_PERIOD_MINUTES", "12h"},
		{"invalid CONFLICT_FULL_SCAN", "CONFLICT_FULL_SCAN", "maybe"},
		{"invalid CAMPAIGN_TIMEZONE", "CAMPAIGN_TIMEZONE", "Mars/Olympus"},
		{"invalid LOG_LEVEL", "LOG_LEVEL", "loud"},
		{"invalid REDIS_DB", "REDIS_DB", "bad"},
		{"invalid REDIS_TTL_SECONDS", "REDIS_TTL_SECONDS", "bad"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)
			setRequired(t)

			if strings.HasPrefix(tc.key, "REDIS_") {
				t.Setenv("REDIS_ADDR", "localhost:6379")
			}
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll(Options{RequireTemplate: true})
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_ValidationFailures(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	cases := []struct {
		name string
		key  string
		val  string
	}{
		{"messages per day <= 0", "MSGS_PER_DAY", "0"},
		{"days <= 0", "DAYS_OF_MSGS", "0"},
		{"negative delay", "START_DELAY_DAYS", "-1"},
		{"window <= 0", "MSG_PERIOD_MINUTES", "0"},
		{"window longer than a day", "MSG_PERIOD_MINUTES", "1800"},
		{"negative spacing", "MIN_SPACING_MINUTES", "-5"},
		{"rate <= 0", "TEXTMAGIC_RATE_PER_SEC", "0"},
		{"page size <= 0", "TEXTMAGIC_PAGE_SIZE", "-1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearTestEnv(t)
			setRequired(t)
			t.Setenv(tc.key, tc.val)

			_, err := LoadAll(Options{RequireTemplate: true})
			if err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tc.key) {
				t.Fatalf("expected error mentioning %s, got: %v", tc.key, err)
			}
		})
	}
}

func TestLoadAll_WindowUpperBound(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)

	t.Setenv("MSG_PERIOD_MINUTES", "1380")
	cfg, err := LoadAll(Options{RequireTemplate: true})
	if err != nil {
		t.Fatalf("expected 23h window to load, got: %v", err)
	}
	if cfg.Campaign.Window != 23*time.Hour {
		t.Fatalf("unexpected window: %v", cfg.Campaign.Window)
	}

	t.Setenv("MSG_PERIOD_MINUTES", "1381")
	_, err = LoadAll(Options{RequireTemplate: true})
	if err == nil || !strings.Contains(err.Error(), "MSG_PERIOD_MINUTES must be <= 1380") {
		t.Fatalf("expected upper bound error, got: %v", err)
	}
}

func TestLoadAll_InfeasibleSpacing(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)
	setRequired(t)
	t.Setenv("MSGS_PER_DAY", "9")

	_, err := LoadAll(Options{RequireTemplate: true})
	var pce *timing.PartitionConfigError
	if !errors.As(err, &pce) {
		t.Fatalf("expected *timing.PartitionConfigError, got %v", err)
	}
}

func TestRequireEnv(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	_, err := requireEnv("MISSING_KEY")
	if err == nil {
		t.Fatalf("expected error, got nil")
	}

	t.Setenv("FOO", "bar")
	v, err := requireEnv("FOO")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "bar" {
		t.Fatalf("expected %q, got %q", "bar", v)
	}
}

func TestGetEnvInt(t *testing.T) {
	envMu.Lock()
	defer envMu.Unlock()

	clearTestEnv(t)

	got, err := getEnvInt("MISSING", 7)
	if err != nil || got != 7 {
		t.Fatalf("expected default 7, got %d err=%v", got, err)
	}

	t.Setenv("N", "123")
	got, err = getEnvInt("N", 7)
	if err != nil || got != 123 {
		t.Fatalf("expected 123, got %d err=%v", got, err)
	}

	t.Setenv("BAD", "abc")
	_, err = getEnvInt("BAD", 7)
	if err == nil || !strings.Contains(err.Error(), "BAD") {
		t.Fatalf("expected error mentioning BAD, got: %v", err)
	}
}

func TestJoinErrors(t *testing.T) {
	if err := joinErrors(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	e1 := errors.New("one")
	e2 := errors.New("two")
	err := joinErrors([]error{e1, e2})
	if !errors.Is(err, e1) || !errors.Is(err, e2) {
		t.Fatalf("expected joined error to wrap both, got %v", err)
	}
}

func clearTestEnv(t *testing.T) {
	t.Helper()
	keys := []string{
		"TEXTMAGIC_USERNAME",
		"TEXTMAGIC_API_KEY",
		"TEXTMAGIC_BASE_URL",
		"TEXTMAGIC_RATE_PER_SEC",
		"TEXTMAGIC_PAGE_SIZE",
		"EMA_TEMPLATE_ID",
		"MSGS_PER_DAY",
		"DAYS_OF_MSGS",
		"START_DELAY_DAYS",
		"MSG_PERIOD_MINUTES",
		"MIN_SPACING_MINUTES",
		"CAMPAIGN_TIMEZONE",
		"CONFLICT_FULL_SCAN",
		"LOG_LEVEL",
		"REDIS_ADDR",
		"REDIS_PASSWORD",
		"REDIS_DB",
		"REDIS_TTL_SECONDS",
		"FOO",
		"N",
		"BAD",
	}
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}
