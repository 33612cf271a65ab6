package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/LeventeLantos/ema-scheduler/internal/timing"
)

type Config struct {
	TextMagic TextMagicConfig
	Campaign  CampaignConfig
	Conflict  ConflictConfig
	Redis     RedisConfig
	Log       LogConfig
}

type TextMagicConfig struct {
	BaseURL    string
	Username   string
	APIKey     string
	TemplateID int64
	RatePerSec int
	PageSize   int
}

type CampaignConfig struct {
	MessagesPerDay int
	Days           int
	StartDelayDays int
	Window         time.Duration
	MinSpacing     time.Duration
	Location       *time.Location
}

type ConflictConfig struct {
	FullScan bool
}

type RedisConfig struct {
	Enabled  bool
	Address  string
	Password string
	DB       int
	TTL      time.Duration
}

type LogConfig struct {
	Level slog.Level
}

type Options struct {
	// RequireTemplate makes EMA_TEMPLATE_ID mandatory.
	RequireTemplate bool
}

// LoadAll reads the environment and reports every problem at once.
func LoadAll(opts Options) (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	username, err := requireEnv("TEXTMAGIC_USERNAME")
	collect(err)
	apiKey, err := requireEnv("TEXTMAGIC_API_KEY")
	collect(err)

	var templateID int64
	if opts.RequireTemplate {
		raw, err := requireEnv("EMA_TEMPLATE_ID")
		collect(err)
		if err == nil {
			templateID, err = strconv.ParseInt(raw, 10, 64)
			if err != nil {
				collect(fmt.Errorf("invalid int for env EMA_TEMPLATE_ID: %s", raw))
			}
		}
	}

	ratePerSec, err := getEnvInt("TEXTMAGIC_RATE_PER_SEC", 2)
	collect(err)
	pageSize, err := getEnvInt("TEXTMAGIC_PAGE_SIZE", 100)
	collect(err)
	msgsPerDay, err := getEnvInt("MSGS_PER_DAY", 4)
	collect(err)
	days, err := getEnvInt("DAYS_OF_MSGS", 7)
	collect(err)
	startDelay, err := getEnvInt("START_DELAY_DAYS", 1)
	collect(err)
	windowMin, err := getEnvInt("MSG_PERIOD_MINUTES", 720)
	collect(err)
	spacingMin, err := getEnvInt("MIN_SPACING_MINUTES", 90)
	collect(err)
	fullScan, err := getEnvBool("CONFLICT_FULL_SCAN", false)
	collect(err)
	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	collect(err)

	tzName := getEnv("CAMPAIGN_TIMEZONE", "America/Toronto")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		collect(fmt.Errorf("invalid CAMPAIGN_TIMEZONE %q: %w", tzName, err))
	}

	redisCfg, err := loadRedisConfig()
	collect(err)

	cfg := &Config{
		TextMagic: TextMagicConfig{
			BaseURL:    getEnv("TEXTMAGIC_BASE_URL", "https://rest.textmagic.com"),
			Username:   username,
			APIKey:     apiKey,
			TemplateID: templateID,
			RatePerSec: ratePerSec,
			PageSize:   pageSize,
		},
		Campaign: CampaignConfig{
			MessagesPerDay: msgsPerDay,
			Days:           days,
			StartDelayDays: startDelay,
			Window:         time.Duration(windowMin) * time.Minute,
			MinSpacing:     time.Duration(spacingMin) * time.Minute,
			Location:       loc,
		},
		Conflict: ConflictConfig{FullScan: fullScan},
		Redis:    redisCfg,
		Log:      LogConfig{Level: level},
	}

	if len(errs) == 0 {
		errs = append(errs, validate(cfg)...)
	}
	if err := joinErrors(errs); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadRedisConfig() (RedisConfig, error) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return RedisConfig{Enabled: false}, nil
	}

	var errs []error
	db, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		errs = append(errs, err)
	}
	ttl, err := getEnvInt("REDIS_TTL_SECONDS", 86400)
	if err != nil {
		errs = append(errs, err)
	}

	return RedisConfig{
		Enabled:  true,
		Address:  addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       db,
		TTL:      time.Duration(ttl) * time.Second,
	}, joinErrors(errs)
}

func validate(cfg *Config) []error {
	var errs []error
	if cfg.TextMagic.RatePerSec <= 0 {
		errs = append(errs, errors.New("TEXTMAGIC_RATE_PER_SEC must be > 0"))
	}
	if cfg.TextMagic.PageSize <= 0 {
		errs = append(errs, errors.New("TEXTMAGIC_PAGE_SIZE must be > 0"))
	}
	if cfg.Campaign.MessagesPerDay <= 0 {
		errs = append(errs, errors.New("MSGS_PER_DAY must be > 0"))
	}
	if cfg.Campaign.Days <= 0 {
		errs = append(errs, errors.New("DAYS_OF_MSGS must be > 0"))
	}
	if cfg.Campaign.StartDelayDays < 0 {
		errs = append(errs, errors.New("START_DELAY_DAYS must be >= 0"))
	}
	if cfg.Campaign.Window <= 0 {
		errs = append(errs, errors.New("MSG_PERIOD_MINUTES must be > 0"))
	}
	if cfg.Campaign.Window > timing.MaxWindow {
		errs = append(errs, fmt.Errorf("MSG_PERIOD_MINUTES must be <= %d", int(timing.MaxWindow/time.Minute)))
	}
	if cfg.Campaign.MinSpacing < 0 {
		errs = append(errs, errors.New("MIN_SPACING_MINUTES must be >= 0"))
	}
	if cfg.Redis.Enabled && cfg.Redis.TTL <= 0 {
		errs = append(errs, errors.New("REDIS_TTL_SECONDS must be > 0"))
	}
	if len(errs) > 0 {
		return errs
	}

	c := cfg.Campaign
	if _, err := timing.NewPartitioner(c.MessagesPerDay, c.Window, c.MinSpacing, rand.New(rand.NewPCG(0, 0))); err != nil {
		errs = append(errs, fmt.Errorf("MSGS_PER_DAY/MSG_PERIOD_MINUTES/MIN_SPACING_MINUTES: %w", err))
	}
	return errs
}

func requireEnv(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("missing required env var: %s", key)
	}
	return val, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid int for env %s: %s", key, v)
	}
	return i, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid bool for env %s: %s", key, v)
	}
	return b, nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return l, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}
