package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"gopkg.in/yaml.v3"
)

// Collector modes.
const (
	ModeLive = "live"
	ModeMock = "mock"
)

type Config struct {
	Mode            string        // live | mock
	Port            string        // dashboard port
	HTTPTimeout     time.Duration // per outbound request
	RefreshInterval time.Duration
	WarmPeriods     []string

	Qiita  ProviderConfig
	DevTo  ProviderConfig
	Reddit RedditConfig

	EventLog   string // NDJSON event file; empty disables it
	PolicyFile string // optional YAML policy overrides
}

type ProviderConfig struct {
	BaseURL      string
	Token        string
	RateInterval time.Duration
}

type RedditConfig struct {
	ClientID       string
	ClientSecret   string
	Username       string
	Password       string
	UserAgent      string
	SubredditsFile string
}

// Enabled reports whether API credentials are present.
func (r RedditConfig) Enabled() bool {
	return r.ClientID != "" && r.ClientSecret != "" && r.Username != "" && r.Password != ""
}

// FromEnv reads the configuration from the environment. Callers load .env
// files beforehand.
func FromEnv() (Config, error) {
	c := Config{
		Mode:       getenv("COLLECTOR_MODE", ModeLive),
		Port:       getenv("PORT", "8080"),
		EventLog:   os.Getenv("EVENT_LOG"),
		PolicyFile: os.Getenv("POLICY_FILE"),
	}

	var err error
	if c.HTTPTimeout, err = getduration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return c, err
	}
	if c.RefreshInterval, err = getduration("REFRESH_INTERVAL", 30*time.Minute); err != nil {
		return c, err
	}

	c.WarmPeriods = strings.Fields(strings.ReplaceAll(getenv("WARM_PERIODS", "week,month"), ",", " "))
	for _, p := range c.WarmPeriods {
		if domain.NormalizePeriod(p) != p {
			return c, fmt.Errorf("WARM_PERIODS: unknown period %q", p)
		}
	}

	c.Qiita = ProviderConfig{BaseURL: os.Getenv("QIITA_BASE_URL"), Token: os.Getenv("QIITA_ACCESS_TOKEN")}
	if c.Qiita.RateInterval, err = getduration("QIITA_RATE_INTERVAL", time.Second); err != nil {
		return c, err
	}
	c.DevTo = ProviderConfig{BaseURL: os.Getenv("DEV_BASE_URL"), Token: os.Getenv("DEV_ACCESS_TOKEN")}
	if c.DevTo.RateInterval, err = getduration("DEV_RATE_INTERVAL", 500*time.Millisecond); err != nil {
		return c, err
	}

	c.Reddit = RedditConfig{
		ClientID:       os.Getenv("REDDIT_CLIENT_ID"),
		ClientSecret:   os.Getenv("REDDIT_CLIENT_SECRET"),
		Username:       os.Getenv("REDDIT_USERNAME"),
		Password:       os.Getenv("REDDIT_PASSWORD"),
		UserAgent:      os.Getenv("REDDIT_USER_AGENT"),
		SubredditsFile: getenv("REDDIT_SUBREDDITS_FILE", "input/subreddits.csv"),
	}
	if c.Reddit.Enabled() && c.Reddit.UserAgent == "" {
		return c, fmt.Errorf("REDDIT_USER_AGENT is required when reddit credentials are set")
	}

	switch c.Mode {
	case ModeLive, ModeMock:
	default:
		return c, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'live' or 'mock')", c.Mode)
	}
	return c, nil
}

// PolicyOverrides maps provider name to period key to overrides.
type PolicyOverrides map[string]map[string]domain.PolicyOverride

// LoadPolicies reads a YAML override file such as:
//
//	qiita:
//	  week: {pages: 4, min_score: 15, ttl: 20m}
//
// Omitted fields keep the provider default.
func LoadPolicies(path string) (PolicyOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var out PolicyOverrides
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	for provider, periods := range out {
		for period, p := range periods {
			if domain.NormalizePeriod(period) != period {
				return nil, fmt.Errorf("policy %s: unknown period %q", provider, period)
			}
			if p.Pages != nil && (*p.Pages < 1 || *p.Pages > 10) {
				return nil, fmt.Errorf("policy %s/%s: pages must be within 1..10, got %d", provider, period, *p.Pages)
			}
			if p.MinScore != nil && *p.MinScore < 0 {
				return nil, fmt.Errorf("policy %s/%s: negative min_score %d", provider, period, *p.MinScore)
			}
			if p.TTL != nil && *p.TTL <= 0 {
				return nil, fmt.Errorf("policy %s/%s: ttl must be positive, got %s", provider, period, *p.TTL)
			}
		}
	}
	return out, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getduration(k string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(k)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return d, nil
}
