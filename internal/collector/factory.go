package collector

import (
	"fmt"
	"log/slog"

	"github.com/qepting91/hotfeed/internal/config"
	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/ingest"
)

// NewProviders selects the provider set for the configured mode.
func NewProviders(cfg config.Config, logger *slog.Logger, events domain.EventSink) ([]domain.Provider, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch cfg.Mode {
	case config.ModeMock:
		return []domain.Provider{NewMockProvider("qiita"), NewMockProvider("devto")}, nil
	case config.ModeLive:
	default:
		return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s", cfg.Mode)
	}

	client := func(p config.ProviderConfig) ClientConfig {
		return ClientConfig{
			BaseURL:      p.BaseURL,
			Token:        p.Token,
			Timeout:      cfg.HTTPTimeout,
			RateInterval: p.RateInterval,
			Logger:       logger,
			Events:       events,
		}
	}
	providers := []domain.Provider{NewQiita(client(cfg.Qiita)), NewDevTo(client(cfg.DevTo))}

	if !cfg.Reddit.Enabled() {
		logger.Info("Reddit credentials not set, provider disabled")
		return providers, nil
	}
	subs, err := ingest.LoadSubreddits(cfg.Reddit.SubredditsFile)
	if err != nil {
		return nil, fmt.Errorf("load subreddits: %w", err)
	}
	r, err := NewReddit(RedditCredentials{
		ID:        cfg.Reddit.ClientID,
		Secret:    cfg.Reddit.ClientSecret,
		Username:  cfg.Reddit.Username,
		Password:  cfg.Reddit.Password,
		UserAgent: cfg.Reddit.UserAgent,
	}, subs, logger, events)
	if err != nil {
		return nil, err
	}
	return append(providers, r), nil
}
