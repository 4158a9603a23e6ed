package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"golang.org/x/time/rate"
)

// UserAgent is sent on every outbound request.
const UserAgent = "hotfeed/1.0 (+https://github.com/qepting91/hotfeed)"

// maxBody caps how much of a response body is decoded.
const maxBody = 16 << 20

// ClientConfig is shared by the HTTP-backed providers.
type ClientConfig struct {
	BaseURL      string
	Token        string // optional; anonymous access when empty
	Timeout      time.Duration
	RateInterval time.Duration // minimum spacing between requests; 0 disables limiting
	Logger       *slog.Logger
	Events       domain.EventSink
	Now          func() time.Time
}

// FetchError classifies why a request produced nothing.
type FetchError struct {
	Kind   string // domain.KindTransport, KindStatus or KindDecode
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == domain.KindStatus {
		return fmt.Sprintf("%s: http %d", e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// transport performs rate-limited GETs against one provider and swallows
// every failure after logging it.
type transport struct {
	provider   string
	httpClient *http.Client
	limiter    *rate.Limiter
	authHeader string
	authValue  string
	logger     *slog.Logger
	events     domain.EventSink
	now        func() time.Time
}

func newTransport(provider string, cfg ClientConfig, authHeader, authValue string) *transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	limit := rate.Inf
	if cfg.RateInterval > 0 {
		limit = rate.Every(cfg.RateInterval)
	}
	t := &transport{
		provider:   provider,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, 1),
		logger:     cfg.Logger,
		events:     cfg.Events,
		now:        cfg.Now,
	}
	if cfg.Token != "" {
		t.authHeader, t.authValue = authHeader, authValue
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.events == nil {
		t.events = domain.Discard
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// getJSON decodes the body at url into out and reports whether it succeeded.
// Failures are logged and emitted, never returned. A request abandoned because
// ctx ended is not a provider failure and only logs at debug.
func (t *transport) getJSON(ctx context.Context, url string, out any) bool {
	err := t.fetch(ctx, url, out)
	if err == nil {
		return true
	}
	if ctx.Err() != nil {
		t.logger.Debug("Request cancelled", "provider", t.provider, "url", url, "err", ctx.Err())
		return false
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		fe = &FetchError{Kind: domain.KindTransport, Err: err}
	}
	if fe.Kind == domain.KindStatus {
		t.logger.Warn("Provider returned error status", "provider", t.provider, "status", fe.Status, "url", url)
	} else {
		t.logger.Error("Provider fetch failed", "provider", t.provider, "kind", fe.Kind, "url", url, "err", fe.Err)
	}
	t.events.Emit(domain.Event{
		Time:     t.now(),
		Provider: t.provider,
		Kind:     fe.Kind,
		URL:      url,
		Status:   fe.Status,
		Error:    fe.Error(),
	})
	return false
}

func (t *transport) fetch(ctx context.Context, url string, out any) error {
	if err := t.limiter.Wait(ctx); err != nil {
		return &FetchError{Kind: domain.KindTransport, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &FetchError{Kind: domain.KindTransport, Err: err}
	}
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("Accept", "application/json")
	if t.authHeader != "" {
		req.Header.Set(t.authHeader, t.authValue)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return &FetchError{Kind: domain.KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return &FetchError{Kind: domain.KindStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return &FetchError{Kind: domain.KindTransport, Err: err}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &FetchError{Kind: domain.KindDecode, Err: err}
	}
	return nil
}

// PagerFunc adapts a function to domain.Pager.
type PagerFunc func(ctx context.Context, n int) []domain.Item

func (f PagerFunc) Page(ctx context.Context, n int) []domain.Item { return f(ctx, n) }

// flexID accepts both numeric and string JSON ids.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}
