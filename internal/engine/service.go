package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Service serves one provider's listings through a hot cache. None of its
// public methods return errors: an empty result is the failure signal.
type Service struct {
	provider domain.Provider
	policies PolicyTable
	cache    *Cache
	now      func() time.Time
	logger   *slog.Logger
	events   domain.EventSink

	revalidate bool
	bgCtx      context.Context
	bgCancel   context.CancelFunc
	flight     singleflight.Group

	mu           sync.Mutex
	revalidating map[string]bool
	wg           sync.WaitGroup
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithEvents(sink domain.EventSink) Option {
	return func(s *Service) { s.events = sink }
}

// WithPolicyOverrides merges per-period overrides into the provider's table.
func WithPolicyOverrides(overrides map[string]domain.PolicyOverride) Option {
	return func(s *Service) { s.policies = s.policies.Merge(overrides) }
}

// WithRevalidateOnStale controls whether a stale read starts a background
// refresh. When off, stale entries wait for the scheduler.
func WithRevalidateOnStale(on bool) Option {
	return func(s *Service) { s.revalidate = on }
}

func NewService(p domain.Provider, opts ...Option) *Service {
	s := &Service{
		provider:     p,
		policies:     PolicyTable(p.Policies()),
		now:          time.Now,
		logger:       slog.Default(),
		events:       domain.Discard,
		cache:        NewCache(),
		revalidate:   true,
		revalidating: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("provider", p.Name())
	s.bgCtx, s.bgCancel = context.WithCancel(context.Background())
	return s
}

func (s *Service) Name() string { return s.provider.Name() }

// Policy returns the effective policy for period.
func (s *Service) Policy(period string) domain.Policy {
	return s.policies.Lookup(period)
}

// Hot returns the cached hot listing for period. Fresh and stale entries are
// served without waiting on the network; a missing entry is populated first.
// Concurrent misses share one populate cycle, which runs on the service's own
// context so a caller giving up does not cut it short for the others. The
// returned slice belongs to the caller.
func (s *Service) Hot(ctx context.Context, period string) []domain.Item {
	key := domain.NormalizePeriod(period)

	if e, ok := s.cache.Get(key); ok {
		if e.Fresh(s.now()) {
			s.logger.Debug("Cache hit", "period", key)
		} else if s.revalidate {
			s.revalidateAsync(key)
		}
		return cloneItems(e.Items)
	}

	ch := s.flight.DoChan(key, func() (any, error) {
		if !s.track() {
			return []domain.Item(nil), nil
		}
		defer s.wg.Done()
		return s.populate(s.bgCtx, key), nil
	})
	select {
	case res := <-ch:
		return cloneItems(res.Val.([]domain.Item))
	case <-ctx.Done():
		s.logger.Debug("Caller gave up waiting for populate", "period", key, "err", ctx.Err())
		return []domain.Item{}
	}
}

// Refresh runs one populate cycle for period and returns the items now served
// for it. A cycle that fetched nothing, or whose ctx ended mid-walk, leaves
// the previous entry in place.
func (s *Service) Refresh(ctx context.Context, period string) []domain.Item {
	return cloneItems(s.populate(ctx, domain.NormalizePeriod(period)))
}

// Keys returns the period keys currently cached.
func (s *Service) Keys() []string {
	return s.cache.Keys()
}

// Search queries the provider directly. SortScore searches use the broadening
// ladder; every other sort mode keeps the provider's own order.
func (s *Service) Search(ctx context.Context, keyword, sortMode, period string) []domain.Item {
	period = domain.NormalizePeriod(period)

	if sortMode == domain.SortScore {
		items := Broaden(ctx, LadderFor(period), func(ctx context.Context, floor int) []domain.Item {
			return s.fetchOnce(ctx, s.provider.SearchQuery(keyword, period, floor))
		})
		s.logger.Info("Score search", "keyword", keyword, "period", period, "items", len(items))
		return orEmpty(items)
	}

	return orEmpty(s.fetchOnce(ctx, s.provider.KeywordQuery(keyword, period)))
}

// Timeline returns the newest items, unfiltered, single page.
func (s *Service) Timeline(ctx context.Context) []domain.Item {
	return orEmpty(s.fetchOnce(ctx, s.provider.TimelineQuery()))
}

// Detail returns one item, or the zero Item if the provider failed.
func (s *Service) Detail(ctx context.Context, id string) domain.Item {
	return s.provider.Detail(ctx, id)
}

// Comments returns the comments of one item; empty on failure.
func (s *Service) Comments(ctx context.Context, id string) []domain.Comment {
	c := s.provider.Comments(ctx, id)
	if c == nil {
		return []domain.Comment{}
	}
	return c
}

// Close cancels background populates and revalidations and waits for them to
// finish.
func (s *Service) Close() {
	s.mu.Lock()
	s.bgCancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// EntryInfo summarises one cached period for operators.
type EntryInfo struct {
	Period    string    `json:"period"`
	Items     int       `json:"items"`
	TopScore  int       `json:"top_score"`
	ExpiresAt time.Time `json:"expires_at"`
	Fresh     bool      `json:"fresh"`
}

// Snapshot describes every cached period, in key order.
func (s *Service) Snapshot() []EntryInfo {
	now := s.now()
	out := make([]EntryInfo, 0, s.cache.Len())
	for _, key := range s.cache.Keys() {
		e, ok := s.cache.Get(key)
		if !ok {
			continue
		}
		info := EntryInfo{Period: key, Items: len(e.Items), ExpiresAt: e.ExpiresAt, Fresh: e.Fresh(now)}
		if len(e.Items) > 0 {
			info.TopScore = e.Items[0].Score
		}
		out = append(out, info)
	}
	return out
}

func (s *Service) fetchOnce(ctx context.Context, q domain.Query) []domain.Item {
	return FilterMinScore(Paginate(ctx, s.provider.Pager(q), 1), q.MinScore)
}

func (s *Service) populate(ctx context.Context, key string) []domain.Item {
	policy := s.policies.Lookup(key)
	q := s.provider.HotQuery(key, policy)

	s.logger.Info("Fetching hot listing", "period", key, "pages", policy.Pages, "min_score", policy.MinScore)

	raw := Paginate(ctx, s.provider.Pager(q), policy.Pages)
	if ctx.Err() != nil {
		s.logger.Debug("Populate cancelled, keeping previous entry", "period", key, "fetched", len(raw), "err", ctx.Err())
		return s.current(key)
	}
	if len(raw) == 0 {
		s.logger.Warn("Populate returned nothing, keeping previous entry", "period", key)
		s.events.Emit(domain.Event{Time: s.now(), Provider: s.provider.Name(), Kind: domain.KindPopulate, Period: key, Error: "empty fetch"})
		return s.current(key)
	}

	items := SortByScore(FilterMinScore(raw, q.MinScore))
	s.cache.Put(key, &Entry{Items: items, ExpiresAt: s.now().Add(policy.TTL)})

	s.logger.Info("Cached hot listing", "period", key, "items", len(items))
	s.events.Emit(domain.Event{Time: s.now(), Provider: s.provider.Name(), Kind: domain.KindPopulate, Period: key, Items: len(items)})
	return items
}

func (s *Service) revalidateAsync(key string) {
	s.mu.Lock()
	if s.revalidating[key] || !s.trackLocked() {
		s.mu.Unlock()
		return
	}
	s.revalidating[key] = true
	s.mu.Unlock()

	s.logger.Debug("Serving stale entry, revalidating", "period", key)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.revalidating, key)
			s.mu.Unlock()
		}()
		s.flight.Do(key, func() (any, error) {
			return s.populate(s.bgCtx, key), nil
		})
	}()
}

// current returns the items cached for key, or nil.
func (s *Service) current(key string) []domain.Item {
	if e, ok := s.cache.Get(key); ok {
		return e.Items
	}
	return nil
}

// track registers a background populate with Close. It fails once Close has
// started.
func (s *Service) track() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.trackLocked()
}

func (s *Service) trackLocked() bool {
	if s.bgCtx.Err() != nil {
		return false
	}
	s.wg.Add(1)
	return true
}

// cloneItems copies a cached slice so callers cannot mutate shared entries.
func cloneItems(items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	return out
}

func orEmpty(items []domain.Item) []domain.Item {
	if items == nil {
		return []domain.Item{}
	}
	return items
}
