package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
)

// recordingRefresher counts Refresh calls per period.
type recordingRefresher struct {
	name string
	mu   sync.Mutex
	keys []string
	hits map[string]int
}

func newRecorder(name string, keys ...string) *recordingRefresher {
	return &recordingRefresher{name: name, keys: keys, hits: make(map[string]int)}
}

func (r *recordingRefresher) Name() string { return r.name }

func (r *recordingRefresher) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func (r *recordingRefresher) Refresh(_ context.Context, period string) []domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hits[period]++
	return nil
}

func (r *recordingRefresher) count(period string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[period]
}

func TestScheduler_WarmUpPopulatesWarmPeriods(t *testing.T) {
	a := NewService(newFakeProvider(makeItems("a", 1)))
	b := NewService(newFakeProvider(makeItems("b", 2)))
	s := NewScheduler(time.Hour, DefaultWarmPeriods, nil, a, b)

	s.WarmUp(context.Background())

	for _, svc := range []*Service{a, b} {
		keys := svc.Keys()
		if len(keys) != 2 || keys[0] != domain.PeriodMonth || keys[1] != domain.PeriodWeek {
			t.Fatalf("expected month and week cached, got %v", keys)
		}
	}
}

func TestScheduler_RefreshAllOnlyTouchesCachedKeys(t *testing.T) {
	r := newRecorder("r", domain.PeriodDay, domain.PeriodYear)
	s := NewScheduler(time.Hour, nil, nil, r)

	s.RefreshAll(context.Background())

	if r.count(domain.PeriodDay) != 1 || r.count(domain.PeriodYear) != 1 {
		t.Fatalf("expected one refresh per cached key, got %v", r.hits)
	}
	if r.count(domain.PeriodWeek) != 0 || len(r.hits) != 2 {
		t.Fatalf("scheduler refreshed keys nobody cached: %v", r.hits)
	}
}

func TestScheduler_RefreshReplacesEntries(t *testing.T) {
	clock := newClock()
	p := newFakeProvider(makeItems("old", 1))
	svc := NewService(p, WithClock(clock.Now))
	s := NewScheduler(time.Hour, nil, nil, svc)
	ctx := context.Background()

	svc.Hot(ctx, domain.PeriodDay)
	p.setPages(makeItems("new", 1, 2))
	s.RefreshAll(ctx)

	got := svc.Hot(ctx, domain.PeriodDay)
	if len(got) != 2 || got[0].ID != "new1" {
		t.Fatalf("expected replaced entry, got %v", ids(got))
	}
}

func TestScheduler_StartStop(t *testing.T) {
	r := newRecorder("r", domain.PeriodAll)
	s := NewScheduler(10*time.Millisecond, []string{domain.PeriodWeek}, nil, r)

	s.Start(context.Background())
	deadline := time.Now().Add(2 * time.Second)
	for r.count(domain.PeriodAll) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	s.Stop()

	if r.count(domain.PeriodWeek) != 1 {
		t.Fatalf("expected one warm-up refresh, got %d", r.count(domain.PeriodWeek))
	}
	if r.count(domain.PeriodAll) == 0 {
		t.Fatalf("periodic refresh never ran")
	}

	after := r.count(domain.PeriodAll)
	time.Sleep(30 * time.Millisecond)
	if r.count(domain.PeriodAll) != after {
		t.Fatalf("refresh kept running after Stop")
	}
}
