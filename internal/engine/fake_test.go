package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
)

// stubPager serves fixed pages and counts calls.
type stubPager struct {
	pages [][]domain.Item
	calls atomic.Int32
}

func (p *stubPager) Page(_ context.Context, n int) []domain.Item {
	p.calls.Add(1)
	if n > len(p.pages) {
		return nil
	}
	return p.pages[n-1]
}

// fakeProvider answers every hot query with the same pager content and
// records how many pages were requested.
type fakeProvider struct {
	mu       sync.Mutex
	pages    [][]domain.Item
	byFloor  map[int][]domain.Item
	floors   []int
	block    chan struct{}
	onPage   func(n int)
	fetches  atomic.Int32
	policies PolicyTable
}

func newFakeProvider(pages ...[]domain.Item) *fakeProvider {
	return &fakeProvider{pages: pages, policies: NewPolicyTable([5]int{0, 0, 0, 0, 0})}
}

func (f *fakeProvider) setPages(pages ...[]domain.Item) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages = pages
}

func (f *fakeProvider) Name() string                      { return "fake" }
func (f *fakeProvider) Policies() map[string]domain.Policy { return f.policies }

func (f *fakeProvider) HotQuery(period string, p domain.Policy) domain.Query {
	return domain.Query{Endpoint: "hot/" + period, MinScore: p.MinScore}
}

func (f *fakeProvider) SearchQuery(keyword, period string, floor int) domain.Query {
	return domain.Query{Endpoint: "search", Filter: fmt.Sprintf("%d", floor)}
}

func (f *fakeProvider) KeywordQuery(keyword, period string) domain.Query {
	return domain.Query{Endpoint: "keyword"}
}

func (f *fakeProvider) TimelineQuery() domain.Query { return domain.Query{Endpoint: "timeline"} }

func (f *fakeProvider) Pager(q domain.Query) domain.Pager {
	if q.Endpoint == "search" {
		var floor int
		fmt.Sscanf(q.Filter, "%d", &floor)
		f.mu.Lock()
		f.floors = append(f.floors, floor)
		items := f.byFloor[floor]
		f.mu.Unlock()
		return &stubPager{pages: [][]domain.Item{items}}
	}
	return pagerFunc(func(ctx context.Context, n int) []domain.Item {
		f.fetches.Add(1)
		if f.block != nil {
			<-f.block
		}
		if f.onPage != nil {
			f.onPage(n)
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		if n > len(f.pages) {
			return nil
		}
		return f.pages[n-1]
	})
}

func (f *fakeProvider) Detail(context.Context, string) domain.Item       { return domain.Item{} }
func (f *fakeProvider) Comments(context.Context, string) []domain.Comment { return nil }

type pagerFunc func(ctx context.Context, n int) []domain.Item

func (p pagerFunc) Page(ctx context.Context, n int) []domain.Item { return p(ctx, n) }

// makeItems returns n items with the given scores cycling.
func makeItems(prefix string, scores ...int) []domain.Item {
	out := make([]domain.Item, len(scores))
	for i, s := range scores {
		out[i] = domain.Item{ID: fmt.Sprintf("%s%d", prefix, i), Score: s}
	}
	return out
}

func nItems(prefix string, n int) []domain.Item {
	scores := make([]int, n)
	for i := range scores {
		scores[i] = i
	}
	return makeItems(prefix, scores...)
}

// fakeClock is a settable clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func ptr[T any](v T) *T { return &v }

// waitFor polls cond until it holds or a second has passed.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met within 1s")
		}
		time.Sleep(time.Millisecond)
	}
}
