package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
)

// MockProvider implements domain.Provider with generated, repeatable data.
// Every listing serves Pages full pages and then runs dry.
type MockProvider struct {
	name    string
	Pages   int
	PerPage int
	Latency time.Duration
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{name: name, Pages: 4, PerPage: 25}
}

func (m *MockProvider) Name() string { return m.name }

func (m *MockProvider) Policies() map[string]domain.Policy {
	return engine.NewPolicyTable([5]int{0, 5, 10, 20, 40})
}

func (m *MockProvider) HotQuery(period string, policy domain.Policy) domain.Query {
	return domain.Query{Endpoint: "hot/" + period, MinScore: policy.MinScore, PerPage: m.PerPage}
}

func (m *MockProvider) SearchQuery(keyword, period string, floor int) domain.Query {
	return domain.Query{Endpoint: "search/" + period, Filter: keyword, MinScore: floor, PerPage: m.PerPage}
}

func (m *MockProvider) KeywordQuery(keyword, period string) domain.Query {
	return domain.Query{Endpoint: "search/" + period, Filter: keyword, PerPage: m.PerPage}
}

func (m *MockProvider) TimelineQuery() domain.Query {
	return domain.Query{Endpoint: "latest", PerPage: m.PerPage}
}

func (m *MockProvider) Pager(q domain.Query) domain.Pager {
	return PagerFunc(func(ctx context.Context, n int) []domain.Item {
		if !m.wait(ctx) || n > m.Pages {
			return nil
		}
		items := make([]domain.Item, 0, q.PerPage)
		for i := 0; i < q.PerPage; i++ {
			idx := (n-1)*q.PerPage + i
			items = append(items, m.item(q.Endpoint, idx))
		}
		return items
	})
}

func (m *MockProvider) Detail(ctx context.Context, id string) domain.Item {
	if !m.wait(ctx) {
		return domain.Item{}
	}
	it := m.item("detail", 0)
	it.ID = id
	it.RenderedBody = fmt.Sprintf("<p>Simulated article %s</p>", id)
	it.Comments = m.Comments(ctx, id)
	return it
}

func (m *MockProvider) Comments(ctx context.Context, id string) []domain.Comment {
	if !m.wait(ctx) {
		return []domain.Comment{}
	}
	author, _ := json.Marshal(map[string]string{"name": "simulated_user"})
	reply := domain.Comment{ID: id + "-c1-r1", Body: "reply", RenderedBody: "<p>reply</p>", Author: author, Children: []domain.Comment{}}
	return []domain.Comment{
		{ID: id + "-c1", Body: "first", RenderedBody: "<p>first</p>", Author: author, Children: []domain.Comment{reply}},
		{ID: id + "-c2", Body: "second", RenderedBody: "<p>second</p>", Author: author, Children: []domain.Comment{}},
	}
}

func (m *MockProvider) item(scope string, idx int) domain.Item {
	author, _ := json.Marshal(map[string]string{"name": "simulated_user"})
	return domain.Item{
		ID:           fmt.Sprintf("mock_%s_%s_%d", m.name, scope, idx),
		Title:        fmt.Sprintf("[%s] Simulated Article #%d", m.name, idx),
		URL:          "http://localhost/mock-url",
		Score:        (idx * 37) % 500,
		CommentCount: idx % 50,
		PublishedAt:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(idx) * time.Hour).Format(time.RFC3339),
		Author:       author,
	}
}

// wait simulates network latency and reports whether ctx is still live.
func (m *MockProvider) wait(ctx context.Context) bool {
	if m.Latency <= 0 {
		return ctx.Err() == nil
	}
	select {
	case <-ctx.Done():
		return false
	case <-time.After(m.Latency):
		return true
	}
}
