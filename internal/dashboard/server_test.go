package dashboard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
)

type fakeSource struct {
	name    string
	entries []engine.EntryInfo
}

func (f fakeSource) Name() string                 { return f.name }
func (f fakeSource) Snapshot() []engine.EntryInfo { return f.entries }

func testSources() []Source {
	exp := time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	return []Source{
		fakeSource{name: "qiita", entries: []engine.EntryInfo{
			{Period: domain.PeriodWeek, Items: 40, TopScore: 310, ExpiresAt: exp, Fresh: true},
		}},
		fakeSource{name: "devto"},
	}
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter(testSources()...))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected response: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	var body struct {
		Status string                        `json:"status"`
		Caches map[string][]engine.EntryInfo `json:"caches"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Status != "ok" || len(body.Caches) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
	q := body.Caches["qiita"]
	if len(q) != 1 || q[0].Period != domain.PeriodWeek || q[0].TopScore != 310 || !q[0].Fresh {
		t.Fatalf("unexpected qiita snapshot: %+v", q)
	}
}

func TestCharts(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter(testSources()...).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "echarts.init") {
		t.Fatalf("charts missing from page")
	}
}

func TestUnknownRoute(t *testing.T) {
	rec := httptest.NewRecorder()
	NewRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/top", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
