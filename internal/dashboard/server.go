package dashboard

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
)

// Source is a cache that can describe itself.
type Source interface {
	Name() string
	Snapshot() []engine.EntryInfo
}

// NewRouter serves the cache charts at / and a JSON status at /healthz.
func NewRouter(sources ...Source) http.Handler {
	r := chi.NewRouter()
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		renderCharts(w, sources)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		status := make(map[string][]engine.EntryInfo, len(sources))
		for _, s := range sources {
			status[s.Name()] = s.Snapshot()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "caches": status})
	})
	return r
}

func StartServer(port string, sources ...Source) error {
	return http.ListenAndServe(":"+port, NewRouter(sources...))
}

func renderCharts(w http.ResponseWriter, sources []Source) {
	// 1. Cache share per provider
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Cached Items by Provider"}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
	)

	// 2. Items and top score per period
	count := charts.NewBar()
	count.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Cached Items per Period"}))
	count.SetXAxis(domain.Periods)

	top := charts.NewBar()
	top.SetGlobalOptions(charts.WithTitleOpts(opts.Title{Title: "Top Score per Period"}))
	top.SetXAxis(domain.Periods)

	var pieItems []opts.PieData
	for _, s := range sources {
		byPeriod := make(map[string]engine.EntryInfo)
		total := 0
		for _, e := range s.Snapshot() {
			byPeriod[e.Period] = e
			total += e.Items
		}
		pieItems = append(pieItems, opts.PieData{Name: s.Name(), Value: total})

		counts := make([]opts.BarData, 0, len(domain.Periods))
		scores := make([]opts.BarData, 0, len(domain.Periods))
		for _, p := range domain.Periods {
			counts = append(counts, opts.BarData{Value: byPeriod[p].Items})
			scores = append(scores, opts.BarData{Value: byPeriod[p].TopScore})
		}
		count.AddSeries(s.Name(), counts)
		top.AddSeries(s.Name(), scores)
	}
	pie.AddSeries("Items", pieItems)

	pie.Render(w)
	count.Render(w)
	top.Render(w)
}
