package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
)

const qiitaBaseURL = "https://qiita.com/api/v2"

// Qiita serves items from the Qiita v2 API. Score is likes_count; the hot
// listing's floor is expressed in stocks inside the query itself.
type Qiita struct {
	t       *transport
	baseURL string
	now     func() time.Time
}

type qiitaItem struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	URL           string          `json:"url"`
	RenderedBody  string          `json:"rendered_body"`
	LikesCount    int             `json:"likes_count"`
	CommentsCount int             `json:"comments_count"`
	CreatedAt     string          `json:"created_at"`
	User          json.RawMessage `json:"user"`
}

type qiitaComment struct {
	ID           string          `json:"id"`
	Body         string          `json:"body"`
	RenderedBody string          `json:"rendered_body"`
	CreatedAt    string          `json:"created_at"`
	User         json.RawMessage `json:"user"`
}

func NewQiita(cfg ClientConfig) *Qiita {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = qiitaBaseURL
	}
	t := newTransport("qiita", cfg, "Authorization", "Bearer "+cfg.Token)
	return &Qiita{t: t, baseURL: base, now: t.now}
}

func (q *Qiita) Name() string { return "qiita" }

func (q *Qiita) Policies() map[string]domain.Policy {
	return engine.NewPolicyTable([5]int{3, 10, 45, 500, 2500})
}

func (q *Qiita) HotQuery(period string, policy domain.Policy) domain.Query {
	return domain.Query{
		Filter:  fmt.Sprintf("created:>=%s stocks:>=%d", q.hotSince(period), policy.MinScore),
		PerPage: 100,
	}
}

func (q *Qiita) SearchQuery(keyword, period string, floor int) domain.Query {
	filter := strings.TrimSpace(q.searchFilter(keyword, period) + fmt.Sprintf(" stocks:>=%d", floor))
	return domain.Query{Filter: filter, PerPage: 100}
}

func (q *Qiita) KeywordQuery(keyword, period string) domain.Query {
	return domain.Query{Filter: q.searchFilter(keyword, period), PerPage: 100}
}

func (q *Qiita) TimelineQuery() domain.Query {
	return domain.Query{PerPage: 100}
}

func (q *Qiita) Pager(query domain.Query) domain.Pager {
	return PagerFunc(func(ctx context.Context, n int) []domain.Item {
		var raw []qiitaItem
		if !q.t.getJSON(ctx, q.listURL(query, n), &raw) {
			return nil
		}
		items := make([]domain.Item, 0, len(raw))
		for _, it := range raw {
			items = append(items, it.toItem())
		}
		return items
	})
}

func (q *Qiita) Detail(ctx context.Context, id string) domain.Item {
	var raw qiitaItem
	if !q.t.getJSON(ctx, q.baseURL+"/items/"+url.PathEscape(id), &raw) {
		return domain.Item{}
	}
	return raw.toItem()
}

func (q *Qiita) Comments(ctx context.Context, id string) []domain.Comment {
	var raw []qiitaComment
	if !q.t.getJSON(ctx, q.baseURL+"/items/"+url.PathEscape(id)+"/comments", &raw) {
		return []domain.Comment{}
	}
	out := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		out = append(out, domain.Comment{
			ID:           c.ID,
			Body:         c.Body,
			RenderedBody: c.RenderedBody,
			CreatedAt:    c.CreatedAt,
			Author:       c.User,
			Children:     []domain.Comment{},
		})
	}
	return out
}

func (q *Qiita) listURL(query domain.Query, page int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/items%s?page=%d&per_page=%d", q.baseURL, query.Endpoint, page, query.PerPage)
	if len(query.Params) > 0 {
		b.WriteString("&" + query.Params.Encode())
	}
	if query.Filter != "" {
		b.WriteString("&query=" + QiitaEscape(query.Filter))
	}
	return b.String()
}

// searchFilter combines the keyword with a created-date floor. "all" has no
// date clause, so an empty keyword there yields an empty filter.
func (q *Qiita) searchFilter(keyword, period string) string {
	parts := make([]string, 0, 2)
	if keyword != "" {
		parts = append(parts, keyword)
	}
	if since, ok := sinceDate(q.now(), period); ok {
		parts = append(parts, "created:>="+since)
	}
	return strings.Join(parts, " ")
}

// hotSince is the date floor for hot listings; "all" reaches back ten years.
func (q *Qiita) hotSince(period string) string {
	if since, ok := sinceDate(q.now(), period); ok {
		return since
	}
	return q.now().AddDate(-10, 0, 0).Format(time.DateOnly)
}

// sinceDate returns the ISO date floor for a bounded period.
func sinceDate(now time.Time, period string) (string, bool) {
	var t time.Time
	switch period {
	case domain.PeriodDay:
		t = now.AddDate(0, 0, -1)
	case domain.PeriodWeek:
		t = now.AddDate(0, 0, -7)
	case domain.PeriodMonth:
		t = now.AddDate(0, -1, 0)
	case domain.PeriodYear:
		t = now.AddDate(-1, 0, 0)
	default:
		return "", false
	}
	return t.Format(time.DateOnly), true
}

// QiitaEscape percent-encodes a filter expression, spaces as %20.
func QiitaEscape(filter string) string {
	return strings.ReplaceAll(url.QueryEscape(filter), "+", "%20")
}

func (it qiitaItem) toItem() domain.Item {
	return domain.Item{
		ID:           it.ID,
		Title:        it.Title,
		URL:          it.URL,
		RenderedBody: it.RenderedBody,
		Score:        it.LikesCount,
		CommentCount: it.CommentsCount,
		PublishedAt:  it.CreatedAt,
		Author:       it.User,
	}
}
