package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
)

const devtoBaseURL = "https://dev.to/api"

// DevTo serves articles from the Forem API. Score is
// positive_reactions_count; the API cannot filter on it, so every floor is
// applied after the fetch.
type DevTo struct {
	t       *transport
	baseURL string
}

type devtoArticle struct {
	ID            flexID          `json:"id"`
	Title         string          `json:"title"`
	URL           string          `json:"url"`
	BodyHTML      string          `json:"body_html"`
	Reactions     int             `json:"positive_reactions_count"`
	CommentsCount int             `json:"comments_count"`
	PublishedAt   string          `json:"published_at"`
	User          json.RawMessage `json:"user"`
}

type devtoComment struct {
	IDCode    string          `json:"id_code"`
	Body      string          `json:"body"`
	BodyHTML  string          `json:"body_html"`
	CreatedAt string          `json:"created_at"`
	User      json.RawMessage `json:"user"`
	Children  []devtoComment  `json:"children"`
}

func NewDevTo(cfg ClientConfig) *DevTo {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = devtoBaseURL
	}
	return &DevTo{t: newTransport("devto", cfg, "api-key", cfg.Token), baseURL: base}
}

func (d *DevTo) Name() string { return "devto" }

func (d *DevTo) Policies() map[string]domain.Policy {
	return engine.NewPolicyTable([5]int{0, 5, 30, 150, 500})
}

func (d *DevTo) HotQuery(period string, policy domain.Policy) domain.Query {
	params := url.Values{}
	if days, ok := periodDays(period); ok {
		params.Set("top", strconv.Itoa(days))
	}
	return domain.Query{Params: params, PerPage: 100, MinScore: policy.MinScore}
}

func (d *DevTo) SearchQuery(keyword, period string, floor int) domain.Query {
	q := d.KeywordQuery(keyword, period)
	q.MinScore = floor
	return q
}

// KeywordQuery searches by tag; "all" sends no top window.
func (d *DevTo) KeywordQuery(keyword, period string) domain.Query {
	params := url.Values{}
	if keyword != "" {
		params.Set("tag", keyword)
	}
	if period != domain.PeriodAll {
		if days, ok := periodDays(period); ok {
			params.Set("top", strconv.Itoa(days))
		}
	}
	return domain.Query{Params: params, PerPage: 300}
}

func (d *DevTo) TimelineQuery() domain.Query {
	return domain.Query{Endpoint: "/latest", PerPage: 100}
}

func (d *DevTo) Pager(query domain.Query) domain.Pager {
	return PagerFunc(func(ctx context.Context, n int) []domain.Item {
		var raw []devtoArticle
		if !d.t.getJSON(ctx, d.listURL(query, n), &raw) {
			return nil
		}
		items := make([]domain.Item, 0, len(raw))
		for _, a := range raw {
			items = append(items, a.toItem())
		}
		return items
	})
}

func (d *DevTo) Detail(ctx context.Context, id string) domain.Item {
	var raw devtoArticle
	if !d.t.getJSON(ctx, d.baseURL+"/articles/"+url.PathEscape(id), &raw) {
		return domain.Item{}
	}
	return raw.toItem()
}

func (d *DevTo) Comments(ctx context.Context, id string) []domain.Comment {
	var raw []devtoComment
	if !d.t.getJSON(ctx, d.baseURL+"/comments?a_id="+url.QueryEscape(id), &raw) {
		return []domain.Comment{}
	}
	return convertDevtoComments(raw)
}

func (d *DevTo) listURL(query domain.Query, page int) string {
	u := fmt.Sprintf("%s/articles%s?page=%d&per_page=%d", d.baseURL, query.Endpoint, page, query.PerPage)
	if len(query.Params) > 0 {
		u += "&" + query.Params.Encode()
	}
	return u
}

func convertDevtoComments(raw []devtoComment) []domain.Comment {
	out := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		out = append(out, domain.Comment{
			ID:           c.IDCode,
			Body:         c.Body,
			RenderedBody: c.BodyHTML,
			CreatedAt:    c.CreatedAt,
			Author:       c.User,
			Children:     convertDevtoComments(c.Children),
		})
	}
	return out
}

// periodDays is the Forem "top" window for a period key.
func periodDays(period string) (int, bool) {
	switch period {
	case domain.PeriodDay:
		return 1, true
	case domain.PeriodWeek:
		return 7, true
	case domain.PeriodMonth:
		return 30, true
	case domain.PeriodYear:
		return 365, true
	case domain.PeriodAll:
		return 3650, true
	}
	return 0, false
}

func (a devtoArticle) toItem() domain.Item {
	return domain.Item{
		ID:           string(a.ID),
		Title:        a.Title,
		URL:          a.URL,
		RenderedBody: a.BodyHTML,
		Score:        a.Reactions,
		CommentCount: a.CommentsCount,
		PublishedAt:  a.PublishedAt,
		Author:       a.User,
	}
}
