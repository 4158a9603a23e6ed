package domain

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// Period keys understood by every provider.
const (
	PeriodDay   = "1day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"
)

// Sort modes accepted by Search.
const (
	SortRelevance = "rel"
	SortScore     = "count"
)

// Periods lists the known period keys, shortest window first.
var Periods = []string{PeriodDay, PeriodWeek, PeriodMonth, PeriodYear, PeriodAll}

// NormalizePeriod returns period if it is a known key and PeriodWeek otherwise.
func NormalizePeriod(period string) string {
	for _, p := range Periods {
		if p == period {
			return p
		}
	}
	return PeriodWeek
}

// Item is a provider-agnostic content entry.
type Item struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	URL          string          `json:"url"`
	RenderedBody string          `json:"rendered_body,omitempty"`
	Score        int             `json:"score"`
	CommentCount int             `json:"comment_count"`
	PublishedAt  string          `json:"published_at"`
	Author       json.RawMessage `json:"author,omitempty"`
	Comments     []Comment       `json:"comments,omitempty"`
}

// Comment is a single comment. Children is empty for providers without threads.
type Comment struct {
	ID           string          `json:"id"`
	Body         string          `json:"body"`
	RenderedBody string          `json:"rendered_body"`
	CreatedAt    string          `json:"created_at"`
	Author       json.RawMessage `json:"author,omitempty"`
	Children     []Comment       `json:"children"`
}

// Query describes one provider-native listing request. Paging parameters are
// added by the Pager.
type Query struct {
	Endpoint string     // path below the provider's items endpoint, "" for the root
	Params   url.Values // extra native parameters (tag, top, t, ...)
	Filter   string     // native filter expression, unencoded
	PerPage  int
	MinScore int // applied after fetch; 0 keeps everything
}

// Pager fetches pages of a single Query. Page never fails: transport, status
// and decode failures all come back as an empty page.
type Pager interface {
	Page(ctx context.Context, n int) []Item
}

// Policy is the fetch strategy for one period key.
type Policy struct {
	Pages    int           `yaml:"pages"`
	MinScore int           `yaml:"min_score"`
	TTL      time.Duration `yaml:"ttl"`
}

// PolicyOverride replaces the fields of a Policy that are set. A nil field
// keeps the provider default, so an explicit zero is still an override.
type PolicyOverride struct {
	Pages    *int           `yaml:"pages"`
	MinScore *int           `yaml:"min_score"`
	TTL      *time.Duration `yaml:"ttl"`
}

// Provider is the capability set the engine needs from one publishing platform.
type Provider interface {
	Name() string
	Policies() map[string]Policy

	HotQuery(period string, policy Policy) Query
	// SearchQuery builds a popularity search with an inclusive score floor.
	SearchQuery(keyword, period string, floor int) Query
	KeywordQuery(keyword, period string) Query
	TimelineQuery() Query

	Pager(q Query) Pager
	Detail(ctx context.Context, id string) Item
	Comments(ctx context.Context, id string) []Comment
}

// Failure kinds carried by Event.
const (
	KindTransport = "transport_failure"
	KindStatus    = "provider_error"
	KindDecode    = "decode_failure"
	KindPopulate  = "populate"
)

// Event is an observability record emitted where failures are swallowed.
type Event struct {
	Time     time.Time `json:"time"`
	Provider string    `json:"provider"`
	Kind     string    `json:"kind"`
	URL      string    `json:"url,omitempty"`
	Period   string    `json:"period,omitempty"`
	Status   int       `json:"status,omitempty"`
	Items    int       `json:"items,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// EventSink receives events. Emit must not block.
type EventSink interface {
	Emit(Event)
}

// Discard is an EventSink that drops everything.
var Discard EventSink = discard{}

type discard struct{}

func (discard) Emit(Event) {}
