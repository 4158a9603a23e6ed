package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
	"golang.org/x/time/rate"
)

// RedditCredentials are the script-app credentials for the authenticated API.
type RedditCredentials struct {
	ID, Secret, Username, Password string
	UserAgent                      string
}

// Reddit serves top posts across a multireddit ("golang+programming").
// Listings page by cursor, which the Pager tracks between calls.
type Reddit struct {
	client    *reddit.Client
	limiter   *rate.Limiter
	subreddit string
	logger    *slog.Logger
	events    domain.EventSink
	now       func() time.Time
}

func NewReddit(creds RedditCredentials, subreddits []string, logger *slog.Logger, events domain.EventSink) (*Reddit, error) {
	if len(subreddits) == 0 {
		return nil, fmt.Errorf("reddit: no subreddits configured")
	}
	client, err := reddit.NewClient(
		reddit.Credentials{ID: creds.ID, Secret: creds.Secret, Username: creds.Username, Password: creds.Password},
		reddit.WithUserAgent(creds.UserAgent),
	)
	if err != nil {
		return nil, fmt.Errorf("reddit: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if events == nil {
		events = domain.Discard
	}

	return &Reddit{
		client: client,
		// API Rate Limit: ~60 reqs/min (safe buffer)
		limiter:   rate.NewLimiter(rate.Every(1*time.Second), 1),
		subreddit: strings.Join(subreddits, "+"),
		logger:    logger,
		events:    events,
		now:       time.Now,
	}, nil
}

func (r *Reddit) Name() string { return "reddit" }

func (r *Reddit) Policies() map[string]domain.Policy {
	return engine.NewPolicyTable([5]int{0, 10, 50, 200, 500})
}

func (r *Reddit) HotQuery(period string, policy domain.Policy) domain.Query {
	return domain.Query{
		Endpoint: "top",
		Params:   url.Values{"t": {redditTime(period)}},
		PerPage:  100,
		MinScore: policy.MinScore,
	}
}

func (r *Reddit) SearchQuery(keyword, period string, floor int) domain.Query {
	q := r.KeywordQuery(keyword, period)
	q.Params.Set("sort", "top")
	q.MinScore = floor
	return q
}

func (r *Reddit) KeywordQuery(keyword, period string) domain.Query {
	if keyword == "" {
		return domain.Query{Endpoint: "top", Params: url.Values{"t": {redditTime(period)}}, PerPage: 100}
	}
	return domain.Query{
		Endpoint: "search",
		Params:   url.Values{"q": {keyword}, "t": {redditTime(period)}, "sort": {"relevance"}},
		PerPage:  100,
	}
}

func (r *Reddit) TimelineQuery() domain.Query {
	return domain.Query{Endpoint: "new", Params: url.Values{}, PerPage: 100}
}

func (r *Reddit) Pager(q domain.Query) domain.Pager {
	var after string
	return PagerFunc(func(ctx context.Context, n int) []domain.Item {
		if n > 1 && after == "" {
			return nil
		}
		posts, next, err := r.list(ctx, q, after)
		if err != nil {
			r.fail(ctx, q.Endpoint, err)
			return nil
		}
		after = next

		items := make([]domain.Item, 0, len(posts))
		for _, p := range posts {
			items = append(items, postToItem(p))
		}
		return items
	})
}

func (r *Reddit) Detail(ctx context.Context, id string) domain.Item {
	pc, err := r.get(ctx, id)
	if err != nil {
		r.fail(ctx, "comments/"+id, err)
		return domain.Item{}
	}
	item := postToItem(pc.Post)
	item.Comments = convertRedditComments(pc.Comments)
	return item
}

func (r *Reddit) Comments(ctx context.Context, id string) []domain.Comment {
	pc, err := r.get(ctx, id)
	if err != nil {
		r.fail(ctx, "comments/"+id, err)
		return []domain.Comment{}
	}
	return convertRedditComments(pc.Comments)
}

func (r *Reddit) list(ctx context.Context, q domain.Query, after string) ([]*reddit.Post, string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	listOpts := reddit.ListOptions{Limit: q.PerPage, After: after}
	postOpts := reddit.ListPostOptions{ListOptions: listOpts, Time: q.Params.Get("t")}

	var (
		posts []*reddit.Post
		resp  *reddit.Response
		err   error
	)
	switch q.Endpoint {
	case "search":
		posts, resp, err = r.client.Subreddit.SearchPosts(ctx, q.Params.Get("q"), r.subreddit, &reddit.ListPostSearchOptions{
			ListPostOptions: postOpts,
			Sort:            q.Params.Get("sort"),
		})
	case "new":
		posts, resp, err = r.client.Subreddit.NewPosts(ctx, r.subreddit, &listOpts)
	default:
		posts, resp, err = r.client.Subreddit.TopPosts(ctx, r.subreddit, &postOpts)
	}
	if err != nil {
		return nil, "", fmt.Errorf("authenticated api error: %w", err)
	}
	next := ""
	if resp != nil {
		next = resp.After
	}
	return posts, next, nil
}

func (r *Reddit) get(ctx context.Context, id string) (*reddit.PostAndComments, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	pc, _, err := r.client.Post.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("authenticated api error: %w", err)
	}
	return pc, nil
}

func (r *Reddit) fail(ctx context.Context, endpoint string, err error) {
	if ctx.Err() != nil {
		r.logger.Debug("Request cancelled", "provider", r.Name(), "endpoint", endpoint, "err", ctx.Err())
		return
	}
	r.logger.Error("Provider fetch failed", "provider", r.Name(), "endpoint", endpoint, "sub", r.subreddit, "err", err)
	r.events.Emit(domain.Event{
		Time:     r.now(),
		Provider: r.Name(),
		Kind:     domain.KindTransport,
		URL:      "r/" + r.subreddit + "/" + endpoint,
		Error:    err.Error(),
	})
}

// redditTime maps a period key to the listing "t" parameter.
func redditTime(period string) string {
	switch period {
	case domain.PeriodDay:
		return "day"
	case domain.PeriodMonth:
		return "month"
	case domain.PeriodYear:
		return "year"
	case domain.PeriodAll:
		return "all"
	}
	return "week"
}

func postToItem(p *reddit.Post) domain.Item {
	if p == nil {
		return domain.Item{}
	}
	return domain.Item{
		ID:           p.ID,
		Title:        p.Title,
		URL:          p.URL,
		RenderedBody: p.Body,
		Score:        max(p.Score, 0),
		CommentCount: p.NumberOfComments,
		PublishedAt:  formatTimestamp(p.Created),
		Author:       authorJSON(p.Author),
	}
}

func convertRedditComments(raw []*reddit.Comment) []domain.Comment {
	out := make([]domain.Comment, 0, len(raw))
	for _, c := range raw {
		if c == nil {
			continue
		}
		out = append(out, domain.Comment{
			ID:        c.ID,
			Body:      c.Body,
			CreatedAt: formatTimestamp(c.Created),
			Author:    authorJSON(c.Author),
			Children:  convertRedditComments(c.Replies.Comments),
		})
	}
	return out
}

func formatTimestamp(ts *reddit.Timestamp) string {
	if ts == nil {
		return ""
	}
	return ts.Time.UTC().Format(time.RFC3339)
}

func authorJSON(name string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"name": name})
	return b
}
