package engine

import (
	"context"

	"github.com/qepting91/hotfeed/internal/domain"
)

// Rung is one step of the broadening ladder: query with Floor and accept the
// result if it holds at least Want items. The last rung accepts anything.
type Rung struct {
	Floor int
	Want  int
}

// LadderFor returns the score floors for a popularity search. The unbounded
// window starts higher because old items have had longer to collect score.
func LadderFor(period string) []Rung {
	if period == domain.PeriodAll {
		return []Rung{{Floor: 100, Want: 50}, {Floor: 20, Want: 10}, {Floor: 0}}
	}
	return []Rung{{Floor: 20, Want: 50}, {Floor: 5, Want: 10}, {Floor: 0}}
}

// Broaden runs fetch for each rung in order and returns the first result that
// meets its rung's count, sorted by score.
func Broaden(ctx context.Context, rungs []Rung, fetch func(ctx context.Context, floor int) []domain.Item) []domain.Item {
	var items []domain.Item
	for i, r := range rungs {
		items = fetch(ctx, r.Floor)
		if i == len(rungs)-1 || len(items) >= r.Want {
			break
		}
	}
	return SortByScore(items)
}
