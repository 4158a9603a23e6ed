package engine

import (
	"context"
	"sort"

	"github.com/qepting91/hotfeed/internal/domain"
)

// Paginate walks pages 1..ceiling (capped at MaxPage) and stops at the first
// empty page. A failed page looks the same as an empty one and ends the walk.
func Paginate(ctx context.Context, pager domain.Pager, ceiling int) []domain.Item {
	if ceiling > MaxPage {
		ceiling = MaxPage
	}

	var all []domain.Item
	for page := 1; page <= ceiling; page++ {
		if ctx.Err() != nil {
			break
		}
		items := pager.Page(ctx, page)
		if len(items) == 0 {
			break
		}
		all = append(all, items...)
	}
	return all
}

// FilterMinScore keeps items with Score >= floor, preserving order.
func FilterMinScore(items []domain.Item, floor int) []domain.Item {
	if floor <= 0 {
		return items
	}
	out := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.Score >= floor {
			out = append(out, it)
		}
	}
	return out
}

// SortByScore returns a copy of items ordered by score, highest first.
// Equal scores keep their provider order.
func SortByScore(items []domain.Item) []domain.Item {
	out := make([]domain.Item, len(items))
	copy(out, items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}
