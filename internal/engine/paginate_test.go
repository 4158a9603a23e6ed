package engine

import (
	"context"
	"testing"

	"github.com/qepting91/hotfeed/internal/domain"
)

func TestPaginate_StopsAtFirstEmptyPage(t *testing.T) {
	p := &stubPager{pages: [][]domain.Item{
		makeItems("a", 1, 2),
		makeItems("b", 3),
		nil,
		makeItems("c", 4),
	}}

	got := Paginate(context.Background(), p, 10)

	if calls := p.calls.Load(); calls != 3 {
		t.Fatalf("expected 3 page calls, got %d", calls)
	}
	want := []string{"a0", "a1", "b0"}
	if len(got) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(got))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("[%d] want %s got %s", i, id, got[i].ID)
		}
	}
}

func TestPaginate_RespectsCeiling(t *testing.T) {
	p := &stubPager{pages: [][]domain.Item{
		makeItems("a", 1), makeItems("b", 1), makeItems("c", 1),
	}}

	got := Paginate(context.Background(), p, 2)
	if len(got) != 2 || p.calls.Load() != 2 {
		t.Fatalf("expected 2 items in 2 calls, got %d items in %d calls", len(got), p.calls.Load())
	}
}

func TestPaginate_CapsAtMaxPage(t *testing.T) {
	pages := make([][]domain.Item, MaxPage+5)
	for i := range pages {
		pages[i] = makeItems("p", 1)
	}
	p := &stubPager{pages: pages}

	Paginate(context.Background(), p, MaxPage+5)
	if calls := p.calls.Load(); calls != MaxPage {
		t.Fatalf("expected %d calls, got %d", MaxPage, calls)
	}
}

func TestPaginate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &stubPager{pages: [][]domain.Item{makeItems("a", 1)}}

	if got := Paginate(ctx, p, 5); len(got) != 0 || p.calls.Load() != 0 {
		t.Fatalf("expected no calls on cancelled context, got %d calls", p.calls.Load())
	}
}

func TestSortByScore_Stable(t *testing.T) {
	in := []domain.Item{
		{ID: "a", Score: 5},
		{ID: "b", Score: 9},
		{ID: "c", Score: 5},
		{ID: "d", Score: 9},
		{ID: "e", Score: 1},
	}

	got := SortByScore(in)

	want := []string{"b", "d", "a", "c", "e"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("order mismatch at %d: want %v got %v", i, want, ids(got))
		}
	}
	if in[0].ID != "a" {
		t.Fatalf("input mutated")
	}
}

func TestFilterMinScore(t *testing.T) {
	in := makeItems("x", 0, 5, 10, 4, 5)

	got := FilterMinScore(in, 5)
	if len(got) != 3 || got[0].ID != "x1" || got[1].ID != "x2" || got[2].ID != "x4" {
		t.Fatalf("unexpected filter result: %v", ids(got))
	}
	if all := FilterMinScore(in, 0); len(all) != len(in) {
		t.Fatalf("floor 0 should keep everything")
	}
}

func ids(items []domain.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
