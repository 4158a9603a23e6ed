package collector

import (
	"context"
	"testing"

	"github.com/qepting91/hotfeed/internal/config"
	"github.com/qepting91/hotfeed/internal/domain"
	"github.com/qepting91/hotfeed/internal/engine"
)

func TestMockProvider_RunsDryAfterPages(t *testing.T) {
	m := NewMockProvider("qiita")
	m.Pages = 2

	got := engine.NewService(m).Hot(context.Background(), domain.PeriodAll)

	// 2 pages of 25, minus scores below the "all" floor of 40
	want := 0
	for i := 0; i < 50; i++ {
		if (i*37)%500 >= 40 {
			want++
		}
	}
	if len(got) != want {
		t.Fatalf("expected %d items, got %d", want, len(got))
	}
}

func TestMockProvider_Repeatable(t *testing.T) {
	m := NewMockProvider("devto")
	a := m.Pager(m.TimelineQuery()).Page(context.Background(), 1)
	b := m.Pager(m.TimelineQuery()).Page(context.Background(), 1)
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Score != b[i].Score {
			t.Fatalf("mock data differs at %d", i)
		}
	}
}

func TestMockProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewMockProvider("qiita")
	if items := m.Pager(m.TimelineQuery()).Page(ctx, 1); len(items) != 0 {
		t.Fatalf("expected no items after cancel, got %d", len(items))
	}
	if c := m.Comments(ctx, "x"); len(c) != 0 {
		t.Fatalf("expected no comments after cancel")
	}
}

func TestNewProviders_MockMode(t *testing.T) {
	providers, err := NewProviders(config.Config{Mode: config.ModeMock}, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(providers) != 2 || providers[0].Name() != "qiita" || providers[1].Name() != "devto" {
		t.Fatalf("unexpected providers: %v", providers)
	}
}

func TestNewProviders_UnknownMode(t *testing.T) {
	if _, err := NewProviders(config.Config{Mode: "api"}, nil, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
