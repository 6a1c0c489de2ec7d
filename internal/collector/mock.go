package collector

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"github.com/qepting91/social-collector/internal/domain"
)

// MockAdapter returns fake reverse-chronological data. Useful for dry runs
// without credentials and for exercising the full pipeline locally.
type MockAdapter struct {
	PageSize   int
	TotalItems int
	now        time.Time
}

func NewMockAdapter() *MockAdapter {
	return &MockAdapter{PageSize: 25, TotalItems: 200, now: time.Now().UTC()}
}

func (mc *MockAdapter) Platform() domain.Platform   { return domain.PlatformReddit }
func (mc *MockAdapter) InitialCursor(string) string { return "" }
func (mc *MockAdapter) ReverseChronological() bool  { return true }

type mockItem struct {
	id     int
	target string
	date   time.Time
}

func (mc *MockAdapter) FetchPage(ctx context.Context, target, cursor string, _ []string) (*Page, error) {
	// Simulate network latency (nice for testing concurrency)
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(100 * time.Millisecond):
	}

	offset := 0
	if cursor != "" {
		offset, _ = strconv.Atoi(cursor)
	}

	page := &Page{}
	for i := offset; i < offset+mc.PageSize && i < mc.TotalItems; i++ {
		page.Items = append(page.Items, mockItem{
			id:     i,
			target: target,
			date:   mc.now.Add(-time.Duration(i) * time.Hour),
		})
	}
	if next := offset + mc.PageSize; next < mc.TotalItems {
		page.NextCursor = strconv.Itoa(next)
	}
	return page, nil
}

func (mc *MockAdapter) Normalize(item any) (domain.Record, error) {
	m, ok := item.(mockItem)
	if !ok {
		return domain.Record{}, &domain.MalformedItemError{Reason: fmt.Sprintf("unexpected item type %T", item)}
	}
	return domain.Record{
		SourcePlatform: domain.PlatformReddit,
		RecordID:       fmt.Sprintf("mock_%s_%d", m.target, m.id),
		RecordKind:     domain.KindPost,
		AuthoredAt:     m.date,
		Text:           fmt.Sprintf("[%s] Simulated update #%d", m.target, m.id),
		AuthorRef:      "simulated_user",
		Engagement: map[string]int64{
			"score":    int64(rand.Intn(500)),
			"comments": int64(rand.Intn(50)),
		},
		OriginQuery: m.target,
	}, nil
}
