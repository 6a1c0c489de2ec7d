package collector

import (
	"context"

	"github.com/qepting91/social-collector/internal/domain"
)

// Page is one slice of a paginated remote result set. NextCursor is opaque;
// an empty cursor means the source is exhausted. RateLimited signals a
// "slow down" response: the page carries no items and the same cursor must
// be retried after backing off.
type Page struct {
	Items       []any
	NextCursor  string
	RateLimited bool
}

// SourceAdapter is the per-platform capability the engine drives. The engine
// never depends on a concrete SDK type; adapters own the HTTP/SDK calls and
// the raw-to-Record mapping.
type SourceAdapter interface {
	Platform() domain.Platform

	// InitialCursor returns the cursor for the first page of target.
	InitialCursor(target string) string

	// FetchPage fetches one page. Keywords are passed through so sources
	// with server-side search can narrow results; the engine still applies
	// its own keyword filter afterwards.
	FetchPage(ctx context.Context, target, cursor string, keywords []string) (*Page, error)

	// Normalize maps one raw item to a Record. A *domain.MalformedItemError
	// return skips the item without aborting the page.
	Normalize(item any) (domain.Record, error)

	// ReverseChronological reports whether pages arrive newest-first. The
	// engine enables the early-stop optimization only when true.
	ReverseChronological() bool
}
