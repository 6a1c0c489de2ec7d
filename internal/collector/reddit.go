package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/loganintech/go-reddit/v2/reddit"
	"github.com/qepting91/social-collector/internal/domain"
)

const redditPageSize = 100

// RedditAdapter collects subreddit posts through the authenticated API.
type RedditAdapter struct {
	client *reddit.Client
	anon   Anonymizer
}

// NewRedditAdapter requires a userAgent string to comply with Reddit's API rules.
func NewRedditAdapter(id, secret, user, pass, userAgent string, anon Anonymizer) (*RedditAdapter, error) {
	creds := reddit.Credentials{ID: id, Secret: secret, Username: user, Password: pass}

	client, err := reddit.NewClient(creds, reddit.WithUserAgent(userAgent))
	if err != nil {
		return nil, err
	}
	return &RedditAdapter{client: client, anon: anon}, nil
}

func (ra *RedditAdapter) Platform() domain.Platform   { return domain.PlatformReddit }
func (ra *RedditAdapter) InitialCursor(string) string { return "" }
func (ra *RedditAdapter) ReverseChronological() bool  { return true }

// FetchPage lists /r/<target>/new, newest first, using Reddit's fullname
// "after" token as the cursor.
func (ra *RedditAdapter) FetchPage(ctx context.Context, target, cursor string, _ []string) (*Page, error) {
	posts, resp, err := ra.client.Subreddit.NewPosts(ctx, target, &reddit.ListOptions{
		Limit: redditPageSize,
		After: cursor,
	})
	if err != nil {
		return nil, classifyRedditErr(err)
	}

	page := &Page{NextCursor: resp.After}
	for _, p := range posts {
		page.Items = append(page.Items, p)
	}
	return page, nil
}

func (ra *RedditAdapter) Normalize(item any) (domain.Record, error) {
	p, ok := item.(*reddit.Post)
	if !ok {
		return domain.Record{}, &domain.MalformedItemError{Reason: fmt.Sprintf("unexpected item type %T", item)}
	}
	if p.ID == "" || p.Created == nil {
		return domain.Record{}, &domain.MalformedItemError{Reason: "post missing id or timestamp"}
	}

	text := p.Title
	if p.Body != "" {
		text += "\n\n" + p.Body
	}

	return domain.Record{
		SourcePlatform: domain.PlatformReddit,
		RecordID:       p.ID,
		RecordKind:     domain.KindPost,
		AuthoredAt:     p.Created.Time.UTC(),
		Text:           text,
		AuthorRef:      ra.anon.Ref(p.Author),
		Engagement: map[string]int64{
			"score":    int64(p.Score),
			"comments": int64(p.NumberOfComments),
		},
		OriginQuery: subredditOf(p),
		RawExtra: map[string]any{
			"permalink":    "https://reddit.com" + p.Permalink,
			"url":          p.URL,
			"upvote_ratio": p.UpvoteRatio,
			"is_self":      p.IsSelfPost,
		},
	}, nil
}

func subredditOf(p *reddit.Post) string {
	if p.SubredditName != "" {
		return p.SubredditName
	}
	return p.SubredditNamePrefixed
}

func classifyRedditErr(err error) error {
	var rle *reddit.RateLimitError
	if errors.As(err, &rle) {
		return domain.Transient(fmt.Errorf("reddit rate limited: %w", err))
	}
	var er *reddit.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		code := er.Response.StatusCode
		switch {
		case code == http.StatusUnauthorized || code == http.StatusForbidden:
			return &domain.AuthError{Platform: domain.PlatformReddit, Err: err}
		case code == http.StatusTooManyRequests || code >= 500:
			return domain.Transient(fmt.Errorf("reddit status %s: %w", strconv.Itoa(code), err))
		}
		return fmt.Errorf("reddit api error: %w", err)
	}
	// Network-level failures are retryable.
	return domain.Transient(fmt.Errorf("reddit api error: %w", err))
}
