package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/qepting91/social-collector/internal/domain"
)

// RedditPublicAdapter reads the unauthenticated .json listing endpoints.
// Slower quota, no credentials needed.
type RedditPublicAdapter struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	anon       Anonymizer
}

type redditListing struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data redditPublicPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type redditPublicPost struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	SelfText    string  `json:"selftext"`
	Subreddit   string  `json:"subreddit"`
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Score       int64   `json:"score"`
	NumComments int64   `json:"num_comments"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	CreatedUTC  float64 `json:"created_utc"`
}

func NewRedditPublicAdapter(userAgent string, anon Anonymizer) (*RedditPublicAdapter, error) {
	if userAgent == "" {
		return nil, fmt.Errorf("user agent is required for public reddit access")
	}
	return &RedditPublicAdapter{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		userAgent:  userAgent,
		baseURL:    "https://www.reddit.com",
		anon:       anon,
	}, nil
}

func (pc *RedditPublicAdapter) Platform() domain.Platform   { return domain.PlatformReddit }
func (pc *RedditPublicAdapter) InitialCursor(string) string { return "" }
func (pc *RedditPublicAdapter) ReverseChronological() bool  { return true }

func (pc *RedditPublicAdapter) FetchPage(ctx context.Context, target, cursor string, _ []string) (*Page, error) {
	url := fmt.Sprintf("%s/r/%s/new.json?limit=%d", pc.baseURL, target, redditPageSize)
	if cursor != "" {
		url += "&after=" + cursor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", pc.userAgent)

	resp, err := pc.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Page{NextCursor: cursor, RateLimited: true}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &domain.AuthError{Platform: domain.PlatformReddit,
			Err: fmt.Errorf("reddit public access status: %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, domain.Transient(fmt.Errorf("reddit public access status: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("reddit public access status: %d", resp.StatusCode)
	}

	var listing redditListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, domain.Transient(err)
	}

	page := &Page{NextCursor: listing.Data.After}
	for _, child := range listing.Data.Children {
		page.Items = append(page.Items, child.Data)
	}
	return page, nil
}

func (pc *RedditPublicAdapter) Normalize(item any) (domain.Record, error) {
	d, ok := item.(redditPublicPost)
	if !ok {
		return domain.Record{}, &domain.MalformedItemError{Reason: fmt.Sprintf("unexpected item type %T", item)}
	}
	if d.ID == "" || d.CreatedUTC == 0 {
		return domain.Record{}, &domain.MalformedItemError{Reason: "post missing id or timestamp"}
	}

	text := d.Title
	if d.SelfText != "" {
		text += "\n\n" + d.SelfText
	}

	return domain.Record{
		SourcePlatform: domain.PlatformReddit,
		RecordID:       d.ID,
		RecordKind:     domain.KindPost,
		AuthoredAt:     time.Unix(int64(d.CreatedUTC), 0).UTC(),
		Text:           text,
		AuthorRef:      pc.anon.Ref(d.Author),
		Engagement: map[string]int64{
			"score":    d.Score,
			"comments": d.NumComments,
		},
		OriginQuery: d.Subreddit,
		RawExtra: map[string]any{
			"permalink":    "https://reddit.com" + d.Permalink,
			"url":          d.URL,
			"upvote_ratio": d.UpvoteRatio,
		},
	}, nil
}
