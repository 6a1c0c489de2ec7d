package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/qepting91/social-collector/internal/domain"
)

// TwitterAdapter searches recent tweets through the v2 API. The task target
// is the search query (keyword or hashtag), matching how the keyword lists
// drive collection.
type TwitterAdapter struct {
	httpClient *http.Client
	bearer     string
	baseURL    string
	anon       Anonymizer
}

type twitterSearchResponse struct {
	Data []twitterTweet `json:"data"`
	Meta struct {
		NextToken string `json:"next_token"`
	} `json:"meta"`
}

type twitterTweet struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	AuthorID      string    `json:"author_id"`
	Lang          string    `json:"lang"`
	PublicMetrics struct {
		RetweetCount int64 `json:"retweet_count"`
		ReplyCount   int64 `json:"reply_count"`
		LikeCount    int64 `json:"like_count"`
		QuoteCount   int64 `json:"quote_count"`
	} `json:"public_metrics"`

	// Set during fetch so Normalize can attach provenance.
	query string
}

func NewTwitterAdapter(bearerToken string, anon Anonymizer) (*TwitterAdapter, error) {
	if bearerToken == "" {
		return nil, fmt.Errorf("twitter bearer token is required")
	}
	return &TwitterAdapter{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		bearer:     bearerToken,
		baseURL:    "https://api.twitter.com",
		anon:       anon,
	}, nil
}

func (tw *TwitterAdapter) Platform() domain.Platform   { return domain.PlatformTwitter }
func (tw *TwitterAdapter) InitialCursor(string) string { return "" }
func (tw *TwitterAdapter) ReverseChronological() bool  { return true }

func (tw *TwitterAdapter) FetchPage(ctx context.Context, target, cursor string, _ []string) (*Page, error) {
	q := url.Values{}
	q.Set("query", target)
	q.Set("max_results", "100")
	q.Set("tweet.fields", "created_at,public_metrics,lang,author_id")
	if cursor != "" {
		q.Set("next_token", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		tw.baseURL+"/2/tweets/search/recent?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+tw.bearer)

	resp, err := tw.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Page{NextCursor: cursor, RateLimited: true}, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &domain.AuthError{Platform: domain.PlatformTwitter,
			Err: fmt.Errorf("twitter search status: %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, domain.Transient(fmt.Errorf("twitter search status: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("twitter search status: %d", resp.StatusCode)
	}

	var sr twitterSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, domain.Transient(err)
	}

	page := &Page{NextCursor: sr.Meta.NextToken}
	for _, t := range sr.Data {
		t.query = target
		page.Items = append(page.Items, t)
	}
	return page, nil
}

func (tw *TwitterAdapter) Normalize(item any) (domain.Record, error) {
	t, ok := item.(twitterTweet)
	if !ok {
		return domain.Record{}, &domain.MalformedItemError{Reason: fmt.Sprintf("unexpected item type %T", item)}
	}
	if t.ID == "" || t.CreatedAt.IsZero() {
		return domain.Record{}, &domain.MalformedItemError{Reason: "tweet missing id or timestamp"}
	}

	return domain.Record{
		SourcePlatform: domain.PlatformTwitter,
		RecordID:       t.ID,
		RecordKind:     domain.KindTweet,
		AuthoredAt:     t.CreatedAt.UTC(),
		Text:           t.Text,
		AuthorRef:      tw.anon.Ref(t.AuthorID),
		Engagement: map[string]int64{
			"retweets": t.PublicMetrics.RetweetCount,
			"replies":  t.PublicMetrics.ReplyCount,
			"likes":    t.PublicMetrics.LikeCount,
			"quotes":   t.PublicMetrics.QuoteCount,
		},
		OriginQuery: t.query,
		RawExtra: map[string]any{
			"lang": t.Lang,
		},
	}, nil
}
