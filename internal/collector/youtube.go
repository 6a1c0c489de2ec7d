package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/qepting91/social-collector/internal/domain"
)

// YouTubeAdapter collects top-level comments for a video through the Data
// API v3. Task targets are video IDs; ChannelVideoIDs expands a channel into
// per-video targets first.
type YouTubeAdapter struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	anon       Anonymizer
}

type youtubeCommentThreads struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		Snippet struct {
			VideoID         string `json:"videoId"`
			TotalReplyCount int64  `json:"totalReplyCount"`
			TopLevelComment struct {
				ID      string `json:"id"`
				Snippet struct {
					AuthorDisplayName string    `json:"authorDisplayName"`
					TextOriginal      string    `json:"textOriginal"`
					LikeCount         int64     `json:"likeCount"`
					PublishedAt       time.Time `json:"publishedAt"`
				} `json:"snippet"`
			} `json:"topLevelComment"`
		} `json:"snippet"`
	} `json:"items"`
}

type youtubeComment struct {
	VideoID     string
	CommentID   string
	Author      string
	Text        string
	PublishedAt time.Time
	LikeCount   int64
	ReplyCount  int64
}

type youtubeSearchPage struct {
	NextPageToken string `json:"nextPageToken"`
	Items         []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

func NewYouTubeAdapter(apiKey string, anon Anonymizer) (*YouTubeAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("youtube api key is required")
	}
	return &YouTubeAdapter{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     apiKey,
		baseURL:    "https://www.googleapis.com",
		anon:       anon,
	}, nil
}

func (yt *YouTubeAdapter) Platform() domain.Platform   { return domain.PlatformYouTube }
func (yt *YouTubeAdapter) InitialCursor(string) string { return "" }

// order=time returns newest comments first.
func (yt *YouTubeAdapter) ReverseChronological() bool { return true }

func (yt *YouTubeAdapter) FetchPage(ctx context.Context, target, cursor string, _ []string) (*Page, error) {
	videoID := strings.TrimPrefix(target, "video:")

	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("videoId", videoID)
	q.Set("maxResults", "100")
	q.Set("order", "time")
	q.Set("key", yt.apiKey)
	if cursor != "" {
		q.Set("pageToken", cursor)
	}

	var ct youtubeCommentThreads
	if err := yt.getJSON(ctx, "/youtube/v3/commentThreads?"+q.Encode(), &ct); err != nil {
		return nil, err
	}

	page := &Page{NextCursor: ct.NextPageToken}
	for _, it := range ct.Items {
		top := it.Snippet.TopLevelComment
		page.Items = append(page.Items, youtubeComment{
			VideoID:     it.Snippet.VideoID,
			CommentID:   top.ID,
			Author:      top.Snippet.AuthorDisplayName,
			Text:        top.Snippet.TextOriginal,
			PublishedAt: top.Snippet.PublishedAt,
			LikeCount:   top.Snippet.LikeCount,
			ReplyCount:  it.Snippet.TotalReplyCount,
		})
	}
	return page, nil
}

func (yt *YouTubeAdapter) Normalize(item any) (domain.Record, error) {
	c, ok := item.(youtubeComment)
	if !ok {
		return domain.Record{}, &domain.MalformedItemError{Reason: fmt.Sprintf("unexpected item type %T", item)}
	}
	if c.CommentID == "" || c.PublishedAt.IsZero() {
		return domain.Record{}, &domain.MalformedItemError{Reason: "comment missing id or timestamp"}
	}

	return domain.Record{
		SourcePlatform: domain.PlatformYouTube,
		RecordID:       c.CommentID,
		RecordKind:     domain.KindComment,
		AuthoredAt:     c.PublishedAt.UTC(),
		Text:           c.Text,
		AuthorRef:      yt.anon.Ref(c.Author),
		Engagement: map[string]int64{
			"likes":   c.LikeCount,
			"replies": c.ReplyCount,
		},
		OriginQuery: c.VideoID,
		RawExtra: map[string]any{
			"video_id": c.VideoID,
		},
	}, nil
}

// ChannelVideoIDs resolves a channel into video IDs inside the window,
// newest first, up to maxVideos. Used at task-build time to expand channel
// targets into per-video collection tasks.
func (yt *YouTubeAdapter) ChannelVideoIDs(ctx context.Context, channelID string, window domain.DateWindow, keywords []string, maxVideos int) ([]string, error) {
	var ids []string
	token := ""
	for {
		q := url.Values{}
		q.Set("part", "id")
		q.Set("channelId", channelID)
		q.Set("order", "date")
		q.Set("type", "video")
		q.Set("maxResults", "50")
		q.Set("key", yt.apiKey)
		if len(keywords) > 0 {
			q.Set("q", strings.Join(keywords, " "))
		}
		if !window.Start.IsZero() {
			q.Set("publishedAfter", window.Start.UTC().Format(time.RFC3339))
		}
		if !window.End.IsZero() {
			q.Set("publishedBefore", window.End.UTC().Format(time.RFC3339))
		}
		if token != "" {
			q.Set("pageToken", token)
		}

		var sp youtubeSearchPage
		if err := yt.getJSON(ctx, "/youtube/v3/search?"+q.Encode(), &sp); err != nil {
			return ids, err
		}
		for _, it := range sp.Items {
			if it.ID.VideoID == "" {
				continue
			}
			ids = append(ids, it.ID.VideoID)
			if maxVideos > 0 && len(ids) >= maxVideos {
				return ids, nil
			}
		}
		if sp.NextPageToken == "" {
			return ids, nil
		}
		token = sp.NextPageToken
	}
}

func (yt *YouTubeAdapter) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yt.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := yt.httpClient.Do(req)
	if err != nil {
		return domain.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &domain.AuthError{Platform: domain.PlatformYouTube,
			Err: fmt.Errorf("youtube api status: %d", resp.StatusCode)}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return domain.Transient(fmt.Errorf("youtube api status: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("youtube api status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return domain.Transient(err)
	}
	return nil
}
