package collector

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/qepting91/social-collector/internal/domain"
)

// TelegramAdapter reads the public channel preview at t.me/s/<channel>.
// No MTProto session needed; private channels are out of reach.
type TelegramAdapter struct {
	httpClient *http.Client
	userAgent  string
	baseURL    string
	anon       Anonymizer
}

// telegramMessage is one parsed widget message from the preview page.
type telegramMessage struct {
	Channel  string
	ID       int64
	Date     time.Time
	Text     string
	Views    int64
	HasMedia bool
}

func NewTelegramAdapter(userAgent string, anon Anonymizer) *TelegramAdapter {
	return &TelegramAdapter{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		userAgent:  userAgent,
		baseURL:    "https://t.me",
		anon:       anon,
	}
}

func (ta *TelegramAdapter) Platform() domain.Platform   { return domain.PlatformTelegram }
func (ta *TelegramAdapter) InitialCursor(string) string { return "" }

// The preview paginates backward via ?before=<id>, so pages move from newest
// to oldest even though items inside a page are oldest-first.
func (ta *TelegramAdapter) ReverseChronological() bool { return true }

func (ta *TelegramAdapter) FetchPage(ctx context.Context, target, cursor string, _ []string) (*Page, error) {
	url := fmt.Sprintf("%s/s/%s", ta.baseURL, target)
	if cursor != "" {
		url += "?before=" + cursor
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", ta.userAgent)

	resp, err := ta.httpClient.Do(req)
	if err != nil {
		return nil, domain.Transient(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &Page{NextCursor: cursor, RateLimited: true}, nil
	case resp.StatusCode >= 500:
		return nil, domain.Transient(fmt.Errorf("telegram preview status: %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("telegram preview status: %d", resp.StatusCode)
	}

	msgs, err := parseTelegramPreview(resp.Body, target)
	if err != nil {
		return nil, domain.Transient(err)
	}

	page := &Page{}
	oldest := int64(0)
	for _, m := range msgs {
		if oldest == 0 || m.ID < oldest {
			oldest = m.ID
		}
		page.Items = append(page.Items, m)
	}
	if oldest > 1 && len(msgs) > 0 {
		page.NextCursor = strconv.FormatInt(oldest, 10)
	}
	return page, nil
}

// parseTelegramPreview extracts widget messages from the preview HTML.
func parseTelegramPreview(body io.Reader, channel string) ([]telegramMessage, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse preview html: %w", err)
	}

	var msgs []telegramMessage
	doc.Find("div.tgme_widget_message").Each(func(_ int, s *goquery.Selection) {
		post, ok := s.Attr("data-post")
		if !ok {
			return
		}
		_, idStr, ok := strings.Cut(post, "/")
		if !ok {
			return
		}
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return
		}

		m := telegramMessage{Channel: channel, ID: id}
		if dt, ok := s.Find("time").Attr("datetime"); ok {
			if ts, err := time.Parse(time.RFC3339, dt); err == nil {
				m.Date = ts.UTC()
			}
		}
		m.Text = strings.TrimSpace(s.Find("div.tgme_widget_message_text").Text())
		m.Views = parseApproxCount(strings.TrimSpace(s.Find("span.tgme_widget_message_views").Text()))
		m.HasMedia = s.Find("a.tgme_widget_message_photo_wrap, video").Length() > 0
		msgs = append(msgs, m)
	})
	return msgs, nil
}

func (ta *TelegramAdapter) Normalize(item any) (domain.Record, error) {
	m, ok := item.(telegramMessage)
	if !ok {
		return domain.Record{}, &domain.MalformedItemError{Reason: fmt.Sprintf("unexpected item type %T", item)}
	}
	if m.Date.IsZero() {
		return domain.Record{}, &domain.MalformedItemError{Reason: "message missing timestamp"}
	}

	return domain.Record{
		SourcePlatform: domain.PlatformTelegram,
		RecordID:       fmt.Sprintf("%s/%d", m.Channel, m.ID),
		RecordKind:     domain.KindMessage,
		AuthoredAt:     m.Date,
		Text:           m.Text,
		AuthorRef:      ta.anon.Ref(m.Channel),
		Engagement: map[string]int64{
			"views": m.Views,
		},
		OriginQuery: m.Channel,
		RawExtra: map[string]any{
			"media": m.HasMedia,
		},
	}, nil
}

// parseApproxCount handles Telegram's abbreviated counters ("1.2K", "3M").
func parseApproxCount(s string) int64 {
	if s == "" {
		return 0
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult, s = 1_000, strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		mult, s = 1_000_000, strings.TrimSuffix(s, "M")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return int64(f * float64(mult))
}
