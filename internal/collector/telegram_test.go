package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qepting91/social-collector/internal/domain"
)

const telegramFixture = `<!DOCTYPE html>
<html><body>
<div class="tgme_widget_message" data-post="GazaNow/104">
  <div class="tgme_widget_message_text">Breaking news from the border crossing</div>
  <span class="tgme_widget_message_views">12.5K</span>
  <time datetime="2023-11-02T14:30:00+00:00"></time>
</div>
<div class="tgme_widget_message" data-post="GazaNow/103">
  <a class="tgme_widget_message_photo_wrap" href="#"></a>
  <div class="tgme_widget_message_text">Photo report</div>
  <span class="tgme_widget_message_views">3M</span>
  <time datetime="2023-11-02T12:00:00+00:00"></time>
</div>
<div class="tgme_widget_message">
  <div class="tgme_widget_message_text">missing data-post, skipped</div>
</div>
</body></html>`

func TestParseTelegramPreview(t *testing.T) {
	msgs, err := parseTelegramPreview(strings.NewReader(telegramFixture), "GazaNow")
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, int64(104), msgs[0].ID)
	assert.Equal(t, "Breaking news from the border crossing", msgs[0].Text)
	assert.Equal(t, int64(12_500), msgs[0].Views)
	assert.Equal(t, time.Date(2023, 11, 2, 14, 30, 0, 0, time.UTC), msgs[0].Date)
	assert.False(t, msgs[0].HasMedia)

	assert.Equal(t, int64(103), msgs[1].ID)
	assert.Equal(t, int64(3_000_000), msgs[1].Views)
	assert.True(t, msgs[1].HasMedia)
}

func TestTelegramFetchPagePaginatesBackward(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Write([]byte(telegramFixture))
	}))
	defer srv.Close()

	ta := NewTelegramAdapter("test-agent", Anonymizer{})
	ta.baseURL = srv.URL

	page, err := ta.FetchPage(context.Background(), "GazaNow", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "/s/GazaNow", gotPath)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "103", page.NextCursor, "next page starts before the oldest id seen")

	_, err = ta.FetchPage(context.Background(), "GazaNow", "103", nil)
	require.NoError(t, err)
	assert.Equal(t, "before=103", gotQuery)
}

func TestTelegramFetchPageRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	ta := NewTelegramAdapter("test-agent", Anonymizer{})
	ta.baseURL = srv.URL

	page, err := ta.FetchPage(context.Background(), "GazaNow", "200", nil)
	require.NoError(t, err)
	assert.True(t, page.RateLimited)
	assert.Equal(t, "200", page.NextCursor, "cursor is preserved for the retry")
}

func TestTelegramNormalize(t *testing.T) {
	ta := NewTelegramAdapter("test-agent", Anonymizer{Enabled: true})

	rec, err := ta.Normalize(telegramMessage{
		Channel: "GazaNow",
		ID:      104,
		Date:    time.Date(2023, 11, 2, 14, 30, 0, 0, time.UTC),
		Text:    "Breaking",
		Views:   12500,
	})
	require.NoError(t, err)
	assert.Equal(t, "GazaNow/104", rec.RecordID)
	assert.Equal(t, domain.KindMessage, rec.RecordKind)
	assert.True(t, strings.HasPrefix(rec.AuthorRef, "u_"), "channel name is anonymized")
	assert.Equal(t, int64(12500), rec.Engagement["views"])

	_, err = ta.Normalize(telegramMessage{Channel: "GazaNow", ID: 1})
	var malformed *domain.MalformedItemError
	require.ErrorAs(t, err, &malformed)
}

func TestParseApproxCount(t *testing.T) {
	assert.Equal(t, int64(0), parseApproxCount(""))
	assert.Equal(t, int64(847), parseApproxCount("847"))
	assert.Equal(t, int64(1200), parseApproxCount("1.2K"))
	assert.Equal(t, int64(3_000_000), parseApproxCount("3M"))
	assert.Equal(t, int64(0), parseApproxCount("n/a"))
}
