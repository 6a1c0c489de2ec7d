package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Platform identifies the source network a record was collected from.
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformTwitter  Platform = "twitter"
	PlatformReddit   Platform = "reddit"
	PlatformYouTube  Platform = "youtube"
)

// RecordKind is the content type within a platform.
type RecordKind string

const (
	KindMessage RecordKind = "message"
	KindPost    RecordKind = "post"
	KindComment RecordKind = "comment"
	KindTweet   RecordKind = "tweet"
)

// Record is the normalized unit of collected content, shared by every
// platform adapter and every output sink.
type Record struct {
	SourcePlatform Platform         `json:"source_platform"`
	RecordID       string           `json:"record_id"`
	RecordKind     RecordKind       `json:"record_kind"`
	AuthoredAt     time.Time        `json:"authored_at"`
	Text           string           `json:"text"`
	AuthorRef      string           `json:"author_ref"`
	Engagement     map[string]int64 `json:"engagement,omitempty"`
	OriginQuery    string           `json:"origin_query,omitempty"`
	RawExtra       map[string]any   `json:"raw_extra,omitempty"`
}

// DedupKey is unique per (platform, kind, id), the identity under which
// duplicates are suppressed.
func (r Record) DedupKey() string {
	return string(r.SourcePlatform) + "/" + string(r.RecordKind) + "/" + r.RecordID
}

// DateWindow is a half-open UTC interval [Start, End). A zero time on either
// side means unbounded on that side.
type DateWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Accepts reports whether ts falls inside the window.
func (w DateWindow) Accepts(ts time.Time) bool {
	if !w.Start.IsZero() && ts.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && !ts.Before(w.End) {
		return false
	}
	return true
}

// CrossesBelow reports whether ts has fallen past the older boundary. On a
// reverse-chronological source this means every later item is out of window.
func (w DateWindow) CrossesBelow(ts time.Time) bool {
	return !w.Start.IsZero() && ts.Before(w.Start)
}

// CollectionTask is one (platform, target) unit of work.
type CollectionTask struct {
	Platform   Platform
	Target     string
	Keywords   []string
	Window     DateWindow
	MaxRecords int // 0 = unbounded
}

// Key derives the stable identity used for checkpointing. Two tasks with the
// same platform, target, keywords and window share progress.
func (t CollectionTask) Key() string {
	h := sha1.New()
	fmt.Fprintf(h, "%s|%s|%s|%d|%d",
		t.Platform, t.Target, strings.Join(t.Keywords, ","),
		t.Window.Start.Unix(), t.Window.End.Unix())
	return hex.EncodeToString(h.Sum(nil))
}

func (t CollectionTask) String() string {
	return string(t.Platform) + ":" + t.Target
}
