package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Settings carries everything the pipeline needs. It is populated once in
// main from the environment; no other package reads environment state.
type Settings struct {
	// Credentials.
	RedditMode         string // "api", "public" or "mock"
	RedditClientID     string
	RedditClientSecret string
	RedditUsername     string
	RedditPassword     string
	UserAgent          string
	TwitterBearerToken string
	YouTubeAPIKey      string

	// Collection window, UTC.
	StartDate time.Time
	EndDate   time.Time

	// Per-task record ceilings. 0 = unbounded.
	MaxPerSubreddit     int
	MaxPerChannel       int
	MaxPerKeyword       int
	MaxPerVideo         int
	MaxVideosPerChannel int

	// Collection behavior.
	DelayBetweenRequests time.Duration
	RetryAttempts        int
	BackoffBase          time.Duration
	BackoffMax           time.Duration
	SaveFrequency        int
	Workers              int

	// Filtering and ethics.
	MinTextLength    int
	AnonymizeAuthors bool

	// Outputs.
	OutputDir     string
	InputDir      string
	CheckpointDir string
	Port          string
}

const dateLayout = "2006-01-02"

// FromEnv builds Settings from the process environment. Call godotenv.Load
// before this if a .env file is in use.
func FromEnv() (Settings, error) {
	s := Settings{
		RedditMode:         envOr("COLLECTOR_MODE", "public"),
		RedditClientID:     os.Getenv("REDDIT_CLIENT_ID"),
		RedditClientSecret: os.Getenv("REDDIT_CLIENT_SECRET"),
		RedditUsername:     os.Getenv("REDDIT_USERNAME"),
		RedditPassword:     os.Getenv("REDDIT_PASSWORD"),
		UserAgent:          envOr("COLLECTOR_USER_AGENT", os.Getenv("REDDIT_USER_AGENT")),
		TwitterBearerToken: os.Getenv("TWITTER_BEARER_TOKEN"),
		YouTubeAPIKey:      os.Getenv("YOUTUBE_API_KEY"),

		MaxPerSubreddit:     envInt("MAX_POSTS_PER_SUBREDDIT", 5000),
		MaxPerChannel:       envInt("MAX_MESSAGES_PER_CHANNEL", 3000),
		MaxPerKeyword:       envInt("MAX_TWEETS_PER_KEYWORD", 2000),
		MaxPerVideo:         envInt("MAX_COMMENTS_PER_VIDEO", 500),
		MaxVideosPerChannel: envInt("MAX_VIDEOS_PER_CHANNEL", 10),

		DelayBetweenRequests: envDuration("DELAY_BETWEEN_REQUESTS", time.Second),
		RetryAttempts:        envInt("RETRY_ATTEMPTS", 3),
		BackoffBase:          envDuration("BACKOFF_BASE", 2*time.Second),
		BackoffMax:           envDuration("BACKOFF_MAX", time.Minute),
		SaveFrequency:        envInt("SAVE_FREQUENCY", 1000),
		Workers:              envInt("WORKERS", 4),

		MinTextLength:    envInt("MIN_TEXT_LENGTH", 10),
		AnonymizeAuthors: envBool("ANONYMIZE_AUTHORS", true),

		OutputDir:     envOr("OUTPUT_DIR", "collected_data"),
		InputDir:      envOr("INPUT_DIR", "input"),
		CheckpointDir: envOr("CHECKPOINT_DIR", "collected_data"),
		Port:          envOr("PORT", "8080"),
	}

	var err error
	if s.StartDate, err = envDate("START_DATE"); err != nil {
		return s, err
	}
	if s.EndDate, err = envDate("END_DATE"); err != nil {
		return s, err
	}
	return s, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func envDate(key string) (time.Time, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", key, v)
	}
	return t, nil
}
