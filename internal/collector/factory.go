package collector

import (
	"fmt"

	"github.com/qepting91/social-collector/internal/config"
	"github.com/qepting91/social-collector/internal/domain"
)

// NewAdapter builds the adapter for a platform from explicit settings. No
// environment reads happen here; main resolves the environment once.
func NewAdapter(platform domain.Platform, cfg config.Settings) (SourceAdapter, error) {
	anon := Anonymizer{Enabled: cfg.AnonymizeAuthors}

	switch platform {
	case domain.PlatformReddit:
		switch cfg.RedditMode {
		case "api":
			return NewRedditAdapter(
				cfg.RedditClientID,
				cfg.RedditClientSecret,
				cfg.RedditUsername,
				cfg.RedditPassword,
				cfg.UserAgent,
				anon,
			)
		case "public":
			return NewRedditPublicAdapter(cfg.UserAgent, anon)
		case "mock":
			return NewMockAdapter(), nil
		default:
			return nil, fmt.Errorf("unknown COLLECTOR_MODE: %s (use 'api', 'public', or 'mock')", cfg.RedditMode)
		}
	case domain.PlatformTelegram:
		return NewTelegramAdapter(cfg.UserAgent, anon), nil
	case domain.PlatformTwitter:
		return NewTwitterAdapter(cfg.TwitterBearerToken, anon)
	case domain.PlatformYouTube:
		return NewYouTubeAdapter(cfg.YouTubeAPIKey, anon)
	default:
		return nil, fmt.Errorf("unknown platform: %s", platform)
	}
}
