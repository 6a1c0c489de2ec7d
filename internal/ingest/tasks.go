package ingest

import (
	"github.com/qepting91/social-collector/internal/config"
	"github.com/qepting91/social-collector/internal/domain"
)

// Inputs are the parsed target and keyword lists for one run.
type Inputs struct {
	Subreddits     []Target
	Channels       []Target
	TwitterQueries []Target
	YouTubeVideos  []Target // video IDs, possibly expanded from channels
	Keywords       []string
}

// BuildTasks turns settings + inputs into one CollectionTask per (platform,
// target) pair. Missing input files just contribute no tasks.
func BuildTasks(cfg config.Settings, in Inputs) []domain.CollectionTask {
	window := domain.DateWindow{Start: cfg.StartDate, End: cfg.EndDate}
	var tasks []domain.CollectionTask

	add := func(platform domain.Platform, targets []Target, keywords []string, defaultMax int) {
		for _, t := range targets {
			max := t.MaxRecords
			if max == 0 {
				max = defaultMax
			}
			tasks = append(tasks, domain.CollectionTask{
				Platform:   platform,
				Target:     t.Identifier,
				Keywords:   keywords,
				Window:     window,
				MaxRecords: max,
			})
		}
	}

	add(domain.PlatformReddit, in.Subreddits, in.Keywords, cfg.MaxPerSubreddit)
	add(domain.PlatformTelegram, in.Channels, nil, cfg.MaxPerChannel)
	// Twitter targets are the search queries themselves; no extra keyword
	// filter on top of the query.
	add(domain.PlatformTwitter, in.TwitterQueries, nil, cfg.MaxPerKeyword)
	add(domain.PlatformYouTube, in.YouTubeVideos, in.Keywords, cfg.MaxPerVideo)

	return tasks
}
