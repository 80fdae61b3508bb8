package usecase

import (
	"context"
	"log/slog"
	"time"

	"CityWatch/internal/config"
	"CityWatch/internal/ports"
)

// GroupWatcher polls the configured public group pages and feeds new posts
// into the pipeline. Pacing between groups keeps the scraper polite.
type GroupWatcher struct {
	feed     ports.GroupFeed
	pipeline *Pipeline
	groups   []config.GroupConfig
	limit    int
	pacing   time.Duration
	logger   *slog.Logger
}

func NewGroupWatcher(feed ports.GroupFeed, pipeline *Pipeline, cfg config.GroupsConfig, logger *slog.Logger) *GroupWatcher {
	return &GroupWatcher{
		feed:     feed,
		pipeline: pipeline,
		groups:   cfg.Groups,
		limit:    cfg.FetchLimit,
		pacing:   cfg.PacingDelay(),
		logger:   logger,
	}
}

// PollOnce fetches the recent posts of every group. Failures are per-group;
// one broken page never blocks the rest.
func (w *GroupWatcher) PollOnce(ctx context.Context) {
	for i, g := range w.groups {
		if ctx.Err() != nil {
			return
		}
		if i > 0 && w.pacing > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(w.pacing):
			}
		}

		msgs, err := w.feed.FetchRecent(ctx, g.URL, w.limit)
		if err != nil {
			w.logger.Warn("group fetch failed", "group", g.Name, "error", err)
			continue
		}
		for _, msg := range msgs {
			if err := w.pipeline.Process(ctx, msg); err != nil {
				w.logger.Error("process group post", "group", g.Name, "message", msg.MessageID, "error", err)
			}
		}
	}
}
