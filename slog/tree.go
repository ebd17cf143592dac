// Package slog provides log/slog-based logging decorators for sitemapper
// services.
package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/spacexdragon/sitemapper"
)

// Ensure LoggingTreeService implements sitemapper.TreeService.
var _ sitemapper.TreeService = (*LoggingTreeService)(nil)

// LoggingTreeService wraps a TreeService with operation logging.
type LoggingTreeService struct {
	next   sitemapper.TreeService
	logger *slog.Logger
}

// NewLoggingTreeService creates a new LoggingTreeService.
func NewLoggingTreeService(next sitemapper.TreeService, logger *slog.Logger) *LoggingTreeService {
	return &LoggingTreeService{next: next, logger: logger}
}

// TreeForHomepage delegates to the wrapped service and logs the operation.
func (s *LoggingTreeService) TreeForHomepage(ctx context.Context, homepageURL string) (tree sitemapper.Sitemap, err error) {
	defer func(begin time.Time) {
		sitemaps, invalid, pages := 0, 0, 0
		if tree != nil {
			for sm := range tree.AllSitemaps() {
				sitemaps++
				if _, ok := sm.(*sitemapper.InvalidSitemap); ok {
					invalid++
				}
			}
			for range tree.AllPages() {
				pages++
			}
		}
		s.logger.Info("sitemap tree",
			"url", homepageURL,
			"sitemaps", sitemaps,
			"invalid", invalid,
			"pages", pages,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.TreeForHomepage(ctx, homepageURL)
}

// DiscoverSitemapURLsFromRobots delegates to the wrapped service and logs
// the operation.
func (s *LoggingTreeService) DiscoverSitemapURLsFromRobots(ctx context.Context, homepageURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("robots.txt sitemap discovery",
			"url", homepageURL,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverSitemapURLsFromRobots(ctx, homepageURL)
}
