package mock

import (
	"context"

	"github.com/spacexdragon/sitemapper"
)

var _ sitemapper.TreeService = (*TreeService)(nil)

// TreeService is a mock implementation of sitemapper.TreeService.
type TreeService struct {
	TreeForHomepageFn               func(ctx context.Context, homepageURL string) (sitemapper.Sitemap, error)
	DiscoverSitemapURLsFromRobotsFn func(ctx context.Context, homepageURL string) ([]string, error)
}

func (s *TreeService) TreeForHomepage(ctx context.Context, homepageURL string) (sitemapper.Sitemap, error) {
	return s.TreeForHomepageFn(ctx, homepageURL)
}

func (s *TreeService) DiscoverSitemapURLsFromRobots(ctx context.Context, homepageURL string) ([]string, error) {
	return s.DiscoverSitemapURLsFromRobotsFn(ctx, homepageURL)
}
