package sitemapper

import "context"

// TreeService builds sitemap trees for websites.
type TreeService interface {
	// TreeForHomepage discovers and fetches the full sitemap hierarchy of
	// a website. Seeds come from robots.txt Sitemap: directives, a fixed
	// list of well-known paths, and caller-configured extra paths; all
	// resolved nodes, valid or invalid, hang off one synthetic root index.
	//
	// Only input validation fails hard: every per-document condition is
	// absorbed into the tree as an InvalidSitemap node.
	TreeForHomepage(ctx context.Context, homepageURL string) (Sitemap, error)

	// DiscoverSitemapURLsFromRobots fetches only robots.txt and returns
	// the sitemap URLs it declares, in file order with duplicates
	// collapsed. A missing or directive-free robots.txt yields an empty
	// list, not an error.
	DiscoverSitemapURLsFromRobots(ctx context.Context, homepageURL string) ([]string, error)
}
