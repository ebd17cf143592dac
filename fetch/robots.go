package fetch

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/spacexdragon/sitemapper"
	"github.com/temoto/robotstxt"
)

// hyphenatedSitemapRe matches the nonstandard "Site-map:" directive
// spelling, which is normalized to "Sitemap:" before parsing so the
// robotstxt lexer picks it up.
var hyphenatedSitemapRe = regexp.MustCompile(`(?im)^(\s*)site-map(\s*):`)

// sitemapURLsFromRobots extracts sitemap URLs declared in robots.txt
// content, in file order, deduplicated on first occurrence. Candidates
// that are not absolute HTTP(S) URLs are dropped with a warning.
func sitemapURLsFromRobots(data []byte, logger *slog.Logger) []string {
	normalized := hyphenatedSitemapRe.ReplaceAll(data, []byte("${1}sitemap${2}:"))

	robots, err := robotstxt.FromBytes(normalized)
	if err != nil {
		logger.Warn("unparseable robots.txt, ignoring", "err", err)
		return []string{}
	}

	urls := []string{}
	seen := make(map[string]bool)
	for _, candidate := range robots.Sitemaps {
		candidate = strings.TrimSpace(candidate)
		if !sitemapper.IsHTTPURL(candidate) {
			logger.Warn("robots.txt sitemap entry doesn't look like a URL, skipping", "entry", candidate)
			continue
		}
		if seen[candidate] {
			continue
		}
		seen[candidate] = true
		urls = append(urls, candidate)
	}
	return urls
}
