// Package gofeed parses RSS 2.0 and Atom feeds into sitemap pages using
// the mmcdole/gofeed universal feed parser, which normalizes both dialects
// into a common item structure.
package gofeed

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/spacexdragon/sitemapper"
)

// Parser parses feed documents. Items without a usable link are skipped
// with a logged warning rather than failing the whole feed.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a Parser. A nil logger discards warnings.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Parser{logger: logger}
}

// Pages extracts page entries from an RSS or Atom document, in feed order.
// The item link becomes the page URL; the published (or, failing that,
// updated) timestamp becomes the page's last-modified time.
func (p *Parser) Pages(data []byte) ([]sitemapper.Page, error) {
	feed, err := gofeed.NewParser().Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	pages := []sitemapper.Page{}
	for _, item := range feed.Items {
		link := strings.TrimSpace(item.Link)
		if link == "" {
			p.logger.Warn("feed item without a link, skipping", "title", item.Title)
			continue
		}
		if !sitemapper.IsHTTPURL(link) {
			p.logger.Warn("feed item link is not an absolute HTTP(S) URL, skipping", "link", link)
			continue
		}

		page := sitemapper.Page{URL: link}
		if item.PublishedParsed != nil {
			t := *item.PublishedParsed
			page.LastModified = &t
		} else if item.UpdatedParsed != nil {
			t := *item.UpdatedParsed
			page.LastModified = &t
		}
		pages = append(pages, page)
	}
	return pages, nil
}
