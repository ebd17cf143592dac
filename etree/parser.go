// Package etree parses XML sitemap documents (<sitemapindex> indexes and
// <urlset> page lists, including the news and image extension namespaces)
// using the beevik/etree document model.
package etree

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/spacexdragon/sitemapper"
	"golang.org/x/net/html/charset"
)

// w3cDatetimeLayouts are the W3C Datetime profiles allowed in <lastmod>
// and <news:publication_date>, most specific first.
var w3cDatetimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02",
	"2006-01",
	"2006",
}

// Parser parses XML sitemap documents. Malformed individual entries are
// skipped with a logged warning rather than failing the whole document.
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

// Index extracts child sitemap URLs from a <sitemapindex> document, in
// document order. Entries without a usable absolute HTTP(S) <loc> are
// skipped with a warning.
func (p *Parser) Index(data []byte) ([]string, error) {
	root, err := parseRoot(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "sitemapindex" {
		return nil, fmt.Errorf("unexpected root element <%s>, want <sitemapindex>", root.Tag)
	}

	urls := []string{}
	for _, el := range root.SelectElements("sitemap") {
		loc := elementText(el, "loc")
		if loc == "" {
			p.logger.Warn("sitemap index entry without <loc>, skipping")
			continue
		}
		if !sitemapper.IsHTTPURL(loc) {
			p.logger.Warn("sitemap index entry is not an absolute HTTP(S) URL, skipping", "loc", loc)
			continue
		}
		urls = append(urls, loc)
	}
	return urls, nil
}

// URLSet extracts pages from a <urlset> document, in document order.
func (p *Parser) URLSet(data []byte) ([]sitemapper.Page, error) {
	root, err := parseRoot(data)
	if err != nil {
		return nil, err
	}
	if root.Tag != "urlset" {
		return nil, fmt.Errorf("unexpected root element <%s>, want <urlset>", root.Tag)
	}

	pages := []sitemapper.Page{}
	for _, el := range root.SelectElements("url") {
		loc := elementText(el, "loc")
		if loc == "" {
			p.logger.Warn("url entry without <loc>, skipping")
			continue
		}
		if !sitemapper.IsHTTPURL(loc) {
			p.logger.Warn("url entry is not an absolute HTTP(S) URL, skipping", "loc", loc)
			continue
		}

		page := sitemapper.Page{URL: loc}

		if raw := elementText(el, "lastmod"); raw != "" {
			if t, err := ParseW3CDatetime(raw); err != nil {
				p.logger.Warn("unparseable <lastmod>, skipping attribute", "loc", loc, "lastmod", raw)
			} else {
				page.LastModified = &t
			}
		}
		if raw := elementText(el, "changefreq"); raw != "" {
			if f, ok := sitemapper.ParseChangeFrequency(raw); ok {
				page.ChangeFrequency = f
			} else {
				p.logger.Warn("unknown <changefreq>, skipping attribute", "loc", loc, "changefreq", raw)
			}
		}
		if raw := elementText(el, "priority"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err != nil {
				p.logger.Warn("unparseable <priority>, skipping attribute", "loc", loc, "priority", raw)
			} else {
				page.Priority = &v
			}
		}
		if news := el.SelectElement("news"); news != nil {
			page.News = attributeMap(news)
		}
		for _, img := range el.SelectElements("image") {
			page.Images = append(page.Images, attributeMap(img))
		}

		pages = append(pages, page)
	}
	return pages, nil
}

// ParseW3CDatetime parses a W3C Datetime value as used by <lastmod>.
func ParseW3CDatetime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range w3cDatetimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized W3C datetime %q", raw)
}

func parseRoot(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = func(label string, input io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(label, input)
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing sitemap XML: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("empty sitemap XML document")
	}
	return root, nil
}

func elementText(el *etree.Element, tag string) string {
	child := el.SelectElement(tag)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

// attributeMap flattens an extension element (news:news, image:image) into
// key-value attributes. Nested elements contribute dotted keys, e.g.
// "publication.name"; values are passed through verbatim.
func attributeMap(el *etree.Element) map[string]string {
	attrs := make(map[string]string)
	flattenInto(attrs, "", el)
	return attrs
}

func flattenInto(attrs map[string]string, prefix string, el *etree.Element) {
	for _, child := range el.ChildElements() {
		key := child.Tag
		if prefix != "" {
			key = prefix + "." + child.Tag
		}
		if len(child.ChildElements()) > 0 {
			flattenInto(attrs, key, child)
			continue
		}
		attrs[key] = strings.TrimSpace(child.Text())
	}
}
