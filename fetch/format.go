package fetch

import (
	"bytes"
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/spacexdragon/sitemapper"
	"golang.org/x/net/html/charset"
)

// format is the classified dialect of a fetched document.
type format int

const (
	formatUnknown format = iota
	formatXMLIndex
	formatXMLPages
	formatRSS
	formatAtom
	formatRobotsTxt
	formatText
)

// robotsDirectives are the directive names that mark a plain-text document
// as robots.txt rather than a newline-delimited URL list.
var robotsDirectives = map[string]bool{
	"user-agent":  true,
	"disallow":    true,
	"allow":       true,
	"sitemap":     true,
	"site-map":    true,
	"crawl-delay": true,
	"host":        true,
}

// sniffFormat inspects document content and picks a dialect. XML documents
// are classified by root element; non-XML content is robots.txt when it
// carries robots directives, a plain-text URL list when at least one line
// is an absolute HTTP(S) URL, and unknown otherwise.
func sniffFormat(data []byte) format {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		switch xmlRootName(trimmed) {
		case "sitemapindex":
			return formatXMLIndex
		case "urlset":
			return formatXMLPages
		case "rss":
			return formatRSS
		case "feed":
			return formatAtom
		}
		return formatUnknown
	}

	hasURLLine := false
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if name, _, ok := strings.Cut(line, ":"); ok {
			if robotsDirectives[strings.ToLower(strings.TrimSpace(name))] {
				return formatRobotsTxt
			}
		}
		if sitemapper.IsHTTPURL(line) {
			hasURLLine = true
		}
	}
	if hasURLLine {
		return formatText
	}
	return formatUnknown
}

// xmlRootName returns the local name of the document's root element, or
// the empty string when none can be decoded.
func xmlRootName(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.CharsetReader = charset.NewReaderLabel
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local
		}
	}
}

// textPages parses a newline-delimited URL list. Lines that are not
// absolute HTTP(S) URLs are skipped with a warning.
func textPages(data []byte, logger *slog.Logger) []sitemapper.Page {
	pages := []sitemapper.Page{}
	for line := range strings.Lines(string(data)) {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !sitemapper.IsHTTPURL(line) {
			logger.Warn("text sitemap line is not an absolute HTTP(S) URL, skipping", "line", line)
			continue
		}
		pages = append(pages, sitemapper.Page{URL: line})
	}
	return pages
}

// gunzipIfNeeded decompresses the response body when the magic bytes,
// content type, or URL suffix indicate gzip; otherwise it returns the body
// unchanged.
func gunzipIfNeeded(resp *sitemapper.SuccessResponse) ([]byte, error) {
	if !looksGzipped(resp) {
		return resp.Data, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(resp.Data))
	if err != nil {
		return nil, fmt.Errorf("opening gzip stream: %w", err)
	}
	defer zr.Close()
	data, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("decompressing: %w", err)
	}
	return data, nil
}

func looksGzipped(resp *sitemapper.SuccessResponse) bool {
	if len(resp.Data) >= 2 && resp.Data[0] == 0x1f && resp.Data[1] == 0x8b {
		return true
	}
	if strings.Contains(strings.ToLower(resp.Header("Content-Type")), "gzip") {
		return true
	}
	if u, err := url.Parse(resp.FinalURL); err == nil {
		return strings.HasSuffix(strings.ToLower(u.Path), ".gz")
	}
	return false
}
