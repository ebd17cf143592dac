// Package fetch implements the sitemap discovery-and-parse engine: the
// recursive Fetcher, the retrying fetch helper, robots.txt discovery, and
// the tree entry point implementing sitemapper.TreeService.
package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spacexdragon/sitemapper"
	"github.com/spacexdragon/sitemapper/etree"
	"github.com/spacexdragon/sitemapper/gofeed"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxRecursionDepth bounds how deeply nested sitemap indexes are
// followed before a branch is cut off with an InvalidSitemap.
const DefaultMaxRecursionDepth = 10

// RecurseFunc decides per candidate child URL whether it should be
// fetched. Returning false replaces the child with an InvalidSitemap
// without any network call.
type RecurseFunc func(url string, recursionLevel int, parentURLs []string) bool

// RecurseListFunc filters the full child URL list of an index document
// before any child is fetched. It is applied once per parent; URLs it
// removes are not fetched and do not appear in the tree.
type RecurseListFunc func(urls []string, recursionLevel int, parentURLs []string) []string

// Fetcher fetches one sitemap URL and recursively expands index documents
// into fully-resolved subtrees. Every per-document failure (fetch error,
// decompression error, unrecognized or malformed format, cycle, depth
// limit, callback filter) becomes an InvalidSitemap node; Fetch never
// returns a partial result.
type Fetcher struct {
	client      sitemapper.WebClient
	logger      *slog.Logger
	maxDepth    int
	attempts    int
	concurrency int
	recurse     RecurseFunc
	recurseList RecurseListFunc

	xml   *etree.Parser
	feeds *gofeed.Parser
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) { f.logger = logger }
}

// WithMaxRecursionDepth overrides DefaultMaxRecursionDepth.
func WithMaxRecursionDepth(depth int) FetcherOption {
	return func(f *Fetcher) { f.maxDepth = depth }
}

// WithRetryAttempts overrides the per-URL attempt cap used for retryable
// fetch errors.
func WithRetryAttempts(attempts int) FetcherOption {
	return func(f *Fetcher) { f.attempts = attempts }
}

// WithConcurrency fetches up to n sibling sitemaps of the same index in
// parallel. Child ordering in the tree remains discovery order. Values
// below 2 keep the default sequential depth-first behavior.
func WithConcurrency(n int) FetcherOption {
	return func(f *Fetcher) { f.concurrency = n }
}

// WithRecurseFunc installs a per-child filtering callback.
func WithRecurseFunc(fn RecurseFunc) FetcherOption {
	return func(f *Fetcher) { f.recurse = fn }
}

// WithRecurseListFunc installs a per-parent child-list filtering callback.
func WithRecurseListFunc(fn RecurseListFunc) FetcherOption {
	return func(f *Fetcher) { f.recurseList = fn }
}

// NewFetcher creates a Fetcher using the given web client.
func NewFetcher(client sitemapper.WebClient, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:   client,
		logger:   slog.New(slog.DiscardHandler),
		maxDepth: DefaultMaxRecursionDepth,
		attempts: DefaultRetryAttempts,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.xml = etree.NewParser(f.logger)
	f.feeds = gofeed.NewParser(f.logger)
	return f
}

// Fetch resolves one sitemap URL into a subtree.
func (f *Fetcher) Fetch(ctx context.Context, url string) sitemapper.Sitemap {
	return f.fetch(ctx, request{url: url})
}

// request carries the recursion context of one fetch. parentURLs is the
// cycle-detection set; chain is diagnostic only. Both are treated as
// immutable: branches clone before appending, so concurrent siblings
// cannot corrupt each other's view.
type request struct {
	url        string
	level      int
	parentURLs []string
	chain      []string
	quiet404   bool
}

func (f *Fetcher) fetch(ctx context.Context, req request) sitemapper.Sitemap {
	if slices.Contains(req.parentURLs, req.url) {
		f.logger.Warn("sitemap cycle detected", "url", req.url, "chain", req.chain)
		return &sitemapper.InvalidSitemap{Loc: req.url, Reason: "cycle detected"}
	}
	if req.level > f.maxDepth {
		f.logger.Warn("maximum recursion depth exceeded", "url", req.url, "depth", req.level)
		return &sitemapper.InvalidSitemap{
			Loc:    req.url,
			Reason: fmt.Sprintf("maximum recursion depth %d exceeded", f.maxDepth),
		}
	}
	if f.recurse != nil && !f.recurse(req.url, req.level, req.parentURLs) {
		return &sitemapper.InvalidSitemap{Loc: req.url, Reason: "filtered by callback"}
	}

	resp := RetryGetN(ctx, f.client, req.url, f.attempts)
	success, ok := resp.(*sitemapper.SuccessResponse)
	if !ok {
		errResp := resp.(*sitemapper.ErrorResponse)
		if req.quiet404 && is404(errResp) {
			f.logger.Debug("sitemap not found", "url", req.url)
		} else {
			f.logger.Warn("unable to fetch sitemap", "url", req.url, "err", errResp.Message, "chain", req.chain)
		}
		return &sitemapper.InvalidSitemap{
			Loc:    req.url,
			Reason: fmt.Sprintf("unable to fetch: %s", errResp.Message),
		}
	}

	data, err := gunzipIfNeeded(success)
	if err != nil {
		f.logger.Warn("unable to decompress sitemap", "url", req.url, "err", err)
		return &sitemapper.InvalidSitemap{
			Loc:    req.url,
			Reason: fmt.Sprintf("unable to decompress: %s", err),
		}
	}

	switch sniffFormat(data) {
	case formatXMLIndex:
		urls, err := f.xml.Index(data)
		if err != nil {
			return f.invalidParse(req, err)
		}
		return f.fetchChildren(ctx, req, urls, false)

	case formatRobotsTxt:
		urls := sitemapURLsFromRobots(data, f.logger)
		return f.fetchChildren(ctx, req, urls, true)

	case formatXMLPages:
		pages, err := f.xml.URLSet(data)
		if err != nil {
			return f.invalidParse(req, err)
		}
		return &sitemapper.PagesSitemap{Loc: req.url, Format: sitemapper.PagesFormatXML, Pages: pages}

	case formatRSS:
		pages, err := f.feeds.Pages(data)
		if err != nil {
			return f.invalidParse(req, err)
		}
		return &sitemapper.PagesSitemap{Loc: req.url, Format: sitemapper.PagesFormatRSS, Pages: pages}

	case formatAtom:
		pages, err := f.feeds.Pages(data)
		if err != nil {
			return f.invalidParse(req, err)
		}
		return &sitemapper.PagesSitemap{Loc: req.url, Format: sitemapper.PagesFormatAtom, Pages: pages}

	case formatText:
		pages := textPages(data, f.logger)
		return &sitemapper.PagesSitemap{Loc: req.url, Format: sitemapper.PagesFormatText, Pages: pages}

	default:
		f.logger.Warn("unrecognized sitemap format", "url", req.url)
		return &sitemapper.InvalidSitemap{Loc: req.url, Reason: "unrecognized sitemap format"}
	}
}

// fetchChildren resolves the children of an index document. An index with
// zero children is still a valid, empty index node.
func (f *Fetcher) fetchChildren(ctx context.Context, req request, childURLs []string, robots bool) sitemapper.Sitemap {
	if f.recurseList != nil {
		childURLs = f.recurseList(slices.Clone(childURLs), req.level, req.parentURLs)
	}

	parents := append(slices.Clone(req.parentURLs), req.url)
	chain := append(slices.Clone(req.chain), req.url)

	children := make([]sitemapper.Sitemap, len(childURLs))
	fetchChild := func(i int) {
		children[i] = f.fetch(ctx, request{
			url:        childURLs[i],
			level:      req.level + 1,
			parentURLs: parents,
			chain:      chain,
		})
	}

	if f.concurrency > 1 && len(childURLs) > 1 {
		var g errgroup.Group
		g.SetLimit(f.concurrency)
		for i := range childURLs {
			g.Go(func() error {
				fetchChild(i)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range childURLs {
			fetchChild(i)
		}
	}

	index := sitemapper.IndexSitemap{Loc: req.url, Children: children}
	if robots {
		return &sitemapper.IndexRobotsTxtSitemap{IndexSitemap: index}
	}
	return &index
}

func (f *Fetcher) invalidParse(req request, err error) sitemapper.Sitemap {
	f.logger.Warn("unable to parse sitemap", "url", req.url, "err", err, "chain", req.chain)
	return &sitemapper.InvalidSitemap{
		Loc:    req.url,
		Reason: fmt.Sprintf("unable to parse: %s", err),
	}
}

func is404(resp *sitemapper.ErrorResponse) bool {
	return len(resp.Message) >= 3 && resp.Message[:3] == "404"
}
