package fetch

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/spacexdragon/sitemapper"
	sitemapperhttp "github.com/spacexdragon/sitemapper/http"
)

// wellKnownSitemapPaths are conventional sitemap locations probed relative
// to the homepage origin in addition to robots.txt discovery. Their
// existence is speculative, so missing documents are logged quietly.
var wellKnownSitemapPaths = []string{
	"sitemap.xml",
	"sitemap.xml.gz",
	"sitemap_index.xml",
	"sitemap-index.xml",
	"sitemap_index.xml.gz",
	"sitemap-index.xml.gz",
	"sitemap_news.xml",
	"sitemap-news.xml",
	"sitemap_news.xml.gz",
	"sitemap-news.xml.gz",
}

// Ensure TreeService implements sitemapper.TreeService.
var _ sitemapper.TreeService = (*TreeService)(nil)

// TreeService builds sitemap trees for websites. If no web client is
// supplied it constructs (and owns) a default HTTP client; Close releases
// it. A caller-supplied client is never closed by the service.
type TreeService struct {
	client          sitemapper.WebClient
	ownsClient      bool
	logger          *slog.Logger
	extraKnownPaths []string
	fetcherOpts     []FetcherOption
}

// Option configures a TreeService.
type Option func(*TreeService)

// WithWebClient supplies the web client to fetch with. The caller retains
// ownership and is responsible for closing it.
func WithWebClient(client sitemapper.WebClient) Option {
	return func(s *TreeService) { s.client = client }
}

// WithTreeLogger sets the logger. Defaults to a discarding logger.
func WithTreeLogger(logger *slog.Logger) Option {
	return func(s *TreeService) { s.logger = logger }
}

// WithExtraKnownPaths adds sitemap paths to probe, resolved relative to
// the homepage origin.
func WithExtraKnownPaths(paths ...string) Option {
	return func(s *TreeService) {
		s.extraKnownPaths = append(s.extraKnownPaths, paths...)
	}
}

// WithFetcherOptions passes options through to the underlying Fetcher,
// e.g. WithRecurseFunc, WithRecurseListFunc or WithConcurrency.
func WithFetcherOptions(opts ...FetcherOption) Option {
	return func(s *TreeService) {
		s.fetcherOpts = append(s.fetcherOpts, opts...)
	}
}

// NewTreeService creates a TreeService.
func NewTreeService(opts ...Option) *TreeService {
	s := &TreeService{logger: slog.New(slog.DiscardHandler)}
	for _, opt := range opts {
		opt(s)
	}
	if s.client == nil {
		s.client = sitemapperhttp.NewClient()
		s.ownsClient = true
	}
	return s
}

// Close releases the default web client if this service created it.
// Caller-supplied clients are left untouched.
func (s *TreeService) Close() error {
	if !s.ownsClient {
		return nil
	}
	return s.client.Close()
}

// TreeForHomepage discovers and fetches the sitemap hierarchy of a
// website, returning all resolved nodes under one synthetic root index.
// Seeds declared in robots.txt are fetched loudly (their absence is a
// genuine inconsistency); well-known and extra paths are speculative and
// fetched with quiet 404 handling. Only input validation fails hard.
func (s *TreeService) TreeForHomepage(ctx context.Context, homepageURL string) (sitemapper.Sitemap, error) {
	origin, err := sitemapper.StripToHomepage(homepageURL)
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimRight(strings.TrimSpace(homepageURL), "/") + "/"; origin != trimmed {
		s.logger.Warn("assuming homepage", "url", homepageURL, "homepage", origin)
	}

	robotsURLs, err := s.DiscoverSitemapURLsFromRobots(ctx, origin)
	if err != nil {
		return nil, err
	}

	type seed struct {
		url      string
		quiet404 bool
	}
	seeds := []seed{}
	seeded := make(map[string]bool)
	for _, u := range robotsURLs {
		if seeded[u] {
			continue
		}
		seeded[u] = true
		seeds = append(seeds, seed{url: u})
	}
	for _, path := range append(slices.Clone(wellKnownSitemapPaths), s.extraKnownPaths...) {
		u := origin + strings.TrimPrefix(path, "/")
		if seeded[u] {
			continue
		}
		seeded[u] = true
		seeds = append(seeds, seed{url: u, quiet404: true})
	}

	fetcher := s.fetcher()
	children := make([]sitemapper.Sitemap, 0, len(seeds))
	for _, sd := range seeds {
		children = append(children, fetcher.fetch(ctx, request{
			url:      sd.url,
			quiet404: sd.quiet404,
		}))
	}

	return &sitemapper.IndexSitemap{Loc: origin, Children: children}, nil
}

// DiscoverSitemapURLsFromRobots fetches only robots.txt and returns the
// sitemap URLs it declares, in file order with duplicates collapsed. A
// missing or unparseable robots.txt yields an empty list with a warning.
func (s *TreeService) DiscoverSitemapURLsFromRobots(ctx context.Context, homepageURL string) ([]string, error) {
	origin, err := sitemapper.StripToHomepage(homepageURL)
	if err != nil {
		return nil, err
	}
	robotsURL := origin + "robots.txt"

	s.logger.Info("fetching robots.txt", "url", robotsURL)
	resp := RetryGet(ctx, s.client, robotsURL)
	success, ok := resp.(*sitemapper.SuccessResponse)
	if !ok {
		errResp := resp.(*sitemapper.ErrorResponse)
		s.logger.Warn("unable to fetch robots.txt", "url", robotsURL, "err", errResp.Message)
		return []string{}, nil
	}

	data, err := gunzipIfNeeded(success)
	if err != nil {
		s.logger.Warn("unable to decompress robots.txt", "url", robotsURL, "err", err)
		return []string{}, nil
	}

	return sitemapURLsFromRobots(data, s.logger), nil
}

func (s *TreeService) fetcher() *Fetcher {
	opts := append([]FetcherOption{WithLogger(s.logger)}, s.fetcherOpts...)
	return NewFetcher(s.client, opts...)
}
