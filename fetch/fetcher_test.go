package fetch_test

import (
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spacexdragon/sitemapper"
	"github.com/spacexdragon/sitemapper/fetch"
	sitemapperhttp "github.com/spacexdragon/sitemapper/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer serves the given path->body map, replacing {{BASE}} in
// bodies with the server's own URL. The returned hits func reports how
// many requests a path has received.
func newTestServer(t *testing.T, content map[string]string) (srv *httptest.Server, hits func(path string) int) {
	t.Helper()

	var mu sync.Mutex
	counts := make(map[string]int)

	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		counts[r.URL.Path]++
		mu.Unlock()

		body, ok := content[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		body = strings.ReplaceAll(body, "{{BASE}}", srv.URL)
		if strings.HasSuffix(r.URL.Path, ".xml") {
			w.Header().Set("Content-Type", "application/xml")
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	return srv, func(path string) int {
		mu.Lock()
		defer mu.Unlock()
		return counts[path]
	}
}

func newTestFetcher(t *testing.T, opts ...fetch.FetcherOption) *fetch.Fetcher {
	t.Helper()
	client := sitemapperhttp.NewClient()
	t.Cleanup(func() { _ = client.Close() })
	return fetch.NewFetcher(client, opts...)
}

const pagesSitemap = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>{{BASE}}/page1</loc></url>
  <url><loc>{{BASE}}/page2</loc></url>
</urlset>`

func TestFetcher_Fetch_URLSet(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap.xml": pagesSitemap,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.xml")

	pages, ok := node.(*sitemapper.PagesSitemap)
	require.True(t, ok, "expected a pages sitemap, got %#v", node)
	assert.Equal(t, sitemapper.PagesFormatXML, pages.Format)
	require.Len(t, pages.Pages, 2)
	assert.Equal(t, srv.URL+"/page1", pages.Pages[0].URL)
	assert.Equal(t, srv.URL+"/page2", pages.Pages[1].URL)
}

func TestFetcher_Fetch_IndexRecursion(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap.xml": `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-a.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-b.xml</loc></sitemap>
</sitemapindex>`,
		"/sitemap-a.xml": pagesSitemap,
		"/sitemap-b.xml": pagesSitemap,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.xml")

	index, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok, "expected an index sitemap, got %#v", node)
	require.Len(t, index.Children, 2)
	assert.Equal(t, srv.URL+"/sitemap-a.xml", index.Children[0].URL())
	assert.Equal(t, srv.URL+"/sitemap-b.xml", index.Children[1].URL())

	var pageURLs []string
	for p := range node.AllPages() {
		pageURLs = append(pageURLs, p.URL)
	}
	assert.Len(t, pageURLs, 4)
}

func TestFetcher_Fetch_CycleDetected(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap-a.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-b.xml</loc></sitemap>
</sitemapindex>`,
		"/sitemap-b.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-a.xml</loc></sitemap>
</sitemapindex>`,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap-a.xml")

	a, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok)
	require.Len(t, a.Children, 1)

	b, ok := a.Children[0].(*sitemapper.IndexSitemap)
	require.True(t, ok, "B must be a valid node, got %#v", a.Children[0])
	require.Len(t, b.Children, 1)

	backref, ok := b.Children[0].(*sitemapper.InvalidSitemap)
	require.True(t, ok, "the backreference to A must be invalid, got %#v", b.Children[0])
	assert.Equal(t, srv.URL+"/sitemap-a.xml", backref.URL())
	assert.Contains(t, backref.Reason, "cycle")
}

func TestFetcher_Fetch_MaxRecursionDepth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/level0.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/level1.xml</loc></sitemap>
</sitemapindex>`,
		"/level1.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/level2.xml</loc></sitemap>
</sitemapindex>`,
		"/level2.xml": pagesSitemap,
	})

	node := newTestFetcher(t, fetch.WithMaxRecursionDepth(1)).Fetch(context.Background(), srv.URL+"/level0.xml")

	level0, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok)
	level1, ok := level0.Children[0].(*sitemapper.IndexSitemap)
	require.True(t, ok)

	stopped, ok := level1.Children[0].(*sitemapper.InvalidSitemap)
	require.True(t, ok, "expected the depth limit to cut off level2, got %#v", level1.Children[0])
	assert.Contains(t, stopped.Reason, "recursion depth")
}

func TestFetcher_Fetch_PartialFailureContainment(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/sitemap-a.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-missing.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/sitemap-b.xml</loc></sitemap>
</sitemapindex>`,
		"/sitemap-a.xml": pagesSitemap,
		"/sitemap-b.xml": pagesSitemap,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.xml")

	index, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok)
	require.Len(t, index.Children, 3)

	assert.IsType(t, &sitemapper.PagesSitemap{}, index.Children[0])
	invalid, ok := index.Children[1].(*sitemapper.InvalidSitemap)
	require.True(t, ok)
	assert.Contains(t, invalid.Reason, "404")
	assert.IsType(t, &sitemapper.PagesSitemap{}, index.Children[2])

	var pageURLs []string
	for p := range node.AllPages() {
		pageURLs = append(pageURLs, p.URL)
	}
	assert.Len(t, pageURLs, 4, "pages must come only from the two valid branches")
}

func TestFetcher_Fetch_EmptyIndexIsValid(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"></sitemapindex>`,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.xml")

	index, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok, "an index without children is still valid, got %#v", node)
	assert.Empty(t, index.Children)
}

func TestFetcher_Fetch_RecurseCallbackFiltersWithoutFetching(t *testing.T) {
	t.Parallel()

	srv, hits := newTestServer(t, map[string]string{
		"/sitemap.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/keep.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/excluded/skip.xml</loc></sitemap>
</sitemapindex>`,
		"/keep.xml":          pagesSitemap,
		"/excluded/skip.xml": pagesSitemap,
	})

	fetcher := newTestFetcher(t, fetch.WithRecurseFunc(func(url string, level int, parents []string) bool {
		return !strings.Contains(url, "/excluded/")
	}))
	node := fetcher.Fetch(context.Background(), srv.URL+"/sitemap.xml")

	index, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok)
	require.Len(t, index.Children, 2)

	filtered, ok := index.Children[1].(*sitemapper.InvalidSitemap)
	require.True(t, ok)
	assert.Equal(t, "filtered by callback", filtered.Reason)
	assert.Equal(t, 0, hits("/excluded/skip.xml"), "filtered child must not be fetched")
}

func TestFetcher_Fetch_RecurseListCallbackPrunesBeforeFetch(t *testing.T) {
	t.Parallel()

	srv, hits := newTestServer(t, map[string]string{
		"/sitemap.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/keep.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/excluded/skip.xml</loc></sitemap>
</sitemapindex>`,
		"/keep.xml":          pagesSitemap,
		"/excluded/skip.xml": pagesSitemap,
	})

	var callbackCalls int
	fetcher := newTestFetcher(t, fetch.WithRecurseListFunc(func(urls []string, level int, parents []string) []string {
		callbackCalls++
		kept := urls[:0]
		for _, u := range urls {
			if !strings.Contains(u, "/excluded/") {
				kept = append(kept, u)
			}
		}
		return kept
	}))
	node := fetcher.Fetch(context.Background(), srv.URL+"/sitemap.xml")

	index, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok)
	require.Len(t, index.Children, 1, "the pruned child must not appear in the tree at all")
	assert.Equal(t, srv.URL+"/keep.xml", index.Children[0].URL())
	assert.Equal(t, 1, callbackCalls, "list callback applies once per parent")
	assert.Equal(t, 0, hits("/excluded/skip.xml"))

	for p := range node.AllPages() {
		assert.NotContains(t, p.URL, "/excluded/")
	}
}

func TestFetcher_Fetch_GzippedSitemap(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/page1</loc></url>
</urlset>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(buf.Bytes())
	}))
	defer srv.Close()

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.xml.gz")

	pages, ok := node.(*sitemapper.PagesSitemap)
	require.True(t, ok, "expected a pages sitemap, got %#v", node)
	require.Len(t, pages.Pages, 1)
	assert.Equal(t, "https://example.com/page1", pages.Pages[0].URL)
}

func TestFetcher_Fetch_PlainTextSitemap(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap.txt": "{{BASE}}/page1\n\nnot a url\n{{BASE}}/page2\n",
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.txt")

	pages, ok := node.(*sitemapper.PagesSitemap)
	require.True(t, ok, "expected a pages sitemap, got %#v", node)
	assert.Equal(t, sitemapper.PagesFormatText, pages.Format)
	require.Len(t, pages.Pages, 2)
	assert.Equal(t, srv.URL+"/page1", pages.Pages[0].URL)
	assert.Equal(t, srv.URL+"/page2", pages.Pages[1].URL)
}

func TestFetcher_Fetch_RSSAndAtom(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/rss.xml": `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
  <title>Example</title>
  <item><title>One</title><link>{{BASE}}/news/1</link></item>
  <item><title>Two</title><link>{{BASE}}/news/2</link></item>
</channel></rss>`,
		"/atom.xml": `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example</title>
  <entry><title>One</title><link href="{{BASE}}/blog/1"/></entry>
</feed>`,
	})

	fetcher := newTestFetcher(t)

	rss, ok := fetcher.Fetch(context.Background(), srv.URL+"/rss.xml").(*sitemapper.PagesSitemap)
	require.True(t, ok)
	assert.Equal(t, sitemapper.PagesFormatRSS, rss.Format)
	require.Len(t, rss.Pages, 2)
	assert.Equal(t, srv.URL+"/news/1", rss.Pages[0].URL)

	atom, ok := fetcher.Fetch(context.Background(), srv.URL+"/atom.xml").(*sitemapper.PagesSitemap)
	require.True(t, ok)
	assert.Equal(t, sitemapper.PagesFormatAtom, atom.Format)
	require.Len(t, atom.Pages, 1)
	assert.Equal(t, srv.URL+"/blog/1", atom.Pages[0].URL)
}

func TestFetcher_Fetch_UnrecognizedFormat(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/sitemap.xml": `<html><body>soft error page</body></html>`,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/sitemap.xml")

	invalid, ok := node.(*sitemapper.InvalidSitemap)
	require.True(t, ok, "expected an invalid node, got %#v", node)
	assert.Contains(t, invalid.Reason, "unrecognized")
}

func TestFetcher_Fetch_ConcurrentChildrenKeepDiscoveryOrder(t *testing.T) {
	t.Parallel()

	content := map[string]string{
		"/sitemap.xml": `<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>{{BASE}}/c0.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/c1.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/c2.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/c3.xml</loc></sitemap>
  <sitemap><loc>{{BASE}}/c4.xml</loc></sitemap>
</sitemapindex>`,
	}
	for _, p := range []string{"/c0.xml", "/c1.xml", "/c2.xml", "/c3.xml", "/c4.xml"} {
		content[p] = pagesSitemap
	}
	srv, _ := newTestServer(t, content)

	node := newTestFetcher(t, fetch.WithConcurrency(4)).Fetch(context.Background(), srv.URL+"/sitemap.xml")

	index, ok := node.(*sitemapper.IndexSitemap)
	require.True(t, ok)
	require.Len(t, index.Children, 5)
	for i, child := range index.Children {
		assert.Equal(t, srv.URL+"/c"+string(rune('0'+i))+".xml", child.URL())
	}
}

func TestFetcher_Fetch_RobotsTxtDocument(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, map[string]string{
		"/robots.txt": `User-agent: *
Disallow: /admin/
Sitemap: {{BASE}}/sitemap-a.xml
Site-map: {{BASE}}/sitemap-b.xml
`,
		"/sitemap-a.xml": pagesSitemap,
		"/sitemap-b.xml": pagesSitemap,
	})

	node := newTestFetcher(t).Fetch(context.Background(), srv.URL+"/robots.txt")

	robots, ok := node.(*sitemapper.IndexRobotsTxtSitemap)
	require.True(t, ok, "expected a robots.txt index, got %#v", node)
	require.Len(t, robots.Children, 2)
	assert.Equal(t, srv.URL+"/sitemap-a.xml", robots.Children[0].URL())
	assert.Equal(t, srv.URL+"/sitemap-b.xml", robots.Children[1].URL())
}
