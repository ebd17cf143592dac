package sitemapper

import "iter"

// Sitemap is one node in a sitemap tree: an index of further sitemaps, a
// leaf holding concrete pages, or a placeholder recording why a document
// could not be resolved. The set of variants is closed: the unexported
// methods prevent implementations outside this package, so dispatch over
// variants can be exhaustive.
type Sitemap interface {
	// URL returns the canonical source URL of the document this node was
	// built from.
	URL() string

	// AllSitemaps returns a lazy, restartable depth-first pre-order
	// traversal over this node and every node below it.
	AllSitemaps() iter.Seq[Sitemap]

	// AllPages returns a lazy, restartable sequence of every Page
	// reachable through PagesSitemap leaves, in traversal order.
	AllPages() iter.Seq[Page]

	subSitemaps() []Sitemap
	ownPages() []Page
}

// IndexSitemap is a sitemap whose entries are other sitemaps. Children are
// stored in discovery order and owned exclusively by this node.
type IndexSitemap struct {
	Loc      string
	Children []Sitemap
}

func (s *IndexSitemap) URL() string                    { return s.Loc }
func (s *IndexSitemap) AllSitemaps() iter.Seq[Sitemap] { return allSitemaps(s) }
func (s *IndexSitemap) AllPages() iter.Seq[Page]       { return allPages(s) }
func (s *IndexSitemap) subSitemaps() []Sitemap         { return s.Children }
func (s *IndexSitemap) ownPages() []Page               { return nil }

// IndexRobotsTxtSitemap is an index sitemap built from the Sitemap:
// directives of a robots.txt file.
type IndexRobotsTxtSitemap struct {
	IndexSitemap
}

func (s *IndexRobotsTxtSitemap) AllSitemaps() iter.Seq[Sitemap] { return allSitemaps(s) }
func (s *IndexRobotsTxtSitemap) AllPages() iter.Seq[Page]       { return allPages(s) }

// PagesFormat identifies the document dialect a PagesSitemap was parsed from.
type PagesFormat string

const (
	PagesFormatXML  PagesFormat = "xml"
	PagesFormatText PagesFormat = "txt"
	PagesFormatRSS  PagesFormat = "rss"
	PagesFormatAtom PagesFormat = "atom"
)

// PagesSitemap is a leaf sitemap holding page entries in document order.
type PagesSitemap struct {
	Loc    string
	Format PagesFormat
	Pages  []Page
}

func (s *PagesSitemap) URL() string                    { return s.Loc }
func (s *PagesSitemap) AllSitemaps() iter.Seq[Sitemap] { return allSitemaps(s) }
func (s *PagesSitemap) AllPages() iter.Seq[Page]       { return allPages(s) }
func (s *PagesSitemap) subSitemaps() []Sitemap         { return nil }
func (s *PagesSitemap) ownPages() []Page               { return s.Pages }

// InvalidSitemap records a document that could not be fetched or parsed,
// or a branch that was stopped by the cycle guard, the recursion depth
// limit, or a filtering callback. It is terminal and has no children.
type InvalidSitemap struct {
	Loc    string
	Reason string
}

func (s *InvalidSitemap) URL() string                    { return s.Loc }
func (s *InvalidSitemap) AllSitemaps() iter.Seq[Sitemap] { return allSitemaps(s) }
func (s *InvalidSitemap) AllPages() iter.Seq[Page]       { return allPages(s) }
func (s *InvalidSitemap) subSitemaps() []Sitemap         { return nil }
func (s *InvalidSitemap) ownPages() []Page               { return nil }

func allSitemaps(root Sitemap) iter.Seq[Sitemap] {
	return func(yield func(Sitemap) bool) {
		pushSitemaps(root, yield)
	}
}

func pushSitemaps(s Sitemap, yield func(Sitemap) bool) bool {
	if !yield(s) {
		return false
	}
	for _, sub := range s.subSitemaps() {
		if !pushSitemaps(sub, yield) {
			return false
		}
	}
	return true
}

func allPages(root Sitemap) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		for s := range allSitemaps(root) {
			for _, p := range s.ownPages() {
				if !yield(p) {
					return
				}
			}
		}
	}
}
