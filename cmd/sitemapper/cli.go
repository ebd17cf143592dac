package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spacexdragon/sitemapper"
)

// TreeCmd builds a sitemap tree and prints it.
type TreeCmd struct {
	URL    string
	Pages  bool
	Robots bool
}

// Run executes the command against the given tree service.
func (c *TreeCmd) Run(ctx context.Context, trees sitemapper.TreeService, stdout io.Writer) error {
	if c.Robots {
		urls, err := trees.DiscoverSitemapURLsFromRobots(ctx, c.URL)
		if err != nil {
			return err
		}
		for _, u := range urls {
			fmt.Fprintln(stdout, u)
		}
		return nil
	}

	tree, err := trees.TreeForHomepage(ctx, c.URL)
	if err != nil {
		return err
	}

	if c.Pages {
		for page := range tree.AllPages() {
			fmt.Fprintln(stdout, page.URL)
		}
		return nil
	}

	printTree(stdout, tree, 0)
	return nil
}

// printTree writes one line per node, indented by depth.
func printTree(w io.Writer, node sitemapper.Sitemap, depth int) {
	indent := strings.Repeat("  ", depth)
	switch n := node.(type) {
	case *sitemapper.IndexRobotsTxtSitemap:
		fmt.Fprintf(w, "%srobots-index %s (%d sitemaps)\n", indent, n.URL(), len(n.Children))
		for _, child := range n.Children {
			printTree(w, child, depth+1)
		}
	case *sitemapper.IndexSitemap:
		fmt.Fprintf(w, "%sindex %s (%d sitemaps)\n", indent, n.URL(), len(n.Children))
		for _, child := range n.Children {
			printTree(w, child, depth+1)
		}
	case *sitemapper.PagesSitemap:
		fmt.Fprintf(w, "%spages[%s] %s (%d pages)\n", indent, n.Format, n.URL(), len(n.Pages))
	case *sitemapper.InvalidSitemap:
		fmt.Fprintf(w, "%sinvalid %s: %s\n", indent, n.URL(), n.Reason)
	}
}
