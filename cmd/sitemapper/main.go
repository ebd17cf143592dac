package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"github.com/spacexdragon/sitemapper/fetch"
	sitemapperhttp "github.com/spacexdragon/sitemapper/http"
	sitemapperslog "github.com/spacexdragon/sitemapper/slog"
)

func main() {
	ctx := context.Background()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct{}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{}
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("sitemapper"),
		kong.Description("Discover and print the sitemap tree of a website"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no arguments provided")
	}
	if len(args) == 1 && (args[0] == "--help" || args[0] == "-h" || args[0] == "help") {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	_, err = parser.Parse(args)
	if err != nil {
		return err
	}

	logLevel := slog.LevelWarn
	if cli.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: logLevel}))

	clientOpts := []sitemapperhttp.Option{
		sitemapperhttp.WithTimeout(cli.Timeout),
	}
	if cli.Wait > 0 {
		clientOpts = append(clientOpts, sitemapperhttp.WithWait(cli.Wait))
		if cli.RandomWait {
			clientOpts = append(clientOpts, sitemapperhttp.WithRandomWait())
		}
	}
	if cli.MaxResponseLength > 0 {
		clientOpts = append(clientOpts, sitemapperhttp.WithMaxResponseDataLength(cli.MaxResponseLength))
	}
	client := sitemapperhttp.NewClient(clientOpts...)
	defer client.Close()

	if cli.Proxy != "" {
		if err := client.SetProxy(cli.Proxy); err != nil {
			return err
		}
	}

	trees := fetch.NewTreeService(
		fetch.WithWebClient(client),
		fetch.WithTreeLogger(logger),
		fetch.WithExtraKnownPaths(cli.ExtraPaths...),
		fetch.WithFetcherOptions(fetch.WithConcurrency(cli.Concurrency)),
	)

	cmd := &TreeCmd{
		URL:    cli.URL,
		Pages:  cli.Pages,
		Robots: cli.Robots,
	}
	return cmd.Run(ctx, sitemapperslog.NewLoggingTreeService(trees, logger), stdout)
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Pages             bool          `short:"p" help:"Print discovered page URLs instead of the tree"`
	Robots            bool          `short:"r" help:"Only print sitemap URLs declared in robots.txt"`
	Timeout           time.Duration `short:"t" default:"60s" help:"HTTP request timeout"`
	Wait              time.Duration `short:"w" default:"0s" help:"Fixed wait between requests"`
	RandomWait        bool          `help:"Jitter the inter-request wait by +/-50%"`
	Proxy             string        `help:"Proxy URL for all requests"`
	MaxResponseLength int           `help:"Maximum response body bytes to read (0 = unlimited)"`
	ExtraPaths        []string      `help:"Additional sitemap paths to probe, relative to the homepage origin"`
	Concurrency       int           `short:"c" default:"1" help:"Concurrent sibling sitemap fetch limit"`
	Verbose           bool          `short:"v" help:"Enable debug logging"`
	URL               string        `arg:"" required:"" help:"Homepage URL to build the sitemap tree for"`
}
