// Command generate-exclude-list resolves project and commission URLs to the
// asset folders that must not be uploaded.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ochairo/mediaexclude/internal/domain-adapters/gateways"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
	"github.com/ochairo/mediaexclude/internal/domain/services"
	"github.com/ochairo/mediaexclude/internal/external-adapters/csv"
	"github.com/ochairo/mediaexclude/internal/external-adapters/lstfile"
	"github.com/ochairo/mediaexclude/internal/external-adapters/yaml"
	"github.com/ochairo/mediaexclude/internal/external-adapters/zaplog"
)

// options holds the parsed command line
type options struct {
	sourceFile    string
	column        int
	proto         string
	host          string
	searchURL     string
	skipSensitive bool
	authFile      string
	output        string
	workers       int
	timeout       time.Duration
	insecure      bool
	logLevel      string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := parseFlags(os.Args[1:])

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func parseFlags(args []string) *options {
	fs := flag.NewFlagSet("generate-exclude-list", flag.ExitOnError)
	opts := &options{}

	fs.StringVar(&opts.sourceFile, "file", "", "CSV spreadsheet to read (required)")
	fs.IntVar(&opts.column, "column", 2, "Zero-based index of the column that contains URLs")
	fs.StringVar(&opts.proto, "proto", "https", "Specify http or https protocol")
	fs.StringVar(&opts.host, "host", "localhost", "Host that the project-management API is running on")
	fs.StringVar(&opts.searchURL, "vsurl", "https://localhost:8080", "Base URL of the media search API")
	fs.BoolVar(&opts.skipSensitive, "skip-sensitive", false, "Don't add folders of projects flagged sensitive")
	fs.StringVar(&opts.authFile, "authfile", "auth.yaml", "YAML file with user and password keys")
	fs.StringVar(&opts.output, "output", "excludepaths.lst", "File to write the exclusion list to (- for stdout)")
	fs.IntVar(&opts.workers, "workers", services.DefaultWorkers, "Maximum concurrent API requests (1 = sequential)")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "Timeout for each API request")
	fs.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification towards the APIs")
	fs.StringVar(&opts.logLevel, "log-level", "info", "Log level: debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: generate-exclude-list --file <csv> [options]

Resolve the project and commission URLs in a CSV file to asset folders,
add the folders of every project flagged sensitive, and write the
resulting exclusion list one path per line.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  generate-exclude-list --file projects.csv
  generate-exclude-list --file projects.csv --column 4 --host pluto.example.com --skip-sensitive
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if opts.sourceFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --file is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	return opts
}

func run(ctx context.Context, opts *options) error {
	logger, err := zaplog.New(opts.logLevel)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best-effort flush of stderr
	defer logger.Sync()

	creds, err := yaml.NewCredentialsParser().ParseFile(opts.authFile)
	if err != nil {
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	reader, err := csv.NewURLReader(opts.column)
	if err != nil {
		return err
	}
	urls, err := reader.ReadFile(opts.sourceFile)
	if err != nil {
		return err
	}
	logger.Info("loaded URLs", interfaces.F("file", opts.sourceFile), interfaces.F("count", len(urls)))

	assets := gateways.NewPlutoGateway(gateways.PlutoConfig{
		Proto:       opts.proto,
		Host:        opts.host,
		Credentials: *creds,
		Timeout:     opts.timeout,
		Insecure:    opts.insecure,
	}, logger)

	search := gateways.NewSearchGateway(gateways.SearchConfig{
		BaseURL:     opts.searchURL,
		Credentials: *creds,
		Timeout:     opts.timeout,
		Insecure:    opts.insecure,
	}, logger)

	builder := services.NewExclusionService(assets, search, logger, services.BuilderConfig{Workers: opts.workers})

	list, err := builder.Build(ctx, urls, opts.skipSensitive)
	if err != nil {
		return err
	}

	if err := lstfile.WriteFile(opts.output, list); err != nil {
		return err
	}

	logger.Info("exclusion list written", interfaces.F("output", opts.output), interfaces.F("paths", len(list)))
	return nil
}
