// Command build-output-list filters a master file listing against an
// exclusion list to produce the upload manifest.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
	"github.com/ochairo/mediaexclude/internal/domain/services"
	"github.com/ochairo/mediaexclude/internal/external-adapters/lstfile"
	"github.com/ochairo/mediaexclude/internal/external-adapters/zaplog"
)

func main() {
	fs := flag.NewFlagSet("build-output-list", flag.ExitOnError)
	var (
		allFiles = fs.String("allfiles", "all_media.lst", "List of all files, to build the output list from")
		encoding = fs.String("files-list-encoding", "latin1", "Character encoding of the file in --allfiles. On a Mac this should probably be latin1")
		exclude  = fs.String("exclude", "excludepaths.lst", "File containing list of paths to exclude")
		output   = fs.String("output", "to_upload.lst", "File to write the upload list to")
		logLevel = fs.String("log-level", "info", "Log level: debug, info, warn or error")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: build-output-list [options]

Copy every line of the master file list that does not start with one of
the excluded path prefixes. Prefixes match literally, so /proj/a also
excludes /proj/ab.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if err := run(*allFiles, *encoding, *exclude, *output, *logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(allFiles, encoding, exclude, output, logLevel string) error {
	logger, err := zaplog.New(logLevel)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best-effort flush of stderr
	defer logger.Sync()

	prefixes, err := lstfile.ReadExclusionList(exclude)
	if err != nil {
		return err
	}
	logger.Debug("exclusion list loaded", interfaces.F("prefixes", prefixes))

	in, err := lstfile.OpenEncoded(allFiles, encoding)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	// Write beside the target and rename, so a failed run leaves no partial list
	out, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	//nolint:errcheck // No-op once the rename succeeded
	defer os.Remove(out.Name())

	filter := services.NewOutputFilter(prefixes, logger)
	if _, err := filter.Filter(in, out); err != nil {
		_ = out.Close()
		return err
	}

	//nolint:gosec // G302: the upload list is not secret
	if err := out.Chmod(0644); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to set mode on %s: %w", output, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	if err := os.Rename(out.Name(), output); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}
