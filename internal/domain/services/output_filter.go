package services

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces/services"
	"github.com/ochairo/mediaexclude/internal/lineio"
)

// outputFilter implements FilterService with literal prefix matching
type outputFilter struct {
	prefixes []string
	logger   interfaces.Logger
}

// NewOutputFilter creates a filter dropping lines that start with any prefix.
// Empty prefixes are ignored so a blank exclusion entry never matches everything.
func NewOutputFilter(prefixes []string, logger interfaces.Logger) services.FilterService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	kept := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		if p != "" {
			kept = append(kept, p)
		}
	}

	return &outputFilter{prefixes: kept, logger: logger}
}

// ShouldOutput reports whether no prefix is a literal string prefix of line.
// Matching ignores path boundaries: /foo/bar excludes /foo/barn/x.
func ShouldOutput(line string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p) {
			return false
		}
	}
	return true
}

// Filter copies every surviving line of r to w in order. Lines are compared
// with trailing whitespace removed but written unchanged.
func (f *outputFilter) Filter(r io.Reader, w io.Writer) (*entities.FilterStats, error) {
	stats := &entities.FilterStats{}
	out := bufio.NewWriter(w)

	scanner := lineio.NewLineScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		stats.Read++

		if !ShouldOutput(strings.TrimRightFunc(line, unicode.IsSpace), f.prefixes) {
			stats.Excluded++
			continue
		}

		if _, err := out.WriteString(line); err != nil {
			return stats, fmt.Errorf("failed to write output: %w", err)
		}
		stats.Written++
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("failed to read file list: %w", err)
	}

	if err := out.Flush(); err != nil {
		return stats, fmt.Errorf("failed to write output: %w", err)
	}

	f.logger.Info("output list built",
		interfaces.F("read", humanize.Comma(int64(stats.Read))),
		interfaces.F("written", humanize.Comma(int64(stats.Written))),
		interfaces.F("excluded", humanize.Comma(int64(stats.Excluded))),
	)

	return stats, nil
}
