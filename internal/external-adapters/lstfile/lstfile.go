// Package lstfile reads and writes newline-delimited path lists.
package lstfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ochairo/mediaexclude/internal/lineio"
)

// ErrUndecodable reports a byte sequence the file list encoding does not define
var ErrUndecodable = errors.New("undecodable byte sequence")

// LookupEncoding resolves a character set name such as latin1, mac or utf-8.
// IANA names and aliases are tried first, then WHATWG labels.
func LookupEncoding(name string) (encoding.Encoding, error) {
	if enc, err := ianaindex.IANA.Encoding(name); err == nil && enc != nil {
		return enc, nil
	}
	if enc, err := htmlindex.Get(name); err == nil {
		return enc, nil
	}
	return nil, fmt.Errorf("unsupported character encoding %q", name)
}

// ReadExclusionList reads one prefix per line, dropping empty lines.
// Other whitespace is kept as part of the prefix.
func ReadExclusionList(filePath string) ([]string, error) {
	//nolint:gosec // G304: filePath is the operator-provided exclusion list
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open exclusion list: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read exclusion list %s: %w", filePath, err)
	}

	return lo.Filter(lines, func(line string, _ int) bool {
		return len(line) > 0
	}), nil
}

// OpenEncoded opens a text file and decodes it to UTF-8. Reads fail on
// bytes the encoding cannot decode instead of substituting U+FFFD.
func OpenEncoded(filePath, charset string) (io.ReadCloser, error) {
	enc, err := LookupEncoding(charset)
	if err != nil {
		return nil, err
	}

	//nolint:gosec // G304: filePath is the operator-provided file list
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file list: %w", err)
	}

	return &decodedFile{
		Reader: transform.NewReader(f, strictDecoder(enc, charset)),
		file:   f,
	}, nil
}

// strictDecoder validates UTF-8 input as is. Other encodings cannot carry
// U+FFFD themselves, so any U+FFFD in their output marks an undefined byte.
// UTF-16 and UTF-32 are decoded leniently.
func strictDecoder(enc encoding.Encoding, charset string) transform.Transformer {
	name, _ := ianaindex.IANA.Name(enc)
	switch {
	case enc == unicode.UTF8 || name == "UTF-8":
		return transform.Chain(encoding.UTF8Validator, enc.NewDecoder())
	case strings.HasPrefix(name, "UTF-"):
		return enc.NewDecoder()
	}
	return transform.Chain(enc.NewDecoder(), &rejectReplacement{charset: charset})
}

// rejectReplacement copies UTF-8 through and fails on U+FFFD
type rejectReplacement struct {
	charset string
	offset  int64
}

func (r *rejectReplacement) Reset() {
	r.offset = 0
}

func (r *rejectReplacement) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		c, size := utf8.DecodeRune(src[nSrc:])
		if c == utf8.RuneError {
			return nDst, nSrc, fmt.Errorf("%w for %s near decoded byte %d", ErrUndecodable, r.charset, r.offset)
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}

		nDst += copy(dst[nDst:], src[nSrc:nSrc+size])
		nSrc += size
		r.offset += int64(size)
	}
	return nDst, nSrc, nil
}

// WriteLines writes each entry followed by a newline
func WriteLines(w io.Writer, lines []string) error {
	out := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := out.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return out.Flush()
}

// WriteFile writes lines to filePath, or to stdout when filePath is "-"
func WriteFile(filePath string, lines []string) error {
	if filePath == "-" {
		return WriteLines(os.Stdout, lines)
	}

	//nolint:gosec // G304: filePath is the operator-provided output path
	f, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filePath, err)
	}

	if err := WriteLines(f, lines); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", filePath, err)
	}
	return f.Close()
}

func readLines(r io.Reader) ([]string, error) {
	lines := make([]string, 0)

	scanner := lineio.NewLineScanner(r)
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\n"))
	}
	return lines, scanner.Err()
}

// decodedFile closes the underlying file of a decoding reader
type decodedFile struct {
	io.Reader
	file *os.File
}

func (d *decodedFile) Close() error {
	return d.file.Close()
}
