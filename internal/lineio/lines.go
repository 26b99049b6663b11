// Package lineio splits inventory files into lines with any newline convention.
package lineio

import (
	"bufio"
	"bytes"
	"io"
)

// maxLineSize bounds a single line of an inventory file
const maxLineSize = 16 * 1024 * 1024

// ScanUniversalLines is a bufio.SplitFunc that accepts \n, \r\n and bare \r
// line endings. Each terminated token ends in a single \n; an unterminated
// final line is returned as is.
func ScanUniversalLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	i := bytes.IndexAny(data, "\r\n")
	if i < 0 {
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}

	if data[i] == '\n' {
		return i + 1, data[:i+1], nil
	}

	// Bare \r at the end of the buffer: wait to see whether \n follows.
	if i+1 == len(data) && !atEOF {
		return 0, nil, nil
	}

	line := make([]byte, i+1)
	copy(line, data[:i])
	line[i] = '\n'

	if i+1 < len(data) && data[i+1] == '\n' {
		return i + 2, line, nil
	}
	return i + 1, line, nil
}

// NewLineScanner returns a scanner over r using ScanUniversalLines
func NewLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(ScanUniversalLines)
	return scanner
}
