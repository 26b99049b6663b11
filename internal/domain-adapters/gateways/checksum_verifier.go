package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// checksumVerifier pins local files to a SHA-256 digest
type checksumVerifier struct{}

// NewChecksumVerifier creates a new checksum verifier
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewChecksumVerifier() *checksumVerifier {
	return &checksumVerifier{}
}

// VerifyChecksum compares the file digest with expectedSum. The expected
// value may be upper case or colon-separated, as openssl prints it.
func (v *checksumVerifier) VerifyChecksum(ctx context.Context, filePath, expectedSum string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	actualSum, err := v.CalculateChecksum(filePath)
	if err != nil {
		return err
	}

	expected := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(expectedSum), ":", ""))
	if actualSum != expected {
		return fmt.Errorf("checksum mismatch: expected %s, got %s", expected, actualSum)
	}

	return nil
}

// CalculateChecksum returns the hex SHA-256 digest of a file
func (v *checksumVerifier) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is the operator-provided CA file
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
