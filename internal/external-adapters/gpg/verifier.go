// Package gpg provides GPG signature verification capabilities.
package gpg

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// armoredSignaturePrefix opens an ASCII-armored detached signature
const armoredSignaturePrefix = "-----BEGIN PGP SIGNATURE---"

// maxSignatureSize bounds a detached signature; real ones are well under 1KB
const maxSignatureSize = 10 * 1024

// Verifier implements detached GPG signature verification using ProtonMail's go-crypto
// A maintained, modern fork of golang.org/x/crypto/openpgp
// This is in external-adapters to isolate the external dependency
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a new GPG verifier
func NewVerifier() *Verifier {
	return &Verifier{
		keyring: make(openpgp.EntityList, 0),
	}
}

// ImportKeyFromFile imports a GPG key from an armored or binary key file
func (v *Verifier) ImportKeyFromFile(keyPath string) error {
	//nolint:gosec // G304: keyPath is user-provided for GPG key import
	f, err := os.Open(keyPath)
	if err != nil {
		return fmt.Errorf("failed to open key file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer f.Close()

	entities, err := openpgp.ReadArmoredKeyRing(f)
	if err != nil {
		// Try reading as binary
		if _, seekErr := f.Seek(0, io.SeekStart); seekErr != nil {
			return fmt.Errorf("failed to reset file: %w", seekErr)
		}
		entities, err = openpgp.ReadKeyRing(f)
		if err != nil {
			return fmt.Errorf("failed to read key: %w", err)
		}
	}

	if len(entities) == 0 {
		return errors.New("no keys found in file")
	}

	v.keyring = append(v.keyring, entities...)
	return nil
}

// VerifySignatureFromFile verifies a detached signature from a local file
func (v *Verifier) VerifySignatureFromFile(filePath, sigPath string) error {
	if len(v.keyring) == 0 {
		return errors.New("no GPG keys imported, call ImportKeyFromFile first")
	}

	//nolint:gosec // G304: sigPath is user-provided for GPG verification
	sigFile, err := os.Open(sigPath)
	if err != nil {
		return fmt.Errorf("failed to open signature file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer sigFile.Close()

	info, err := sigFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat signature file: %w", err)
	}
	if info.Size() > maxSignatureSize {
		return fmt.Errorf("signature file too large (%d bytes)", info.Size())
	}

	//nolint:gosec // G304: filePath is user-provided for GPG verification
	dataFile, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}
	//nolint:errcheck // Defer close
	defer dataFile.Close()

	sig := bufio.NewReader(sigFile)
	peek, _ := sig.Peek(len(armoredSignaturePrefix))

	if string(peek) == armoredSignaturePrefix {
		_, err = openpgp.CheckArmoredDetachedSignature(v.keyring, dataFile, sig, nil)
	} else {
		_, err = openpgp.CheckDetachedSignature(v.keyring, dataFile, sig, nil)
	}

	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}

// GetKeyringSize returns the number of keys in the keyring
func (v *Verifier) GetKeyringSize() int {
	return len(v.keyring)
}
