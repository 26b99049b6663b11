package gateways

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
	domaingateways "github.com/ochairo/mediaexclude/internal/domain/interfaces/gateways"
)

// wellKnownBundles lists system CA bundle locations, most common first
var wellKnownBundles = []string{
	"/etc/ssl/certs/ca-certificates.crt",                // Debian/Ubuntu/Gentoo
	"/etc/pki/tls/certs/ca-bundle.crt",                  // Fedora/RHEL 6
	"/etc/ssl/ca-bundle.pem",                            // OpenSUSE
	"/etc/pki/ca-trust/extracted/pem/tls-ca-bundle.pem", // CentOS/RHEL 7
	"/etc/ssl/cert.pem",                                 // Alpine, macOS
}

// TrustStoreConfig configures the trust store gateway
type TrustStoreConfig struct {
	// BundlePath overrides bundle discovery
	BundlePath string
	Timeout    time.Duration
}

// trustStore implements TrustStoreGateway against a PEM bundle file
type trustStore struct {
	bundlePath string
	timeout    time.Duration
	logger     interfaces.Logger
}

// DefaultBundlePath returns $SSL_CERT_FILE or the first existing system bundle
func DefaultBundlePath() string {
	if path := os.Getenv("SSL_CERT_FILE"); path != "" {
		return path
	}

	for _, path := range wellKnownBundles {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// NewTrustStore creates a trust store gateway for the configured or discovered bundle
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewTrustStore(cfg TrustStoreConfig, logger interfaces.Logger) (*trustStore, error) {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	bundle := cfg.BundlePath
	if bundle == "" {
		bundle = DefaultBundlePath()
	}
	if bundle == "" {
		return nil, errors.New("no CA bundle found, set --bundle or SSL_CERT_FILE")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &trustStore{
		bundlePath: bundle,
		timeout:    timeout,
		logger:     logger,
	}, nil
}

// BundlePath returns the bundle file being probed with and patched
func (s *trustStore) BundlePath() string {
	return s.bundlePath
}

// Probe connects to https://host trusting only the bundle's certificates
func (s *trustStore) Probe(ctx context.Context, host string) error {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{
		RootCAs:    s.rootPool(),
		MinVersion: tls.VersionTLS12,
	}
	client := &http.Client{Timeout: s.timeout, Transport: transport}
	defer client.CloseIdleConnections()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://"+host, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if IsTrustError(err) {
			return &domaingateways.TrustError{Host: host, Err: err}
		}
		return err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	s.logger.Debug("probe response", interfaces.F("host", host), interfaces.F("status", resp.StatusCode))
	return nil
}

// rootPool loads the bundle, falling back to the system pool
func (s *trustStore) rootPool() *x509.CertPool {
	//nolint:gosec // G304: bundle path is operator-provided
	data, err := os.ReadFile(s.bundlePath)
	if err == nil {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM(data) {
			return pool
		}
	}

	s.logger.Warn("bundle unreadable, probing with system roots", interfaces.F("bundle", s.bundlePath))
	return nil
}

// AppendCertificate appends the raw bytes of caFile to the bundle after
// checking that it holds at least one certificate
func (s *trustStore) AppendCertificate(caFile string) error {
	//nolint:gosec // G304: CA file path is operator-provided
	data, err := os.ReadFile(caFile)
	if err != nil {
		return fmt.Errorf("failed to read CA file: %w", err)
	}

	certs, err := parsePEMCertificates(data)
	if err != nil {
		return fmt.Errorf("invalid CA file %s: %w", caFile, err)
	}

	needsNewline, err := missingTrailingNewline(s.bundlePath)
	if err != nil {
		return err
	}

	//nolint:gosec // G302/G304: appending to an existing bundle keeps its mode
	f, err := os.OpenFile(s.bundlePath, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open bundle: %w", err)
	}

	if needsNewline {
		data = append([]byte("\n"), data...)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to bundle: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close bundle: %w", err)
	}

	for _, cert := range certs {
		s.logger.Info("certificate added",
			interfaces.F("subject", cert.Subject.String()),
			interfaces.F("bundle", s.bundlePath),
		)
	}
	return nil
}

// IsTrustError reports whether err is a certificate validation failure
func IsTrustError(err error) bool {
	var unknownAuthority x509.UnknownAuthorityError
	var invalid x509.CertificateInvalidError
	var hostname x509.HostnameError
	var verification *tls.CertificateVerificationError

	return errors.As(err, &unknownAuthority) ||
		errors.As(err, &invalid) ||
		errors.As(err, &hostname) ||
		errors.As(err, &verification)
}

func parsePEMCertificates(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate

	for rest := data; ; {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}

		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	if len(certs) == 0 {
		return nil, errors.New("no PEM certificates found")
	}
	return certs, nil
}

func missingTrailingNewline(path string) (bool, error) {
	//nolint:gosec // G304: bundle path is operator-provided
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("failed to open bundle: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return false, fmt.Errorf("failed to stat bundle: %w", err)
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, fmt.Errorf("failed to read bundle: %w", err)
	}
	return last[0] != '\n', nil
}
