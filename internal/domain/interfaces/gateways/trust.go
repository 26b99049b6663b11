package gateways

import "context"

// TrustStoreGateway probes HTTPS hosts and patches the trusted CA bundle
type TrustStoreGateway interface {
	// Probe issues a GET to https://host. It returns a *TrustError when the
	// failure is a certificate validation problem.
	Probe(ctx context.Context, host string) error

	// AppendCertificate appends the PEM file at caFile to the bundle
	AppendCertificate(caFile string) error

	// BundlePath is the bundle being probed with and patched
	BundlePath() string
}

// SignatureVerifier checks detached OpenPGP signatures of local files
type SignatureVerifier interface {
	ImportKeyFromFile(keyPath string) error
	VerifySignatureFromFile(filePath, sigPath string) error
}

// ChecksumVerifier checks a local file against a pinned SHA-256 digest
type ChecksumVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}

// TrustError wraps a TLS certificate validation failure
type TrustError struct {
	Host string
	Err  error
}

func (e *TrustError) Error() string {
	return "TLS trust failure for " + e.Host + ": " + e.Err.Error()
}

func (e *TrustError) Unwrap() error {
	return e.Err
}
