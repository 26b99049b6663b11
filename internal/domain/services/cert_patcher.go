package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/ochairo/mediaexclude/internal/domain/entities"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces/gateways"
	"github.com/ochairo/mediaexclude/internal/domain/interfaces/services"
)

// CertPatchConfig configures the optional checks run on the CA file before
// it is appended
type CertPatchConfig struct {
	SignaturePath  string
	SigningKeyPath string
	// SHA256 pins the hex digest of the CA file
	SHA256 string
}

// certPatcher implements CertPatchService
type certPatcher struct {
	store     gateways.TrustStoreGateway
	verifier  gateways.SignatureVerifier
	checksums gateways.ChecksumVerifier
	cfg       CertPatchConfig
	logger    interfaces.Logger
}

// NewCertPatcher creates a new certificate patcher. verifier is only used
// when cfg.SignaturePath is set, checksums when cfg.SHA256 is set.
func NewCertPatcher(store gateways.TrustStoreGateway, verifier gateways.SignatureVerifier, checksums gateways.ChecksumVerifier, cfg CertPatchConfig, logger interfaces.Logger) services.CertPatchService {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &certPatcher{
		store:     store,
		verifier:  verifier,
		checksums: checksums,
		cfg:       cfg,
		logger:    logger,
	}
}

// Run probes host and, on a trust failure only, appends caFile to the bundle.
// The bundle change is not rolled back if it does not fix the connection.
func (p *certPatcher) Run(ctx context.Context, host, caFile string) (*entities.PatchOutcome, error) {
	if host == "" {
		return nil, errors.New("host is required")
	}

	outcome := &entities.PatchOutcome{
		Host:       host,
		BundlePath: p.store.BundlePath(),
	}

	p.logger.Info("attempting to connect", interfaces.F("host", host))

	err := p.store.Probe(ctx, host)
	if err == nil {
		p.logger.Info("HTTPS connection worked OK", interfaces.F("host", host))
		return outcome, nil
	}

	var trustErr *gateways.TrustError
	if !errors.As(err, &trustErr) {
		return outcome, fmt.Errorf("connection to %s failed: %w", host, err)
	}

	outcome.ProbeError = err.Error()
	p.logger.Warn("SSL error", interfaces.F("host", host), interfaces.F("error", trustErr.Err))

	if caFile == "" {
		return outcome, fmt.Errorf("no CA file supplied to add: %w", err)
	}

	if p.cfg.SHA256 != "" {
		if p.checksums == nil {
			return outcome, errors.New("checksum pin given but no checksum verifier configured")
		}
		if err := p.checksums.VerifyChecksum(ctx, caFile, p.cfg.SHA256); err != nil {
			return outcome, fmt.Errorf("CA file %s: %w", caFile, err)
		}
		outcome.ChecksumChecked = true
	}

	if p.cfg.SignaturePath != "" {
		if err := p.verifySignature(caFile); err != nil {
			return outcome, err
		}
		outcome.SignatureChecked = true
	}

	p.logger.Info("adding custom certs to trusted bundle",
		interfaces.F("cafile", caFile),
		interfaces.F("bundle", outcome.BundlePath),
	)

	if err := p.store.AppendCertificate(caFile); err != nil {
		return outcome, fmt.Errorf("failed to patch %s: %w", outcome.BundlePath, err)
	}

	outcome.Patched = true
	return outcome, nil
}

func (p *certPatcher) verifySignature(caFile string) error {
	if p.verifier == nil {
		return errors.New("signature check requested but no verifier configured")
	}
	if p.cfg.SigningKeyPath == "" {
		return errors.New("signature check requires a signing key")
	}

	if err := p.verifier.ImportKeyFromFile(p.cfg.SigningKeyPath); err != nil {
		return fmt.Errorf("failed to import signing key: %w", err)
	}
	if err := p.verifier.VerifySignatureFromFile(caFile, p.cfg.SignaturePath); err != nil {
		return fmt.Errorf("CA file %s: %w", caFile, err)
	}

	p.logger.Info("CA file signature verified", interfaces.F("cafile", caFile))
	return nil
}
