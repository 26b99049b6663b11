// Command https-certifi adds a CA certificate to the trusted bundle when an
// HTTPS host cannot be verified.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/ochairo/mediaexclude/internal/domain-adapters/gateways"
	"github.com/ochairo/mediaexclude/internal/domain/services"
	"github.com/ochairo/mediaexclude/internal/external-adapters/gpg"
	"github.com/ochairo/mediaexclude/internal/external-adapters/zaplog"
)

func main() {
	fs := flag.NewFlagSet("https-certifi", flag.ExitOnError)
	var (
		host       = fs.String("host", "", "Hostname to try to connect to")
		caFile     = fs.String("cafile", "", "CA file to add if connection fails")
		bundle     = fs.String("bundle", "", "Trusted CA bundle to check and patch (default: $SSL_CERT_FILE or the system bundle)")
		sigFile    = fs.String("cafile-sig", "", "Detached GPG signature of --cafile to verify before patching")
		signingKey = fs.String("signing-key", "", "GPG public key that signed --cafile")
		caSum      = fs.String("cafile-sha256", "", "Expected SHA-256 digest of --cafile")
		timeout    = fs.Duration("timeout", 30*time.Second, "Connection timeout")
		logLevel   = fs.String("log-level", "info", "Log level: debug, info, warn or error")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: https-certifi --host <host> --cafile <pem> [options]

Try an HTTPS request to the host. If the server certificate cannot be
verified, append the CA file to the trusted bundle. The change is not
undone, re-run to check that it worked.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	if *host == "" {
		fmt.Fprintf(os.Stderr, "Error: --host is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	cfg := services.CertPatchConfig{SignaturePath: *sigFile, SigningKeyPath: *signingKey, SHA256: *caSum}
	if err := run(context.Background(), *host, *caFile, *bundle, *timeout, *logLevel, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, host, caFile, bundle string, timeout time.Duration, logLevel string, cfg services.CertPatchConfig) error {
	logger, err := zaplog.New(logLevel)
	if err != nil {
		return err
	}
	//nolint:errcheck // Best-effort flush of stderr
	defer logger.Sync()

	store, err := gateways.NewTrustStore(gateways.TrustStoreConfig{BundlePath: bundle, Timeout: timeout}, logger)
	if err != nil {
		return err
	}

	patcher := services.NewCertPatcher(store, gpg.NewVerifier(), gateways.NewChecksumVerifier(), cfg, logger)

	fmt.Printf("Attempting to connect to %s\n", host)
	outcome, err := patcher.Run(ctx, host, caFile)
	if err != nil {
		return err
	}

	if !outcome.Patched {
		fmt.Println("HTTPS connection worked OK")
		return nil
	}

	fmt.Printf("SSL error: %s\n", outcome.ProbeError)
	fmt.Printf("Added %s to %s, try re-running this program to see if it worked\n", caFile, outcome.BundlePath)
	return nil
}
