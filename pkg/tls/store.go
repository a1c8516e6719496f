package tls

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// SaveCertToFiles saves a certificate and private key to PEM files.
// The key file is written with restricted permissions.
func SaveCertToFiles(cert *GeneratedCertificate, certPath, keyPath string) error {
	if cert == nil {
		return errors.New("certificate cannot be nil")
	}

	if err := os.MkdirAll(filepath.Dir(certPath), 0o755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o755); err != nil {
		return fmt.Errorf("failed to create key directory: %w", err)
	}

	if err := os.WriteFile(certPath, cert.CertPEM, 0o644); err != nil {
		return fmt.Errorf("failed to write certificate file: %w", err)
	}

	if err := os.WriteFile(keyPath, cert.KeyPEM, 0o600); err != nil {
		// Don't leave a cert without its key behind.
		_ = os.Remove(certPath)
		return fmt.Errorf("failed to write key file: %w", err)
	}

	return nil
}
