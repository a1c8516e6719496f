// Package tls provides certificate generation and the mutually-authenticated
// channel configuration used by the searchd server and client.
package tls

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"net"
	"time"
)

// CertificateConfig contains options for certificate generation.
type CertificateConfig struct {
	// Organization name for the certificate
	Organization string
	// Common name (CN) for the certificate
	CommonName string
	// Additional DNS names for the certificate
	DNSNames []string
	// Additional IP addresses for the certificate
	IPAddresses []net.IP
	// Validity duration
	ValidFor time.Duration
	// Whether this is a CA certificate
	IsCA bool
	// Whether the leaf is used for client authentication (adds the
	// ClientAuth extended key usage)
	IsClient bool
}

// DefaultCertificateConfig returns a default configuration suitable for local development.
func DefaultCertificateConfig() *CertificateConfig {
	return &CertificateConfig{
		Organization: "searchd",
		CommonName:   "localhost",
		DNSNames:     []string{"localhost"},
		IPAddresses:  []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
		ValidFor:     365 * 24 * time.Hour,
	}
}

// GeneratedCertificate contains a generated certificate and its private key.
type GeneratedCertificate struct {
	Certificate *x509.Certificate
	PrivateKey  *ecdsa.PrivateKey
	CertPEM     []byte
	KeyPEM      []byte
}

// GeneratePrivateKey generates a new ECDSA private key using the P-256 curve.
func GeneratePrivateKey() (*ecdsa.PrivateKey, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate private key: %w", err)
	}
	return key, nil
}

// CreateCertificateTemplate creates an x509 certificate template with the given config.
func CreateCertificateTemplate(cfg *CertificateConfig) (*x509.Certificate, error) {
	if cfg == nil {
		cfg = DefaultCertificateConfig()
	}

	serialNumberLimit := new(big.Int).Lsh(big.NewInt(1), 128)
	serialNumber, err := rand.Int(rand.Reader, serialNumberLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to generate serial number: %w", err)
	}

	notBefore := time.Now()
	notAfter := notBefore.Add(cfg.ValidFor)

	template := &x509.Certificate{
		SerialNumber: serialNumber,
		Subject: pkix.Name{
			Organization: []string{cfg.Organization},
			CommonName:   cfg.CommonName,
		},
		NotBefore:             notBefore,
		NotAfter:              notAfter,
		KeyUsage:              x509.KeyUsageKeyEncipherment | x509.KeyUsageDigitalSignature,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              cfg.DNSNames,
		IPAddresses:           cfg.IPAddresses,
	}

	if cfg.IsClient {
		template.ExtKeyUsage = []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth}
	}

	if cfg.IsCA {
		template.IsCA = true
		template.KeyUsage |= x509.KeyUsageCertSign
	}

	return template, nil
}

// GenerateSelfSignedCert generates a self-signed certificate with the given configuration.
func GenerateSelfSignedCert(cfg *CertificateConfig) (*GeneratedCertificate, error) {
	if cfg == nil {
		cfg = DefaultCertificateConfig()
	}

	privateKey, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	template, err := CreateCertificateTemplate(cfg)
	if err != nil {
		return nil, err
	}

	// Self-signed, so parent = template.
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &privateKey.PublicKey, privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	return assembleGenerated(certDER, privateKey)
}

// GenerateCA generates a self-signed certificate authority used to sign the
// server and client leaves of an mTLS deployment.
func GenerateCA(organization string, validFor time.Duration) (*GeneratedCertificate, error) {
	return GenerateSelfSignedCert(&CertificateConfig{
		Organization: organization,
		CommonName:   organization + " CA",
		ValidFor:     validFor,
		IsCA:         true,
	})
}

// GenerateSignedCert generates a leaf certificate signed by the given CA.
// Both endpoints of a mutually-authenticated channel carry a leaf issued
// this way, verifiable against the shared CA bundle.
func GenerateSignedCert(cfg *CertificateConfig, ca *GeneratedCertificate) (*GeneratedCertificate, error) {
	if ca == nil || ca.Certificate == nil || ca.PrivateKey == nil {
		return nil, errors.New("signing CA is incomplete")
	}
	if cfg == nil {
		cfg = DefaultCertificateConfig()
	}

	privateKey, err := GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	template, err := CreateCertificateTemplate(cfg)
	if err != nil {
		return nil, err
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, ca.Certificate, &privateKey.PublicKey, ca.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create certificate: %w", err)
	}

	return assembleGenerated(certDER, privateKey)
}

// assembleGenerated parses a freshly created DER certificate and bundles it
// with its key in PEM form.
func assembleGenerated(certDER []byte, key *ecdsa.PrivateKey) (*GeneratedCertificate, error) {
	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	certPEM := EncodeCertToPEM(certDER)
	keyPEM, err := EncodeKeyToPEM(key)
	if err != nil {
		return nil, err
	}

	return &GeneratedCertificate{
		Certificate: cert,
		PrivateKey:  key,
		CertPEM:     certPEM,
		KeyPEM:      keyPEM,
	}, nil
}

// EncodeCertToPEM encodes a DER certificate to PEM format.
func EncodeCertToPEM(certDER []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})
}

// EncodeKeyToPEM encodes an ECDSA private key to PEM format.
func EncodeKeyToPEM(key *ecdsa.PrivateKey) ([]byte, error) {
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), nil
}

// DecodeCertFromPEM decodes a PEM-encoded certificate.
func DecodeCertFromPEM(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return nil, errors.New("failed to decode PEM block")
	}
	if block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("unexpected PEM block type: %s", block.Type)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}
