package tls

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// ChannelFactory builds mutually-authenticated TLS configurations from
// certificate, key, and CA bundle files. The same material drives both
// sides: the server requires a peer certificate verifiable against the CA,
// and the client verifies the server against the same bundle while
// presenting its own pair. There is no soft-failure mode; a handshake
// either completes mutually verified or the connection is dropped.
type ChannelFactory struct {
	cert   tls.Certificate
	caPool *x509.CertPool
}

// NewChannelFactory loads the certificate pair and CA bundle from disk.
func NewChannelFactory(certFile, keyFile, caFile string) (*ChannelFactory, error) {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate pair: %w", err)
	}

	caPEM, err := os.ReadFile(caFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA bundle %s: %w", caFile, err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to parse CA bundle %s", caFile)
	}

	return &ChannelFactory{cert: cert, caPool: pool}, nil
}

// NewChannelFactoryFromPEM builds a factory from in-memory PEM material.
// Used by tests and by deployments that inject certificates directly.
func NewChannelFactoryFromPEM(certPEM, keyPEM, caPEM []byte) (*ChannelFactory, error) {
	cert, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate pair: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to parse CA bundle")
	}

	return &ChannelFactory{cert: cert, caPool: pool}, nil
}

// Server returns the TLS configuration for the accepting side. The peer
// must present a certificate verifiable against the CA bundle or the
// handshake fails before any application data is exchanged.
func (f *ChannelFactory) Server() *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{f.cert},
		ClientAuth:   tls.RequireAndVerifyClientCert,
		ClientCAs:    f.caPool,
		MinVersion:   tls.VersionTLS12,
	}
}

// Client returns the TLS configuration for the dialing side. serverName is
// used for hostname verification against the server certificate.
func (f *ChannelFactory) Client(serverName string) *tls.Config {
	return &tls.Config{
		Certificates: []tls.Certificate{f.cert},
		RootCAs:      f.caPool,
		ServerName:   serverName,
		MinVersion:   tls.VersionTLS12,
	}
}
