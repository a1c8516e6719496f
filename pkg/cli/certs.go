package cli

import (
	"fmt"
	"net"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	searchdtls "github.com/getsearchd/searchd/pkg/tls"
)

// certsFlags holds parsed command-line flags for the certs command.
type certsFlags struct {
	outDir       string
	organization string
	hosts        []string
	validDays    int
}

var certsFlagVals certsFlags

var certsCmd = &cobra.Command{
	Use:   "certs",
	Short: "Generate a CA plus server and client certificates for mutual TLS",
	Long: `Generate a certificate authority and two leaf certificates signed by it,
one for the server and one for clients. The server verifies client leaves
against the CA, and clients verify the server the same way, so the six files
written here are everything a mutual TLS deployment needs.`,
	Example: `  # Write ca.pem, server.pem, client.pem and their keys to ./certs
  searchd certs --out certs

  # Include extra host names in the server certificate
  searchd certs --out certs --host search.internal --host 10.0.0.5`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCerts(&certsFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(certsCmd)

	f := &certsFlagVals
	certsCmd.Flags().StringVarP(&f.outDir, "out", "o", "certs", "Output directory for the PEM files")
	certsCmd.Flags().StringVar(&f.organization, "org", "searchd", "Organization name for the certificates")
	certsCmd.Flags().StringArrayVar(&f.hosts, "host", nil, "Additional host name or IP for the server certificate (repeatable)")
	certsCmd.Flags().IntVar(&f.validDays, "valid-days", 365, "Certificate validity in days")
}

func runCerts(f *certsFlags) error {
	validFor := time.Duration(f.validDays) * 24 * time.Hour

	ca, err := searchdtls.GenerateCA(f.organization, validFor)
	if err != nil {
		return fmt.Errorf("failed to generate CA: %w", err)
	}

	serverCfg := searchdtls.DefaultCertificateConfig()
	serverCfg.Organization = f.organization
	serverCfg.ValidFor = validFor
	for _, host := range f.hosts {
		if ip := net.ParseIP(host); ip != nil {
			serverCfg.IPAddresses = append(serverCfg.IPAddresses, ip)
		} else {
			serverCfg.DNSNames = append(serverCfg.DNSNames, host)
		}
	}
	serverCert, err := searchdtls.GenerateSignedCert(serverCfg, ca)
	if err != nil {
		return fmt.Errorf("failed to generate server certificate: %w", err)
	}

	clientCert, err := searchdtls.GenerateSignedCert(&searchdtls.CertificateConfig{
		Organization: f.organization,
		CommonName:   f.organization + " client",
		ValidFor:     validFor,
		IsClient:     true,
	}, ca)
	if err != nil {
		return fmt.Errorf("failed to generate client certificate: %w", err)
	}

	pairs := []struct {
		cert     *searchdtls.GeneratedCertificate
		certName string
		keyName  string
	}{
		{ca, "ca.pem", "ca.key"},
		{serverCert, "server.pem", "server.key"},
		{clientCert, "client.pem", "client.key"},
	}
	for _, p := range pairs {
		certPath := filepath.Join(f.outDir, p.certName)
		keyPath := filepath.Join(f.outDir, p.keyName)
		if err := searchdtls.SaveCertToFiles(p.cert, certPath, keyPath); err != nil {
			return err
		}
		fmt.Printf("wrote %s, %s\n", certPath, keyPath)
	}

	fmt.Println()
	fmt.Printf("Server: searchd serve --tls-cert %[1]s/server.pem --tls-key %[1]s/server.key --tls-ca %[1]s/ca.pem ...\n", f.outDir)
	fmt.Printf("Client: searchd query --tls-cert %[1]s/client.pem --tls-key %[1]s/client.key --tls-ca %[1]s/ca.pem ...\n", f.outDir)
	return nil
}
