package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/getsearchd/searchd/pkg/config"
	"github.com/getsearchd/searchd/pkg/logging"
	"github.com/getsearchd/searchd/pkg/search"
	"github.com/getsearchd/searchd/pkg/server"
)

// serveFlags holds all parsed command-line flags for the serve command.
type serveFlags struct {
	configFile     string
	port           int
	filePath       string
	algorithm      string
	reread         bool
	idleTimeout    int
	maxConnections int

	tlsCert string
	tlsKey  string
	tlsCA   string

	metricsPort int

	logLevel  string
	logFormat string
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the search server (foreground)",
	Long: `Start the search server. Configuration is read from a YAML file when
--config is given; any flag set on the command line overrides the file.

The server listens on a plain TCP port unless all three TLS flags (or the
equivalent config file entries) are present, in which case clients must
complete a mutual TLS handshake before querying.`,
	Example: `  # Serve a data file with defaults
  searchd serve --file /var/lib/searchd/200k.txt

  # Serve from a config file, overriding the port
  searchd serve --config searchd.yaml --port 5000

  # Reread the file on every query so live edits are visible
  searchd serve --file data.txt --reread

  # Mutual TLS
  searchd serve --file data.txt --tls-cert server.pem --tls-key server.key --tls-ca ca.pem

  # Expose Prometheus metrics on :9090
  searchd serve --file data.txt --metrics-port 9090`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, &serveFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	registerServeFlags(serveCmd, &serveFlagVals)
}

func registerServeFlags(cmd *cobra.Command, f *serveFlags) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Path to YAML configuration file")
	cmd.Flags().IntVarP(&f.port, "port", "p", config.DefaultPort, "TCP port to listen on")
	cmd.Flags().StringVarP(&f.filePath, "file", "f", "", "Path to the text file to search")
	cmd.Flags().StringVarP(&f.algorithm, "algorithm", "a", config.DefaultAlgorithm,
		fmt.Sprintf("Search strategy (%v)", search.Names()))
	cmd.Flags().BoolVar(&f.reread, "reread", false, "Reread the file on every query")
	cmd.Flags().IntVar(&f.idleTimeout, "idle-timeout", config.DefaultIdleTimeout, "Session idle timeout in seconds")
	cmd.Flags().IntVar(&f.maxConnections, "max-connections", 0, "Maximum concurrent sessions (0 = unlimited)")

	cmd.Flags().StringVar(&f.tlsCert, "tls-cert", "", "Path to server certificate (PEM)")
	cmd.Flags().StringVar(&f.tlsKey, "tls-key", "", "Path to server private key (PEM)")
	cmd.Flags().StringVar(&f.tlsCA, "tls-ca", "", "Path to CA certificate used to verify clients (PEM)")

	cmd.Flags().IntVar(&f.metricsPort, "metrics-port", 0, "Prometheus /metrics HTTP port (0 = disabled)")

	cmd.Flags().StringVar(&f.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "text", "Log format (text, json)")
}

// runServe is the core serve logic called by the cobra command.
func runServe(cmd *cobra.Command, f *serveFlags) error {
	cfg, err := buildServerConfig(cmd, f)
	if err != nil {
		return err
	}

	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(f.logLevel),
		Format: logging.ParseFormat(f.logFormat),
	})

	srv, err := server.New(cfg, server.WithLogger(log))
	if err != nil {
		return err
	}
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	printServeStartupMessage(cfg)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	fmt.Println("\nShutting down...")

	if err := srv.Stop(); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	fmt.Println("Server stopped")
	return nil
}

// buildServerConfig merges the config file (if any) with flag overrides.
// A flag only overrides the file when it was set on the command line.
func buildServerConfig(cmd *cobra.Command, f *serveFlags) (*config.ServerConfig, error) {
	var cfg *config.ServerConfig
	if f.configFile != "" {
		loaded, err := config.LoadFromFile(f.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.DefaultServerConfig()
	}

	flags := cmd.Flags()
	if flags.Changed("port") {
		cfg.Port = f.port
	}
	if flags.Changed("file") {
		cfg.FilePath = f.filePath
	}
	if flags.Changed("algorithm") {
		cfg.Algorithm = f.algorithm
	}
	if flags.Changed("reread") {
		cfg.RereadOnQuery = f.reread
	}
	if flags.Changed("idle-timeout") {
		cfg.IdleTimeout = f.idleTimeout
	}
	if flags.Changed("max-connections") {
		cfg.MaxConnections = f.maxConnections
	}

	if f.tlsCert != "" || f.tlsKey != "" || f.tlsCA != "" {
		if f.tlsCert == "" || f.tlsKey == "" || f.tlsCA == "" {
			return nil, fmt.Errorf("--tls-cert, --tls-key, and --tls-ca must all be provided to enable TLS")
		}
		cfg.TLS = &config.TLSConfig{
			Enabled:  true,
			CertFile: f.tlsCert,
			KeyFile:  f.tlsKey,
			CAFile:   f.tlsCA,
		}
	}

	if flags.Changed("metrics-port") && f.metricsPort > 0 {
		cfg.Metrics = &config.MetricsConfig{Enabled: true, Port: f.metricsPort}
	}

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// printServeStartupMessage prints the server startup information.
func printServeStartupMessage(cfg *config.ServerConfig) {
	transport := "tcp"
	if cfg.TLSEnabled() {
		transport = "tcp+mtls"
	}
	fmt.Printf("searchd started on port %d (%s)\n", cfg.Port, transport)
	fmt.Println()
	fmt.Printf("  File:      %s\n", cfg.FilePath)
	fmt.Printf("  Algorithm: %s\n", cfg.Algorithm)
	fmt.Printf("  Reread:    %t\n", cfg.RereadOnQuery)
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		fmt.Printf("  Metrics:   http://localhost:%d/metrics\n", cfg.Metrics.Port)
	}
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")
}
