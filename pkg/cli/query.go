package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getsearchd/searchd/pkg/client"
	searchdtls "github.com/getsearchd/searchd/pkg/tls"
)

// queryFlags holds parsed command-line flags for the query command.
type queryFlags struct {
	host    string
	port    int
	timeout int

	tlsCert string
	tlsKey  string
	tlsCA   string
}

var queryFlagVals queryFlags

var queryCmd = &cobra.Command{
	Use:   "query [string]",
	Short: "Send a search query to a running server",
	Long: `Send one search query and print the verdict. With no argument the
command reads queries from stdin, one per line, over a single connection
until EOF or the server disconnects the idle session.`,
	Example: `  # Single query
  searchd query "6;0;1;26;0;7;3;0;" --port 44445

  # Interactive session
  searchd query --host search.internal --port 44445

  # Against a TLS server
  searchd query hello --tls-cert client.pem --tls-key client.key --tls-ca ca.pem`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(&queryFlagVals, args)
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)

	f := &queryFlagVals
	queryCmd.Flags().StringVar(&f.host, "host", "127.0.0.1", "Server host")
	queryCmd.Flags().IntVarP(&f.port, "port", "p", 44445, "Server port")
	queryCmd.Flags().IntVar(&f.timeout, "timeout", 10, "Round-trip timeout in seconds")
	queryCmd.Flags().StringVar(&f.tlsCert, "tls-cert", "", "Path to client certificate (PEM)")
	queryCmd.Flags().StringVar(&f.tlsKey, "tls-key", "", "Path to client private key (PEM)")
	queryCmd.Flags().StringVar(&f.tlsCA, "tls-ca", "", "Path to CA certificate used to verify the server (PEM)")
}

func runQuery(f *queryFlags, args []string) error {
	opts, err := clientOptions(f.host, f.port, f.timeout, f.tlsCert, f.tlsKey, f.tlsCA)
	if err != nil {
		return err
	}

	c, err := client.Dial(*opts)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if len(args) == 1 {
		return queryOnce(c, args[0])
	}
	return queryInteractive(c)
}

func queryOnce(c *client.Client, query string) error {
	resp, err := c.Query(query)
	if err != nil {
		return err
	}
	fmt.Println(resp.Result)
	if resp.Diagnostic != "" {
		fmt.Fprintln(os.Stderr, resp.Diagnostic)
	}
	return nil
}

func queryInteractive(c *client.Client) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		resp, err := c.Query(line)
		if errors.Is(err, client.ErrServerTimeout) {
			fmt.Fprintln(os.Stderr, "server closed the session for inactivity")
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Println(resp.Result)
	}
	return scanner.Err()
}

// clientOptions builds client.Options, wiring up mutual TLS when all three
// certificate paths are given.
func clientOptions(host string, port, timeoutSec int, certFile, keyFile, caFile string) (*client.Options, error) {
	opts := &client.Options{
		Host:    host,
		Port:    port,
		Timeout: time.Duration(timeoutSec) * time.Second,
	}
	if certFile == "" && keyFile == "" && caFile == "" {
		return opts, nil
	}
	if certFile == "" || keyFile == "" || caFile == "" {
		return nil, fmt.Errorf("--tls-cert, --tls-key, and --tls-ca must all be provided to enable TLS")
	}
	factory, err := searchdtls.NewChannelFactory(certFile, keyFile, caFile)
	if err != nil {
		return nil, err
	}
	opts.ChannelFactory = factory
	return opts, nil
}
