package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/getsearchd/searchd/pkg/bench"
)

// benchFlags holds parsed command-line flags for the bench command.
type benchFlags struct {
	host    string
	port    int
	timeout int

	tlsCert string
	tlsKey  string
	tlsCA   string

	query    string
	workers  int
	requests int
	csvPath  string
}

var benchFlagVals benchFlags

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Load-test a running server and report latency statistics",
	Long: `Open concurrent sessions against a running server, send the same query
repeatedly from each, and report latency statistics. Raw per-request samples
can be written as CSV with --csv for offline analysis.`,
	Example: `  # 10 workers, 100 requests each
  searchd bench --port 44445 --query "3;0;1;28;0;7;5;0;" --workers 10 --requests 100

  # Write raw samples for plotting
  searchd bench --query hello --workers 4 --requests 50 --csv samples.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBench(&benchFlagVals)
	},
}

func init() {
	rootCmd.AddCommand(benchCmd)

	f := &benchFlagVals
	benchCmd.Flags().StringVar(&f.host, "host", "127.0.0.1", "Server host")
	benchCmd.Flags().IntVarP(&f.port, "port", "p", 44445, "Server port")
	benchCmd.Flags().IntVar(&f.timeout, "timeout", 10, "Round-trip timeout in seconds")
	benchCmd.Flags().StringVar(&f.tlsCert, "tls-cert", "", "Path to client certificate (PEM)")
	benchCmd.Flags().StringVar(&f.tlsKey, "tls-key", "", "Path to client private key (PEM)")
	benchCmd.Flags().StringVar(&f.tlsCA, "tls-ca", "", "Path to CA certificate used to verify the server (PEM)")

	benchCmd.Flags().StringVarP(&f.query, "query", "q", "", "Query string sent on every request")
	benchCmd.Flags().IntVarP(&f.workers, "workers", "w", 10, "Number of concurrent sessions")
	benchCmd.Flags().IntVarP(&f.requests, "requests", "n", 100, "Requests per session")
	benchCmd.Flags().StringVar(&f.csvPath, "csv", "", "Write raw samples to this CSV file")

	_ = benchCmd.MarkFlagRequired("query")
}

func runBench(f *benchFlags) error {
	opts, err := clientOptions(f.host, f.port, f.timeout, f.tlsCert, f.tlsKey, f.tlsCA)
	if err != nil {
		return err
	}

	samples, summary, err := bench.Run(bench.Options{
		Client:   *opts,
		Query:    f.query,
		Workers:  f.workers,
		Requests: f.requests,
	})
	if err != nil {
		return err
	}

	if f.csvPath != "" {
		out, err := os.Create(f.csvPath)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer func() { _ = out.Close() }()
		if err := bench.WriteCSV(out, samples); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
	}

	fmt.Printf("%d requests in %s (%d workers)\n", summary.Total, summary.Duration.Round(time.Millisecond), f.workers)
	if summary.Failed > 0 {
		fmt.Printf("  failed: %d\n", summary.Failed)
	}
	fmt.Printf("  min:  %s\n", summary.Min)
	fmt.Printf("  mean: %s\n", summary.Mean)
	fmt.Printf("  p99:  %s\n", summary.P99)
	fmt.Printf("  max:  %s\n", summary.Max)
	return nil
}
