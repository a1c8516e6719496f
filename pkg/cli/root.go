// Package cli implements the searchd command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is injected during build
	Version = "dev"
	// Commit is injected during build
	Commit = "none"
	// BuildDate is injected during build
	BuildDate = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "searchd",
	Short: "searchd is a TCP line-search server",
	Long: `searchd serves exact full-line searches over a text file to TCP clients.

A client sends a query string and receives STRING EXISTS or STRING NOT FOUND,
followed by a diagnostic line. Seven search strategies are available, mutual
TLS secures the transport, and idle sessions are disconnected after a
configurable timeout.`,
	SilenceUsage:  true,
	SilenceErrors: true, // We handle errors in Execute()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
