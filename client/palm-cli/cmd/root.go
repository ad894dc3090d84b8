package cmd

import (
	"fmt"
	"os"
	"time"

	"palm-rag/internal/config"

	"github.com/spf13/cobra"
)

var (
	serverURL string
	timeout   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "palm-cli",
	Short: "A CLI client for the palm-rag document and chat service",
	Long:  `A command-line interface for ingesting documents, chatting with them and managing interview bookings.`,
	// usage is only useful for argument errors
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Whoops. There was an error while executing your CLI: %s\n", err)
		os.Exit(1)
	}
}

func init() {
	def := os.Getenv("PALM_SERVER")
	if def == "" {
		def = "http://" + config.ServerConfig{Host: "localhost", Port: config.Default().Server.Port}.Address()
	}
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", def, "base URL of the palm-rag service (env PALM_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "request timeout")
}
