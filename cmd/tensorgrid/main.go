package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tensorgrid",
		Short: "Command-line client for the TensorGrid platform",
		Long: `tensorgrid talks to a TensorGrid deployment from the terminal.

It issues one-shot calls, decodes frame and model-state files, and
stages large payloads in object storage. The endpoint and credentials
come from flags or from TENSORGRID_URL and TENSORGRID_TOKEN.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		callCmd(),
		inspectCmd(),
		pushCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// baseURL resolves the endpoint from a flag value or the environment.
func baseURL(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v := os.Getenv("TENSORGRID_URL"); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no endpoint: pass --url or set TENSORGRID_URL")
}

// authToken resolves the bearer token, which may be empty.
func authToken(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv("TENSORGRID_TOKEN")
}
