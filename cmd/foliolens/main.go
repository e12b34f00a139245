// Package main provides the foliolens binary entry point.
// Foliolens fetches a portfolio website, extracts its structured content,
// and serves LLM-backed analysis and grounded chat over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Register LLM providers via init()
	_ "github.com/foliolens/foliolens/llm/providers"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "foliolens"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Portfolio website analyzer",
		Long: `Foliolens fetches a portfolio website, renders it in headless
Chromium when needed, extracts owner details, skills, projects, experience,
and contact information, and produces an LLM-generated summary plus a
grounded chat API over the extracted data.`,
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(serveCmd(&logLevel))
	cmd.AddCommand(analyzeCmd(&logLevel))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	})

	return cmd
}
