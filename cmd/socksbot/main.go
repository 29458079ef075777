// Package main provides the CLI entry point for the socksbot Discord bot.
//
// Socksbot forwards chat messages from Discord slash commands to
// OpenAI-compatible completion providers, keeping a token-bounded rolling
// conversation per provider.
//
// # Basic Usage
//
// Start the bot:
//
//	socksbot serve --config socksbot.yaml
//
// # Environment Variables
//
// The config file may reference environment variables, e.g.:
//
//   - DISCORD_BOT_TOKEN: Discord bot token
//   - OPENAI_API_KEY: OpenAI API key
//   - MISTRAL_API_KEY: Mistral API key
//   - CMC_API_KEY: CoinMarketCap API key for the price command
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "socksbot",
		Short: "Socksbot - Discord chat relay for OpenAI-compatible providers",
		Long: `Socksbot relays Discord slash commands to completion providers that speak
the OpenAI chat completion wire format, keeping a bounded rolling
conversation history per provider.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		buildServeCmd(),
		buildVersionCmd(),
	)
	return rootCmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "socksbot %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}
