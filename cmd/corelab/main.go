// Package main provides the CoreLab CLI application entry point.
// CoreLab is a local personal-relationship notebook: persons, conversation
// notes and AI-extracted memories, hosted by an event-driven core.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"corelab/internal/commands"
	"corelab/internal/config"
)

var (
	configFile string
	outputFmt  string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "corelab",
	Short: "CoreLab - persons, notes and AI memories from the command line",
	Long: `CoreLab keeps notes about the people you talk to and lets an AI provider
extract durable memories from them. Every command runs against a local SQLite
database; "corelab serve" exposes the same commands over a local HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		var ce *commands.CommandError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "Error: %s\n", ce.Error())
		} else {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/corelab/corelab.yaml)")
	flags.StringVarP(&outputFmt, "output", "o", formatText, "Output format (text|json|yaml)")
	flags.String(config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String(config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.String(config.KeyDBPath, "", "SQLite database path")
	flags.String(config.KeyProvider, "", "AI provider (openai|anthropic|gemini|ollama|mock)")

	// Bind flags to viper
	for _, key := range []string{config.KeyLogLevel, config.KeyLogFile, config.KeyDBPath, config.KeyProvider} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(
		newServeCmd(),
		newPersonCmd(),
		newNoteCmd(),
		newMemoryCmd(),
		newAICmd(),
		newAppsCmd(),
		newEventsCmd(),
		newInvokeCmd(),
		newVersionCmd(),
	)
}
