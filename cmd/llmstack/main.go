package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot creates the root command and wires all subcommands.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	upFlags := &UpFlags{}
	statusFlags := &StatusFlags{}
	chatFlags := &ChatFlags{}
	serveFlags := &ServeFlags{}
	historyFlags := &HistoryFlags{}

	cmd := command{flags: globalFlags}

	root := createRootCommand(globalFlags)
	root.AddCommand(
		createUpCommand(cmd, upFlags),
		createStatusCommand(cmd, statusFlags),
		createChatCommand(cmd, chatFlags),
		createServeCommand(cmd, serveFlags),
		createHistoryCommand(cmd, historyFlags),
	)
	return root
}

// createRootCommand creates the root command with minimal persistent flags
func createRootCommand(flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "llmstack",
		Short: "Local LLM stack launcher and chat frontend",
		Long: `Llmstack brings up and health-checks the local services an
Ollama-based chat stack depends on (Redis, Ollama, the web UI), then lets
you chat against the models with Redis-backed conversation history.

Examples:
  llmstack up                        # ensure redis/ollama/webui are ready
  llmstack status                    # probe without starting anything
  llmstack chat --model llama3:8b    # chat REPL with history
  llmstack serve                     # HTTP API for the stack`,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "info", "log level: debug, info, warn, error")

	return root
}

func createUpCommand(cmd command, flags *UpFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "up",
		Short: "Start and health-check all declared services",
		Long: `Probe every declared service and start the ones that are not
ready, polling each with its configured retry budget. Exits non-zero when a
required service never became ready.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Up(*flags)
		},
	}
	c.Flags().DurationVar(&flags.Timeout, "timeout", 5*time.Minute, "overall deadline for the launch")
	return c
}

func createStatusCommand(cmd command, flags *StatusFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "status",
		Short: "Probe declared services without starting anything",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Status(*flags)
		},
	}
	c.Flags().StringVar(&flags.APIUrl, "api-url", "", "query a running daemon instead of probing locally (e.g. http://127.0.0.1:8080/api)")
	c.Flags().DurationVar(&flags.APITimeout, "api-timeout", 10*time.Second, "request timeout")
	return c
}

func createChatCommand(cmd command, flags *ChatFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat against a local Ollama model",
		Long: `Start a chat REPL. Conversation history is kept per user in
Redis, so context carries across turns and across sessions.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Chat(*flags)
		},
	}
	c.Flags().StringVar(&flags.User, "user", "default", "history key for this conversation")
	c.Flags().StringVar(&flags.Model, "model", "", "model name (defaults to the first installed model)")
	c.Flags().Float64Var(&flags.Temperature, "temperature", 0.7, "sampling temperature")
	c.Flags().Float64Var(&flags.TopP, "top-p", 0.9, "nucleus sampling cutoff")
	c.Flags().IntVar(&flags.MaxTokens, "max-tokens", 512, "maximum tokens to generate per reply")
	return c
}

func createServeCommand(cmd command, flags *ServeFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API for the stack",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Serve(*flags)
		},
	}
	c.Flags().StringVar(&flags.Addr, "addr", "", "listen address (overrides config)")
	return c
}

func createHistoryCommand(cmd command, flags *HistoryFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "history",
		Short: "Show launch reports from past runs",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.History(*flags)
		},
	}
	c.Flags().IntVar(&flags.Limit, "limit", 20, "maximum records to show")
	return c
}
