// Package main implements the groupchat CLI: a round-robin conversation
// among planner, researcher and editor assistants, and a single-assistant
// quickstart.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var version = "dev"

// rootFlags are shared by all subcommands.
type rootFlags struct {
	prompt    string
	maxRounds int
	keep      bool
	envFile   string
	noColor   bool
	logLevel  string
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "groupchat",
		Short: "Multi-agent group chat over hosted assistants",
		Long: `groupchat runs a short, bounded conversation among several assistants
and prints the transcript. Assistants created for a run are deleted when it
ends, also when it is interrupted with Ctrl+C.

Configuration is read from a .env file and the environment:
  GROUPCHAT_PROVIDER                 azure (default), openai, anthropic or mock
  AZURE_OPENAI_ENDPOINT              Azure OpenAI resource endpoint
  AZURE_OPENAI_API_KEY               Azure OpenAI key
  AZURE_OPENAI_CHAT_DEPLOYMENT_NAME  deployment used to create assistants
  AZURE_OPENAI_API_VERSION           API version (default 2024-12-01-preview)
  AZURE_OPENAI_ASSISTANT_ID          existing assistant for quickstart
  AZURE_OPENAI_KEEP_ASSISTANT        keep created assistants (true, 1, yes)
  OPENAI_API_KEY, OPENAI_MODEL       OpenAI provider
  ANTHROPIC_API_KEY, ANTHROPIC_MODEL Anthropic provider
  GROUPCHAT_MAX_ITERATIONS           agent turns per chat (default 4)
  GROUPCHAT_PROMPT                   prompt for the chat command`,
		Version:       version,
		SilenceUsage:  true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&flags.prompt, "prompt", "p", "", "prompt that seeds the conversation")
	pf.IntVar(&flags.maxRounds, "max-rounds", 0, "number of agent turns (overrides GROUPCHAT_MAX_ITERATIONS)")
	pf.BoolVar(&flags.keep, "keep", false, "keep created assistants after the run")
	pf.StringVar(&flags.envFile, "env-file", ".env", "path to a .env file")
	pf.BoolVar(&flags.noColor, "no-color", false, "disable coloured output")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newChatCmd(flags))
	cmd.AddCommand(newQuickstartCmd(flags))

	return cmd
}
