package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/groupchat"
)

func newChatCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Run a round-robin group chat",
		Long: `Run a round-robin group chat among a planner, a researcher and an editor.

Examples:
  # Chat about the default prompt
  groupchat chat

  # Six turns about a custom prompt, offline
  GROUPCHAT_PROVIDER=mock groupchat chat --prompt "Plan a team offsite." --max-rounds 6`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}

			prompt := firstNonEmpty(flags.prompt, s.cfg.Prompt, groupchat.DefaultPrompt)
			maxIterations := s.cfg.MaxIterations
			if flags.maxRounds > 0 {
				maxIterations = flags.maxRounds
			}

			chat := groupchat.New(s.backend, s.options(flags, maxIterations))

			t, err := chat.Stream(cmd.Context(), prompt)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), cmd.ErrOrStderr(), t, s.formatter)
		},
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
