package main

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/groupchat"
	"github.com/hupe1980/groupchat/core"
)

func newQuickstartCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "quickstart",
		Short: "Ask a single assistant one question",
		Long: `Ask a single assistant one question.

The assistant named by AZURE_OPENAI_ASSISTANT_ID is used when set and is never
deleted. Otherwise a temporary assistant is created for the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, flags)
			if err != nil {
				return err
			}

			chat := groupchat.New(s.backend, s.options(flags, 1))

			var existing *core.AgentHandle
			if s.cfg.AssistantID != "" {
				h, err := chat.Retrieve(cmd.Context(), s.cfg.AssistantID)
				if err != nil {
					return err
				}
				existing = &h
			}

			t, err := chat.Quickstart(cmd.Context(), firstNonEmpty(flags.prompt, groupchat.QuickstartPrompt), existing)
			if err != nil {
				return err
			}

			return render(cmd.OutOrStdout(), cmd.ErrOrStderr(), t, s.formatter)
		},
	}
}
