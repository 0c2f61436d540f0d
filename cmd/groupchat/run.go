package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/openai/openai-go/option"
	"github.com/spf13/cobra"

	"github.com/hupe1980/groupchat"
	"github.com/hupe1980/groupchat/backend"
	anthropicbe "github.com/hupe1980/groupchat/backend/anthropic"
	openaibe "github.com/hupe1980/groupchat/backend/openai"
	"github.com/hupe1980/groupchat/config"
	"github.com/hupe1980/groupchat/core"
	"github.com/hupe1980/groupchat/engine"
	"github.com/hupe1980/groupchat/logging"
	"github.com/hupe1980/groupchat/present"
)

// session bundles everything a subcommand needs.
type session struct {
	cfg       *config.Config
	logger    *logging.RunLogger
	backend   backend.Backend
	model     string
	formatter *present.Formatter
}

func newSession(cmd *cobra.Command, flags *rootFlags) (*session, error) {
	cfg, err := config.Load(flags.envFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	levelName := flags.logLevel
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		levelName = cfg.LogLevel
	}
	level, ok := logging.ParseLevel(levelName)
	if !ok {
		return nil, core.NewConfigurationError("log-level", fmt.Sprintf("unknown level %q", levelName))
	}

	logger := logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    "text",
		Output:    cmd.ErrOrStderr(),
		Component: "groupchat",
	})

	be, model := newBackend(cfg, logger)

	color := !flags.noColor
	if f, ok := cmd.OutOrStdout().(*os.File); ok {
		color = color && present.SupportsColor(os.LookupEnv, f.Fd())
	} else {
		color = false
	}

	return &session{
		cfg:       cfg,
		logger:    logger,
		backend:   be,
		model:     model,
		formatter: present.NewFormatter(func(o *present.Options) { o.Color = color }),
	}, nil
}

// newBackend builds the backend of the configured provider and returns it
// together with the model used to create agents.
func newBackend(cfg *config.Config, logger logging.Logger) (backend.Backend, string) {
	switch cfg.Provider {
	case config.ProviderAzure:
		return openaibe.NewAzureBackend(cfg.AzureEndpoint, cfg.AzureAPIKey, cfg.AzureAPIVersion, func(o *openaibe.Options) {
			o.Namespace = cfg.Namespace
			o.Logger = logger
		}), cfg.Model()
	case config.ProviderOpenAI:
		reqOpts := []option.RequestOption{option.WithAPIKey(cfg.OpenAIAPIKey)}
		if cfg.OpenAIBaseURL != "" {
			reqOpts = append(reqOpts, option.WithBaseURL(cfg.OpenAIBaseURL))
		}
		return openaibe.NewBackend(reqOpts, func(o *openaibe.Options) {
			o.Namespace = cfg.Namespace
			o.Logger = logger
		}), cfg.Model()
	case config.ProviderAnthropic:
		model := cfg.Model()
		if model == "" {
			model = string(anthropicbe.DefaultModel)
		}
		return anthropicbe.NewBackend(func(o *anthropicbe.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			o.Namespace = cfg.Namespace
		}), model
	default:
		return backend.NewMockBackend(cfg.Namespace), cfg.Model()
	}
}

func (s *session) options(flags *rootFlags, maxIterations int) func(o *groupchat.Options) {
	return func(o *groupchat.Options) {
		o.EngineConfig.Model = s.model
		o.EngineConfig.Namespace = s.cfg.Namespace
		o.EngineConfig.Keep = flags.keep || s.cfg.Keep()
		o.EngineConfig.EchoPrompt = true
		o.MaxIterations = maxIterations
		o.Logger = s.logger
	}
}

// render prints every entry as it arrives. A failed teardown after a
// successful conversation is reported as a warning.
func render(out, errOut io.Writer, t *engine.Transcript, f *present.Formatter) error {
	for e := range t.All() {
		if err := f.WriteEntry(out, e); err != nil {
			_ = t.Close()
			return err
		}
	}

	err := t.Err()

	var releaseErr *core.ReleaseError
	if errors.As(err, &releaseErr) && errors.Is(err, t.ReleaseErr()) {
		fmt.Fprintf(errOut, "warning: %v\n", err)
		return nil
	}

	return err
}
