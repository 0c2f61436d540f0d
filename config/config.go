// Package config loads process configuration from an optional .env file and
// the environment.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables
//  2. The .env file
//  3. Defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"

	"github.com/hupe1980/groupchat/core"
)

// Providers understood by the CLI.
const (
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

const (
	// DefaultAPIVersion is the Azure OpenAI API version used when none is set.
	DefaultAPIVersion = "2024-12-01-preview"

	// DefaultNamespace prefixes the names of created agents.
	DefaultNamespace = "groupchat-demo"

	// DefaultMaxIterations bounds the number of agent turns of a group chat.
	DefaultMaxIterations = 4

	// DefaultOpenAIModel is used with the openai provider when OPENAI_MODEL is unset.
	DefaultOpenAIModel = "gpt-4o-mini"
)

// envPrefixes selects the variables read from the environment.
var envPrefixes = []string{"AZURE_OPENAI_", "OPENAI_", "ANTHROPIC_", "GROUPCHAT_"}

// Config is the process configuration.
type Config struct {
	Provider string `koanf:"GROUPCHAT_PROVIDER"`

	AzureEndpoint   string `koanf:"AZURE_OPENAI_ENDPOINT"`
	AzureAPIKey     string `koanf:"AZURE_OPENAI_API_KEY"`
	AzureDeployment string `koanf:"AZURE_OPENAI_CHAT_DEPLOYMENT_NAME"`
	AzureAPIVersion string `koanf:"AZURE_OPENAI_API_VERSION"`

	// AssistantID selects an existing assistant for quickstart runs.
	AssistantID string `koanf:"AZURE_OPENAI_ASSISTANT_ID"`

	// KeepAssistant is the raw AZURE_OPENAI_KEEP_ASSISTANT value; see Keep.
	KeepAssistant string `koanf:"AZURE_OPENAI_KEEP_ASSISTANT"`

	OpenAIAPIKey  string `koanf:"OPENAI_API_KEY"`
	OpenAIModel   string `koanf:"OPENAI_MODEL"`
	OpenAIBaseURL string `koanf:"OPENAI_BASE_URL"`

	AnthropicAPIKey string `koanf:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `koanf:"ANTHROPIC_MODEL"`

	MaxIterations int    `koanf:"GROUPCHAT_MAX_ITERATIONS"`
	Prompt        string `koanf:"GROUPCHAT_PROMPT"`
	Namespace     string `koanf:"GROUPCHAT_NAMESPACE"`
	LogLevel      string `koanf:"GROUPCHAT_LOG_LEVEL"`
}

// Load reads envFile (if it exists) and then the environment. An empty
// envFile skips the file.
func Load(envFile string) (*Config, error) {
	k := koanf.New(".")

	if envFile != "" {
		content, err := os.ReadFile(envFile)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		default:
			if err := k.Load(rawbytes.Provider(content), dotenv.Parser()); err != nil {
				return nil, fmt.Errorf("failed to parse env file %s: %w", envFile, err)
			}
		}
	}

	// Empty variables do not override values from the .env file.
	if err := k.Load(env.ProviderWithValue("", ".", func(key, value string) (string, any) {
		if value == "" {
			return "", nil
		}
		for _, p := range envPrefixes {
			if strings.HasPrefix(key, p) {
				return key, value
			}
		}
		return "", nil
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	if cfg.Provider == "" {
		cfg.Provider = ProviderAzure
	}
	if cfg.AzureAPIVersion == "" {
		cfg.AzureAPIVersion = DefaultAPIVersion
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Namespace == "" {
		cfg.Namespace = DefaultNamespace
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultOpenAIModel
	}
}

// Keep reports whether created assistants should survive the run.
func (c *Config) Keep() bool {
	return ParseBool(c.KeepAssistant)
}

// Model returns the model or deployment used to create agents for the
// configured provider.
func (c *Config) Model() string {
	switch c.Provider {
	case ProviderAzure:
		return c.AzureDeployment
	case ProviderOpenAI:
		return c.OpenAIModel
	case ProviderAnthropic:
		return c.AnthropicModel
	default:
		return "mock"
	}
}

// Validate checks that the selected provider is fully configured.
func (c *Config) Validate() error {
	required := func(key, value string) error {
		if strings.TrimSpace(value) == "" {
			return core.NewConfigurationError(key, "is required")
		}
		return nil
	}

	var errs []error
	switch c.Provider {
	case ProviderAzure:
		errs = append(errs,
			required("AZURE_OPENAI_ENDPOINT", c.AzureEndpoint),
			required("AZURE_OPENAI_API_KEY", c.AzureAPIKey),
			required("AZURE_OPENAI_CHAT_DEPLOYMENT_NAME", c.AzureDeployment),
		)
	case ProviderOpenAI:
		errs = append(errs, required("OPENAI_API_KEY", c.OpenAIAPIKey))
	case ProviderAnthropic:
		errs = append(errs, required("ANTHROPIC_API_KEY", c.AnthropicAPIKey))
	case ProviderMock:
	default:
		errs = append(errs, core.NewConfigurationError("GROUPCHAT_PROVIDER",
			fmt.Sprintf("unknown provider %q", c.Provider)))
	}

	return errors.Join(errs...)
}

// ParseBool accepts "true", "1" and "yes" in any case as true.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}
