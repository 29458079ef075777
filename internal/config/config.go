// Package config loads and validates the bot configuration from YAML.
// Environment references like ${OPENAI_TOKEN} are expanded before parsing so
// secrets stay out of the config file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Discord   DiscordConfig     `yaml:"discord"`
	Logging   LoggingConfig     `yaml:"logging"`
	Metrics   MetricsConfig     `yaml:"metrics"`
	Budget    BudgetConfig      `yaml:"budget"`
	Providers []ProviderConfig  `yaml:"providers"`
	Emoji     map[string]string `yaml:"emoji"`
	Market    MarketConfig      `yaml:"market"`

	// SystemPromptFile holds the shared instruction text installed as the
	// pinned first turn of every provider's history.
	SystemPromptFile string `yaml:"system_prompt_file"`
}

// DiscordConfig configures the Discord connection.
type DiscordConfig struct {
	BotToken string `yaml:"bot_token"`

	// GuildID scopes slash command registration; empty registers globally.
	GuildID string `yaml:"guild_id"`

	// AdminUser is the username allowed to run the say and delete commands.
	AdminUser string `yaml:"admin_user"`

	// CharLimit is the outbound chunk size. Defaults to 1900.
	CharLimit int `yaml:"char_limit"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig configures the optional Prometheus listener.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// BudgetConfig is the token budget pair: ReplyMaxTokens bounds requested
// generation length, HistoryMaxTokens bounds the serialized stored history.
type BudgetConfig struct {
	ReplyMaxTokens   int `yaml:"reply_max_tokens"`
	HistoryMaxTokens int `yaml:"history_max_tokens"`
}

// ProviderConfig describes one completion provider. Both providers speak the
// OpenAI chat completion wire format; the bot treats them identically.
type ProviderConfig struct {
	// Name identifies the provider in logs, metrics, and command routing.
	Name string `yaml:"name"`

	// Command is the slash command that chats with this provider.
	Command string `yaml:"command"`

	// ResetCommand is the slash command that wipes this provider's history.
	ResetCommand string `yaml:"reset_command"`

	// ResetMessage is the confirmation sent after a reset.
	ResetMessage string `yaml:"reset_message"`

	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// MarketConfig configures the price lookup command.
type MarketConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key"`

	// Endpoint overrides the CoinMarketCap quotes URL, mainly for tests.
	Endpoint string `yaml:"endpoint"`
}

// Load reads, expands, parses, and validates the configuration file.
// Any failure here is fatal at startup: the process must not run on a
// partial or malformed configuration.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse([]byte(os.ExpandEnv(string(data))))
}

// Parse decodes configuration bytes with strict field checking, applies
// defaults, and validates.
func Parse(data []byte) (*Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return nil, fmt.Errorf("parse config: expected single document")
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Discord.CharLimit == 0 {
		c.Discord.CharLimit = 1900
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9102"
	}
	for i := range c.Providers {
		p := &c.Providers[i]
		if p.ResetCommand == "" && p.Command != "" {
			p.ResetCommand = "bonk" + p.Command
		}
		if p.ResetMessage == "" {
			p.ResetMessage = fmt.Sprintf("> **BONK** %s has forgotten everything ～", p.Name)
		}
	}
}

// Validate checks that every required setting is present and coherent.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Discord.BotToken) == "" {
		return fmt.Errorf("config: discord.bot_token is required")
	}
	if strings.TrimSpace(c.SystemPromptFile) == "" {
		return fmt.Errorf("config: system_prompt_file is required")
	}
	if c.Budget.ReplyMaxTokens <= 0 {
		return fmt.Errorf("config: budget.reply_max_tokens must be positive")
	}
	if c.Budget.HistoryMaxTokens <= 0 {
		return fmt.Errorf("config: budget.history_max_tokens must be positive")
	}
	if len(c.Providers) == 0 {
		return fmt.Errorf("config: at least one provider is required")
	}

	names := map[string]bool{}
	commands := map[string]bool{}
	for i, p := range c.Providers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("config: providers[%d].name is required", i)
		}
		if strings.TrimSpace(p.Command) == "" {
			return fmt.Errorf("config: provider %q: command is required", p.Name)
		}
		if strings.TrimSpace(p.Endpoint) == "" {
			return fmt.Errorf("config: provider %q: endpoint is required", p.Name)
		}
		if strings.TrimSpace(p.APIKey) == "" {
			return fmt.Errorf("config: provider %q: api_key is required", p.Name)
		}
		if strings.TrimSpace(p.Model) == "" {
			return fmt.Errorf("config: provider %q: model is required", p.Name)
		}
		if names[p.Name] {
			return fmt.Errorf("config: duplicate provider name %q", p.Name)
		}
		names[p.Name] = true
		for _, cmd := range []string{p.Command, p.ResetCommand} {
			if commands[cmd] {
				return fmt.Errorf("config: duplicate command %q", cmd)
			}
			commands[cmd] = true
		}
	}

	if c.Market.Enabled && strings.TrimSpace(c.Market.APIKey) == "" {
		return fmt.Errorf("config: market.api_key is required when market.enabled")
	}
	return nil
}

// LoadSystemPrompt reads the shared instruction text. Called once at startup;
// a missing or empty prompt file is fatal.
func (c *Config) LoadSystemPrompt() (string, error) {
	data, err := os.ReadFile(c.SystemPromptFile)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", fmt.Errorf("system prompt file %s is empty", c.SystemPromptFile)
	}
	return prompt, nil
}
