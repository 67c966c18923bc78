package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Site          Site          `yaml:"site"`
	Source        Source        `yaml:"source"`
	Promotion     Promotion     `yaml:"promotion"`
	Drafting      Drafting      `yaml:"drafting"`
	Scrape        Scrape        `yaml:"scrape"`
	Twitter       Twitter       `yaml:"twitter"`
	Schedule      Schedule      `yaml:"schedule"`
	Screenshots   Screenshots   `yaml:"screenshots"`
	Notifications Notifications `yaml:"notifications"`
	Output        Output        `yaml:"output"`
	Logging       Logging       `yaml:"logging"`
}

type Site struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	BaseURL     string `yaml:"base_url"`
}

// Source selects and configures the candidate source. Kind is one of
// "sitemap", "feed", or "database".
type Source struct {
	Kind     string         `yaml:"kind"`
	Sitemap  SitemapSource  `yaml:"sitemap"`
	Feeds    []Feed         `yaml:"feeds"`
	Database DatabaseSource `yaml:"database"`
}

type SitemapSource struct {
	URL         string  `yaml:"url"`
	MinPriority float64 `yaml:"min_priority"`
}

type Feed struct {
	URL  string `yaml:"url"`
	Name string `yaml:"name"`
}

type DatabaseSource struct {
	Path string `yaml:"path"`
}

type Promotion struct {
	CooldownDays     int `yaml:"cooldown_days"`
	MaxPreviousTexts int `yaml:"max_previous_texts"`
	RetentionDays    int `yaml:"retention_days"`
}

type Drafting struct {
	APIKeyEnv string   `yaml:"api_key_env"`
	Models    []string `yaml:"models"`
	MaxTokens int      `yaml:"max_tokens"`
}

// Scrape configures page content extraction.
type Scrape struct {
	TagsSelector string `yaml:"tags_selector"`
}

type Twitter struct {
	APIKeyEnv       string `yaml:"api_key_env"`
	APISecretEnv    string `yaml:"api_secret_env"`
	AccessTokenEnv  string `yaml:"access_token_env"`
	AccessSecretEnv string `yaml:"access_secret_env"`
}

type Schedule struct {
	ToleranceMinutes int    `yaml:"tolerance_minutes"`
	StateFile        string `yaml:"state_file"`
}

type Screenshots struct {
	ServiceURL string   `yaml:"service_url"`
	Selectors  []string `yaml:"selectors"`
}

type Notifications struct {
	Topic string `yaml:"topic"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConfigDir returns the XDG config directory for tweetbot.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "tweetbot")
}

// DataDir returns the XDG data directory for tweetbot.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "tweetbot")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/tweetbot/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'tweetbot init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Source: Source{
			Kind: "sitemap",
			Sitemap: SitemapSource{
				MinPriority: 0.5,
			},
		},
		Promotion: Promotion{
			CooldownDays:     30,
			MaxPreviousTexts: 3,
			RetentionDays:    365,
		},
		Drafting: Drafting{
			APIKeyEnv: "OPENAI_API_KEY",
			Models:    []string{"gpt-4o", "gpt-4.1-mini"},
			MaxTokens: 150,
		},
		Twitter: Twitter{
			APIKeyEnv:       "TWITTER_API_KEY",
			APISecretEnv:    "TWITTER_API_SECRET",
			AccessTokenEnv:  "TWITTER_ACCESS_TOKEN",
			AccessSecretEnv: "TWITTER_ACCESS_TOKEN_SECRET",
		},
		Schedule: Schedule{
			ToleranceMinutes: 10,
		},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	switch cfg.Source.Kind {
	case "sitemap", "feed", "database":
	default:
		return nil, fmt.Errorf("unknown source kind: %q", cfg.Source.Kind)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// ScheduleFile returns the path of the daily schedule record.
func (c *Config) ScheduleFile() string {
	if c.Schedule.StateFile != "" {
		return c.Schedule.StateFile
	}
	return filepath.Join(c.GetDataDir(), "daily_schedule.json")
}

// LogFile returns the path of the rotating log file.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.GetDataDir(), "tweetbot.log")
}

// TwitterCredentials holds resolved Twitter API credentials.
type TwitterCredentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// ResolveTwitterCredentials reads Twitter credentials from the configured
// environment variables.
func (c *Config) ResolveTwitterCredentials() TwitterCredentials {
	return TwitterCredentials{
		APIKey:       os.Getenv(c.Twitter.APIKeyEnv),
		APISecret:    os.Getenv(c.Twitter.APISecretEnv),
		AccessToken:  os.Getenv(c.Twitter.AccessTokenEnv),
		AccessSecret: os.Getenv(c.Twitter.AccessSecretEnv),
	}
}

// OpenAIKey reads the drafting API key from the configured environment
// variable.
func (c *Config) OpenAIKey() string {
	return os.Getenv(c.Drafting.APIKeyEnv)
}

// ValidateCredentials checks that required credentials are present before
// any side effect. Twitter credentials are only required when actually
// posting.
func (c *Config) ValidateCredentials(dryRun bool) error {
	var missing []string

	if c.OpenAIKey() == "" {
		missing = append(missing, c.Drafting.APIKeyEnv)
	}

	if !dryRun {
		creds := c.ResolveTwitterCredentials()
		for _, pair := range []struct {
			env   string
			value string
		}{
			{c.Twitter.APIKeyEnv, creds.APIKey},
			{c.Twitter.APISecretEnv, creds.APISecret},
			{c.Twitter.AccessTokenEnv, creds.AccessToken},
			{c.Twitter.AccessSecretEnv, creds.AccessSecret},
		} {
			if pair.value == "" {
				missing = append(missing, pair.env)
			}
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
