package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

type Source struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
	Trusted bool   `yaml:"trusted,omitempty"`
}

type Keywords struct {
	Airdrop []string `yaml:"airdrop"`
	Testnet []string `yaml:"testnet"`
}

type AnnotatorConfig struct {
	Provider string   `yaml:"provider"` // "prose", "claude" or "openai"
	APIKey   string   `yaml:"api_key,omitempty"`
	Model    string   `yaml:"model,omitempty"`
	Projects []string `yaml:"projects,omitempty"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
}

type EmailConfig struct {
	SMTPHost  string `yaml:"smtp_host,omitempty"`
	SMTPPort  int    `yaml:"smtp_port,omitempty"`
	Username  string `yaml:"username,omitempty"`
	Password  string `yaml:"password,omitempty"`
	Recipient string `yaml:"recipient,omitempty"`
}

type NotifyConfig struct {
	Telegram *TelegramConfig `yaml:"telegram,omitempty"`
	Email    *EmailConfig    `yaml:"email,omitempty"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

type Config struct {
	CheckInterval string          `yaml:"check_interval"`
	Retention     string          `yaml:"retention"`
	MaxAge        string          `yaml:"max_age"`
	MinConfidence *float64        `yaml:"min_confidence,omitempty"`
	Workers       int             `yaml:"workers,omitempty"`
	PreserveCase  bool            `yaml:"preserve_case,omitempty"`
	Sources       []Source        `yaml:"sources"`
	Keywords      Keywords        `yaml:"keywords"`
	Annotator     AnnotatorConfig `yaml:"annotator"`
	Notify        NotifyConfig    `yaml:"notify"`
	Log           LogConfig       `yaml:"log"`
}

// AnnotatorKey returns the resolved LLM API key (config or env var).
func (c *Config) AnnotatorKey() string {
	if c.Annotator.APIKey != "" {
		return c.Annotator.APIKey
	}
	return os.Getenv("DROPWATCH_AI_KEY")
}

// Telegram returns the Telegram settings with env fallbacks applied, or nil
// when Telegram is not configured.
func (c *Config) Telegram() *TelegramConfig {
	var t TelegramConfig
	if c.Notify.Telegram != nil {
		t = *c.Notify.Telegram
	}
	if t.BotToken == "" {
		t.BotToken = os.Getenv("DROPWATCH_TELEGRAM_TOKEN")
	}
	if t.BotToken == "" || t.ChatID == "" {
		return nil
	}
	return &t
}

// Email returns the SMTP settings with env fallbacks applied, or nil when
// email is not configured.
func (c *Config) Email() *EmailConfig {
	if c.Notify.Email == nil {
		return nil
	}
	e := *c.Notify.Email
	if e.Password == "" {
		e.Password = os.Getenv("DROPWATCH_SMTP_PASSWORD")
	}
	if e.SMTPPort == 0 {
		e.SMTPPort = 587
	}
	if e.SMTPHost == "" || e.Username == "" || e.Password == "" || e.Recipient == "" {
		return nil
	}
	return &e
}

func (c *Config) CheckDuration() time.Duration {
	d, err := time.ParseDuration(c.CheckInterval)
	if err != nil || d <= 0 {
		return 30 * time.Minute
	}
	return d
}

func (c *Config) RetentionDuration() time.Duration {
	return parseDays(c.Retention, 30*24*time.Hour)
}

func (c *Config) MaxAgeDuration() time.Duration {
	return parseDays(c.MaxAge, 7*24*time.Hour)
}

// parseDays accepts Go durations plus an "Nd" day suffix.
func parseDays(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// GetMinConfidence returns the notification threshold, defaulting to 60.
func (c *Config) GetMinConfidence() float64 {
	if c.MinConfidence == nil {
		return 60
	}
	return *c.MinConfidence
}

// GetWorkers returns the extraction concurrency, defaulting to 4.
func (c *Config) GetWorkers() int {
	if c.Workers <= 0 {
		return 4
	}
	return c.Workers
}

func (c *Config) EnabledSources() []Source {
	var out []Source
	for _, s := range c.Sources {
		if s.Enabled {
			out = append(out, s)
		}
	}
	return out
}

func (c *Config) SourceNames() []string {
	var names []string
	for _, s := range c.EnabledSources() {
		names = append(names, s.Name)
	}
	return names
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "dropwatch", "config.yaml")
}

func DataPath() string {
	return filepath.Join(xdg.DataHome, "dropwatch", "dropwatch.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run; failure is non-fatal.
			_ = writeDefaults(path)
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	mergeDefaultSources(&cfg, defaults)
	if len(cfg.Keywords.Airdrop) == 0 && len(cfg.Keywords.Testnet) == 0 {
		cfg.Keywords = defaults.Keywords
	}
	if len(cfg.Annotator.Projects) == 0 && (cfg.Annotator.Provider == "" || cfg.Annotator.Provider == "prose") {
		cfg.Annotator.Projects = defaults.Annotator.Projects
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// mergeDefaultSources refreshes user sources that share a name with a
// default source and appends defaults the user does not have yet. The
// user's enabled/trusted choices are kept.
func mergeDefaultSources(cfg, defaults *Config) {
	index := make(map[string]int, len(cfg.Sources))
	for i, s := range cfg.Sources {
		index[s.Name] = i
	}
	for _, d := range defaults.Sources {
		if i, ok := index[d.Name]; ok {
			cfg.Sources[i].URL = d.URL
			cfg.Sources[i].Type = d.Type
			continue
		}
		cfg.Sources = append(cfg.Sources, d)
	}
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, s := range cfg.Sources {
		if s.Name == "" {
			return fmt.Errorf("source %d: name is required", i)
		}
		if s.URL == "" {
			return fmt.Errorf("source %q: url is required", s.Name)
		}
		u, err := url.Parse(s.URL)
		if err != nil {
			return fmt.Errorf("source %q: invalid url: %w", s.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("source %q: url scheme must be http or https, got %q", s.Name, u.Scheme)
		}
		if !validTypes[s.Type] {
			return fmt.Errorf("source %q: unknown type %q (valid: rss, atom)", s.Name, s.Type)
		}
	}

	switch cfg.Annotator.Provider {
	case "", "prose", "claude", "openai":
	default:
		return fmt.Errorf("annotator: unknown provider %q (valid: prose, claude, openai)", cfg.Annotator.Provider)
	}

	if cfg.MinConfidence != nil && (*cfg.MinConfidence < 0 || *cfg.MinConfidence > 100) {
		return fmt.Errorf("min_confidence must be between 0 and 100, got %g", *cfg.MinConfidence)
	}

	switch cfg.Log.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("log: unknown format %q (valid: json, console)", cfg.Log.Format)
	}
	return nil
}
