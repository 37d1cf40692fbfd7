package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config defines runtime settings for DataWorks.
type Config struct {
	LogLevel  string        `yaml:"logLevel" validate:"oneof=debug info warn warning error"`
	LogFormat string        `yaml:"logFormat" validate:"oneof=json text"`
	Sandbox   SandboxConfig `yaml:"sandbox"`
	Gateway   GatewayConfig `yaml:"gateway"`
	Exec      ExecConfig    `yaml:"exec"`
	HTTP      HTTPConfig    `yaml:"http"`
	Watch     WatchConfig   `yaml:"watch"`
	Tasks     TasksConfig   `yaml:"tasks"`
}

type SandboxConfig struct {
	Root string `yaml:"root" validate:"required"`
}

type GatewayConfig struct {
	Address string `yaml:"address" validate:"required"`
	// StrictStatus maps read-file failures to 403/404 instead of 200.
	StrictStatus    bool     `yaml:"strictStatus"`
	MaxBodyBytes    int64    `yaml:"maxBodyBytes" validate:"gte=0"`
	ShutdownTimeout string   `yaml:"shutdownTimeout" validate:"duration"`
	AllowedAddrs    []string `yaml:"allowedAddrs" validate:"dive,required"`
}

type ExecConfig struct {
	Timeout   string `yaml:"timeout" validate:"duration"`
	MaxOutput int    `yaml:"maxOutput" validate:"gte=0"`
}

type HTTPConfig struct {
	Timeout      string `yaml:"timeout" validate:"duration"`
	MaxBodyBytes int64  `yaml:"maxBodyBytes" validate:"gte=0"`
	UserAgent    string `yaml:"userAgent"`
}

type WatchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Debounce string `yaml:"debounce" validate:"duration"`
}

// TasksConfig holds the fixed inputs and outputs of every task type. File
// names are relative to the sandbox root.
type TasksConfig struct {
	Fetch      DownloadTask   `yaml:"fetch"`
	Scrape     DownloadTask   `yaml:"scrape"`
	Git        GitTask        `yaml:"git"`
	SQL        SQLTask        `yaml:"sql"`
	Image      ImageTask      `yaml:"image"`
	Transcribe TranscribeTask `yaml:"transcribe"`
	Markdown   MarkdownTask   `yaml:"markdown"`
	CSV        CSVTask        `yaml:"csv"`
}

type DownloadTask struct {
	URL    string `yaml:"url" validate:"required,url"`
	Output string `yaml:"output" validate:"required"`
}

type GitTask struct {
	Backend       string `yaml:"backend" validate:"oneof=cli native"`
	RepoURL       string `yaml:"repoURL" validate:"required"`
	Dir           string `yaml:"dir" validate:"required"`
	MarkerFile    string `yaml:"markerFile" validate:"required"`
	MarkerContent string `yaml:"markerContent"`
	Message       string `yaml:"message" validate:"required"`
	AuthorName    string `yaml:"authorName"`
	AuthorEmail   string `yaml:"authorEmail" validate:"omitempty,email"`
	Depth         int    `yaml:"depth" validate:"gte=0"`
}

type SQLTask struct {
	Database string `yaml:"database" validate:"required"`
	Query    string `yaml:"query" validate:"required"`
	Output   string `yaml:"output" validate:"required"`
}

type ImageTask struct {
	Input        string `yaml:"input" validate:"required"`
	Output       string `yaml:"output" validate:"required"`
	Quality      int    `yaml:"quality" validate:"min=1,max=100"`
	MaxDimension int    `yaml:"maxDimension" validate:"gte=0"`
}

type TranscribeTask struct {
	Output     string `yaml:"output" validate:"required"`
	Transcript string `yaml:"transcript"`
}

type MarkdownTask struct {
	Patterns []string `yaml:"patterns" validate:"min=1,dive,required"`
	GFM      bool     `yaml:"gfm"`
}

type CSVTask struct {
	Input string `yaml:"input" validate:"required"`
	Field string `yaml:"field" validate:"required"`
	Value string `yaml:"value"`
}

// envOverrides lists the DATAWORKS_* variables that patch a loaded file.
type envOverrides struct {
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFormat      string `envconfig:"LOG_FORMAT"`
	SandboxRoot    string `envconfig:"SANDBOX_ROOT"`
	GatewayAddress string `envconfig:"GATEWAY_ADDRESS"`
	StrictStatus   *bool  `envconfig:"GATEWAY_STRICT_STATUS"`
	ExecTimeout    string `envconfig:"EXEC_TIMEOUT"`
	HTTPTimeout    string `envconfig:"HTTP_TIMEOUT"`
	GitBackend     string `envconfig:"GIT_BACKEND"`
	Watch          *bool  `envconfig:"WATCH"`
}

const envPrefix = "DATAWORKS"

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "json",
		Sandbox:   SandboxConfig{Root: "./data"},
		Gateway: GatewayConfig{
			Address:         ":8000",
			MaxBodyBytes:    1 << 20,
			ShutdownTimeout: "5s",
		},
		Exec:  ExecConfig{Timeout: "2m", MaxOutput: 1 << 20},
		HTTP:  HTTPConfig{Timeout: "30s", MaxBodyBytes: 10 << 20, UserAgent: "dataworks/1.0"},
		Watch: WatchConfig{Debounce: "300ms"},
		Tasks: TasksConfig{
			Fetch:  DownloadTask{URL: "https://jsonplaceholder.typicode.com/todos/1", Output: "api_data.json"},
			Scrape: DownloadTask{URL: "https://example.com", Output: "scraped_data.html"},
			Git: GitTask{
				Backend:       "cli",
				RepoURL:       "https://github.com/sanand0/tools-in-data-science-public.git",
				Dir:           "repo",
				MarkerFile:    "new_file.txt",
				MarkerContent: "Automated commit",
				Message:       "Automated commit",
				AuthorName:    "DataWorks",
				AuthorEmail:   "dataworks@example.com",
			},
			SQL: SQLTask{
				Database: "ticket-sales.db",
				Query:    "SELECT SUM(price * units) FROM tickets WHERE type='Gold'",
				Output:   "ticket-sales-gold.txt",
			},
			Image:      ImageTask{Input: "sample.png", Output: "sample_compressed.png", Quality: 20},
			Transcribe: TranscribeTask{Output: "transcription.txt", Transcript: "[Transcribed speech content]"},
			Markdown:   MarkdownTask{Patterns: []string{"*.md"}},
			CSV:        CSVTask{Input: "sample.csv", Field: "Category", Value: "Important"},
		},
	}
}

// LoadConfig loads configuration from a YAML file and environment overrides.
// An empty path falls back to DefaultConfigPath when that file exists.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	explicit := path != "" || os.Getenv("DATAWORKS_CONFIG") != ""
	if path == "" {
		path = DefaultConfigPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case explicit || !errors.Is(err, os.ErrNotExist):
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(envPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.LogLevel != "" {
		cfg.LogLevel = env.LogLevel
	}
	if env.LogFormat != "" {
		cfg.LogFormat = env.LogFormat
	}
	if env.SandboxRoot != "" {
		cfg.Sandbox.Root = env.SandboxRoot
	}
	if env.GatewayAddress != "" {
		cfg.Gateway.Address = env.GatewayAddress
	}
	if env.StrictStatus != nil {
		cfg.Gateway.StrictStatus = *env.StrictStatus
	}
	if env.ExecTimeout != "" {
		cfg.Exec.Timeout = env.ExecTimeout
	}
	if env.HTTPTimeout != "" {
		cfg.HTTP.Timeout = env.HTTPTimeout
	}
	if env.GitBackend != "" {
		cfg.Tasks.Git.Backend = env.GitBackend
	}
	if env.Watch != nil {
		cfg.Watch.Enabled = *env.Watch
	}
	return nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if s == "" {
			return true
		}
		_, err := time.ParseDuration(s)
		return err == nil
	})
	return v
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) ExecTimeout() time.Duration     { return parseDuration(c.Exec.Timeout) }
func (c *Config) HTTPTimeout() time.Duration     { return parseDuration(c.HTTP.Timeout) }
func (c *Config) ShutdownTimeout() time.Duration { return parseDuration(c.Gateway.ShutdownTimeout) }
func (c *Config) WatchDebounce() time.Duration   { return parseDuration(c.Watch.Debounce) }

func parseDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// DefaultConfigPath returns the default location for the config file.
func DefaultConfigPath() string {
	if path := os.Getenv("DATAWORKS_CONFIG"); path != "" {
		return path
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".dataworks", "config.yaml")
}
