// Package config handles railbird configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./railbird.yaml, ~/.config/railbird/railbird.yaml,
// /etc/railbird/railbird.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"railbird.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "railbird", "railbird.yaml"))
	}

	paths = append(paths, "/etc/railbird/railbird.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all railbird configuration. It is passed explicitly into
// the pipeline; nothing reads it from package-level state.
type Config struct {
	YouTube  YouTubeConfig `yaml:"youtube"`
	Report   ReportConfig  `yaml:"report"`
	Publish  PublishConfig `yaml:"publish"`
	Collect  CollectConfig `yaml:"collect"`
	DataDir  string        `yaml:"data_dir"`
	LogLevel string        `yaml:"log_level"`
}

// YouTubeConfig defines Data API access and retry behavior.
type YouTubeConfig struct {
	APIKey    string `yaml:"api_key"`
	ChannelID string `yaml:"channel_id"`
	// MaxRetries bounds metadata fetch attempts per video (default 5).
	MaxRetries int `yaml:"max_retries"`
	// RetryBaseDelaySec is the first backoff delay; each retry doubles it
	// (default 2).
	RetryBaseDelaySec int `yaml:"retry_base_delay_sec"`
}

// ReportConfig defines report generation settings.
type ReportConfig struct {
	// SummariesDir is the directory of per-video summary JSON files.
	SummariesDir string `yaml:"summaries_dir"`
	// OutputPath is where the rendered HTML report is written.
	OutputPath string `yaml:"output_path"`
	// Title overrides the report page title.
	Title string `yaml:"title"`
	// IntroFile is an optional markdown file rendered as the report header.
	IntroFile string `yaml:"intro_file"`
}

// PublishConfig defines the target repository for the rendered report.
type PublishConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
	// Repo is "owner/name".
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	// Path is the file path inside the repo (e.g. "docs/index.html").
	Path string `yaml:"path"`
	// URL is the API base URL, for GitHub Enterprise. Optional.
	URL string `yaml:"url"`
}

// CollectConfig defines channel scan settings.
type CollectConfig struct {
	// MinDurationSec filters out videos shorter than this (default 600).
	MinDurationSec int `yaml:"min_duration_sec"`
	// StartDate is the publishedAfter cursor used on the first run
	// (RFC 3339, e.g. "2025-02-01T00:00:00Z").
	StartDate string `yaml:"start_date"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		YouTube: YouTubeConfig{
			MaxRetries:        5,
			RetryBaseDelaySec: 2,
		},
		Report: ReportConfig{
			SummariesDir: "data/summaries",
			OutputPath:   "data/report.html",
			Title:        "Poker Video Summaries",
		},
		Publish: PublishConfig{
			Branch: "main",
			Path:   "index.html",
		},
		Collect: CollectConfig{
			MinDurationSec: 600,
			StartDate:      "2025-02-01T00:00:00Z",
		},
		DataDir: "data",
	}
}

// Validate checks the settings a report run depends on.
func (c *Config) Validate() error {
	if c.Report.SummariesDir == "" {
		return fmt.Errorf("report.summaries_dir is required")
	}
	if c.Report.OutputPath == "" {
		return fmt.Errorf("report.output_path is required")
	}
	if c.Publish.Enabled {
		if c.Publish.Token == "" {
			return fmt.Errorf("publish.token is required when publish is enabled")
		}
		if c.Publish.Repo == "" {
			return fmt.Errorf("publish.repo is required when publish is enabled")
		}
	}
	return nil
}
