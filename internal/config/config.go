package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the apiguard configuration.
type Config struct {
	Framework  string `yaml:"framework"`
	Platform   string `yaml:"platform"`
	SDK        string `yaml:"sdk"`
	Xcrun      string `yaml:"xcrun"`
	GH         string `yaml:"gh"`
	ReportPath string `yaml:"reportPath"`
	Format     string `yaml:"format"`
	Verdict    string `yaml:"verdict"`
	LogLevel   string `yaml:"logLevel"`
	CommentPR  bool   `yaml:"commentPR"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Framework:  "MapboxMaps",
		Platform:   "ios",
		SDK:        "iphoneos",
		Xcrun:      "xcrun",
		GH:         "gh",
		ReportPath: "api-check-report.txt",
		Format:     "text",
		Verdict:    "fingerprint",
		LogLevel:   "info",
	}
}

var (
	validFormats  = map[string]bool{"text": true, "markdown": true, "json": true, "sarif": true}
	validVerdicts = map[string]bool{"fingerprint": true, "findings": true}
)

// Validate checks enumerated fields.
func (c Config) Validate() error {
	if !validFormats[c.Format] {
		return fmt.Errorf("unsupported format %q (want text, markdown, json or sarif)", c.Format)
	}
	if !validVerdicts[c.Verdict] {
		return fmt.Errorf("unsupported verdict %q (want fingerprint or findings)", c.Verdict)
	}
	if c.Framework == "" {
		return fmt.Errorf("framework must not be empty")
	}
	return nil
}

// ConfigDir returns the platform-appropriate config directory for apiguard.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "apiguard"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "apiguard"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "apiguard"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "apiguard"), nil
	default:
		return filepath.Join(home, ".config", "apiguard"), nil
	}
}

// ConfigPath returns the full path to the config file. APIGUARD_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := os.Getenv("APIGUARD_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides.
// The overrides map comes from CLI flags (only non-zero values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg := Default()

	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	if err := mergeEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := mergeOverrides(&cfg, overrides); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	for _, f := range stringFields {
		if v := *f.get(&src); v != "" {
			*f.get(dst) = v
		}
	}
	// A false commentPR in the file is indistinguishable from an absent key.
	dst.CommentPR = src.CommentPR || dst.CommentPR
}

func mergeEnv(cfg *Config) error {
	for _, f := range stringFields {
		if v := os.Getenv(f.env); v != "" {
			*f.get(cfg) = v
		}
	}
	if v := os.Getenv("APIGUARD_COMMENT_PR"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("APIGUARD_COMMENT_PR must be a boolean: %w", err)
		}
		cfg.CommentPR = b
	}
	return nil
}

func mergeOverrides(cfg *Config, overrides map[string]string) error {
	for key, v := range overrides {
		if v == "" {
			continue
		}
		if err := SetField(cfg, key, v); err != nil {
			return err
		}
	}
	return nil
}

// stringField binds a config key to its env var and struct field.
type stringField struct {
	key string
	env string
	get func(*Config) *string
}

var stringFields = []stringField{
	{"framework", "APIGUARD_FRAMEWORK", func(c *Config) *string { return &c.Framework }},
	{"platform", "APIGUARD_PLATFORM", func(c *Config) *string { return &c.Platform }},
	{"sdk", "APIGUARD_SDK", func(c *Config) *string { return &c.SDK }},
	{"xcrun", "APIGUARD_XCRUN", func(c *Config) *string { return &c.Xcrun }},
	{"gh", "APIGUARD_GH", func(c *Config) *string { return &c.GH }},
	{"reportPath", "APIGUARD_REPORT_PATH", func(c *Config) *string { return &c.ReportPath }},
	{"format", "APIGUARD_FORMAT", func(c *Config) *string { return &c.Format }},
	{"verdict", "APIGUARD_VERDICT", func(c *Config) *string { return &c.Verdict }},
	{"logLevel", "APIGUARD_LOG_LEVEL", func(c *Config) *string { return &c.LogLevel }},
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	if key == "commentPR" {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("commentPR must be a boolean: %w", err)
		}
		cfg.CommentPR = b
		return nil
	}
	for _, f := range stringFields {
		if f.key == key {
			*f.get(cfg) = value
			return nil
		}
	}
	return fmt.Errorf("unknown config key: %s", key)
}
