// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"quill/internal/backend"
	apperrors "quill/internal/errors"
	"quill/internal/tools"
)

// DefaultConfigFile is looked up in the working directory when --config is not given.
const DefaultConfigFile = "quill.yaml"

const (
	defaultModel              = "gemma3:270m"
	defaultWorkspace          = "./workspace"
	defaultTimeoutSeconds     = 30
	defaultCommandHistoryFile = ".quill_history"
	defaultOpenAIURL          = "https://api.openai.com/v1"
)

// Config represents the application configuration
type Config struct {
	Backend            string            `yaml:"backend"`
	Model              string            `yaml:"model"`
	BaseURL            string            `yaml:"base_url,omitempty"`
	APIKey             string            `yaml:"api_key,omitempty"`
	Workspace          string            `yaml:"workspace"`
	TimeoutSeconds     int               `yaml:"timeout_seconds"`
	CommandHistoryFile string            `yaml:"command_history_file,omitempty"`
	ThemeFile          string            `yaml:"theme_file,omitempty"`
	ToolLimits         ToolLimits        `yaml:"tool_limits,omitempty"`
	ToolTimeouts       ToolTimeouts      `yaml:"tool_timeouts,omitempty"`
	ToolOutputFilters  ToolOutputFilters `yaml:"tool_output_filters,omitempty"`
}

// ToolLimits configures size and result bounds of the file tools.
type ToolLimits struct {
	ReadMaxChars     int   `yaml:"read_max_chars,omitempty"`
	SearchMaxResults int   `yaml:"search_max_results,omitempty"`
	SearchLineWidth  int   `yaml:"search_line_width,omitempty"`
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes,omitempty"`
	MaxListEntries   int   `yaml:"max_list_entries,omitempty"`
}

// ToolTimeouts configures tool execution timeouts.
type ToolTimeouts struct {
	DefaultSeconds int            `yaml:"default_seconds,omitempty"`
	PerToolSeconds map[string]int `yaml:"per_tool_seconds,omitempty"`
}

// ToolOutputFilters configures output sanitization for tool results.
type ToolOutputFilters struct {
	MaxChars     int  `yaml:"max_chars,omitempty"`
	StripANSI    bool `yaml:"strip_ansi"`
	StripControl bool `yaml:"strip_control"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	limits := tools.DefaultLimits()
	timeouts := tools.DefaultTimeoutConfig()
	perTool := make(map[string]int, len(timeouts.PerTool))
	for name, timeout := range timeouts.PerTool {
		perTool[name] = int(timeout.Seconds())
	}
	filters := tools.DefaultOutputFilterConfig()
	return &Config{
		Backend:            backend.KindOllama,
		Model:              defaultModel,
		Workspace:          defaultWorkspace,
		TimeoutSeconds:     defaultTimeoutSeconds,
		CommandHistoryFile: defaultCommandHistoryFile,
		ToolLimits: ToolLimits{
			ReadMaxChars:     limits.ReadMaxChars,
			SearchMaxResults: limits.SearchMaxResults,
			SearchLineWidth:  limits.SearchLineWidth,
			MaxFileSizeBytes: limits.MaxFileSizeBytes,
			MaxListEntries:   limits.MaxListEntries,
		},
		ToolTimeouts: ToolTimeouts{
			DefaultSeconds: int(timeouts.Default.Seconds()),
			PerToolSeconds: perTool,
		},
		ToolOutputFilters: ToolOutputFilters{
			MaxChars:     filters.MaxChars,
			StripANSI:    filters.StripANSI,
			StripControl: filters.StripControl,
		},
	}
}

// LoadDotEnv loads variables from .env files into the environment without
// overriding variables that are already set. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("failed to load %s", file), err)
		}
	}
	return nil
}

// LoadConfig loads configuration from a YAML file, applies env overrides, and
// checks the fields that would make startup impossible. A missing file is not
// an error; the defaults are used.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeYAML(data, config); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("invalid config file %s", path), err)
			}
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("failed to read config file %s", path), err)
		}
	}

	config.applyEnv()
	config.applyDefaults()

	if err := config.Check(); err != nil {
		return nil, err
	}
	return config, nil
}

func decodeYAML(data []byte, config *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Env overrides (apply regardless of whether config file exists)
func (c *Config) applyEnv() {
	if val := os.Getenv("QUILL_BACKEND"); val != "" {
		c.Backend = val
	}
	if val := os.Getenv("QUILL_MODEL"); val != "" {
		c.Model = val
	}
	if val := os.Getenv("QUILL_WORKSPACE"); val != "" {
		c.Workspace = val
	}
	if val := os.Getenv("OPENAI_API_KEY"); val != "" {
		c.APIKey = val
	}
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))

	// QUILL_BASE_URL wins over the backend specific variables.
	switch {
	case os.Getenv("QUILL_BASE_URL") != "":
		c.BaseURL = os.Getenv("QUILL_BASE_URL")
	case c.Backend == backend.KindOllama && os.Getenv("OLLAMA_HOST") != "":
		c.BaseURL = ollamaHostURL(os.Getenv("OLLAMA_HOST"))
	case c.Backend == backend.KindOpenAI && os.Getenv("OPENAI_API_URL") != "":
		c.BaseURL = os.Getenv("OPENAI_API_URL")
	}
}

// ollamaHostURL accepts OLLAMA_HOST in the forms the ollama CLI accepts,
// including a bare host:port.
func ollamaHostURL(host string) string {
	host = strings.TrimSpace(host)
	if strings.Contains(host, "://") {
		return host
	}
	if !strings.Contains(host, ":") {
		host += ":11434"
	}
	return "http://" + host
}

// Overrides holds command line values; empty fields leave the config untouched.
type Overrides struct {
	Backend   string
	Model     string
	BaseURL   string
	Workspace string
}

// ApplyOverrides applies command line values on top of file and environment
// settings. Switching backend without a base URL resets the URL to that
// backend's default.
func (c *Config) ApplyOverrides(o Overrides) error {
	if o.Backend != "" {
		backendName := strings.ToLower(strings.TrimSpace(o.Backend))
		if backendName != c.Backend && o.BaseURL == "" {
			c.BaseURL = ""
		}
		c.Backend = backendName
	}
	if o.Model != "" {
		c.Model = o.Model
	}
	if o.BaseURL != "" {
		c.BaseURL = o.BaseURL
	}
	if o.Workspace != "" {
		c.Workspace = o.Workspace
	}
	c.applyDefaults()
	return c.Check()
}

// Set defaults for any missing values
func (c *Config) applyDefaults() {
	if c.Backend == "" {
		c.Backend = backend.KindOllama
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Workspace == "" {
		c.Workspace = defaultWorkspace
	}
	if c.BaseURL == "" {
		switch c.Backend {
		case backend.KindOllama:
			c.BaseURL = backend.DefaultOllamaURL
		case backend.KindOpenAI:
			c.BaseURL = defaultOpenAIURL
		}
	}
}

// Check reports configuration errors that make startup impossible.
func (c *Config) Check() error {
	switch c.Backend {
	case backend.KindOllama, backend.KindOpenAI:
	default:
		return apperrors.Wrap(apperrors.CodeConfig,
			fmt.Sprintf("unknown backend %q (use %q or %q)", c.Backend, backend.KindOllama, backend.KindOpenAI),
			backend.ErrUnknownBackend)
	}
	if strings.TrimSpace(c.Model) == "" {
		return apperrors.New(apperrors.CodeConfig, "model is required")
	}
	if c.TimeoutSeconds <= 0 {
		return apperrors.New(apperrors.CodeConfig, fmt.Sprintf("timeout_seconds must be positive, got %d", c.TimeoutSeconds))
	}
	return nil
}

// Timeout returns the per-call backend timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// BackendConfig returns the settings for backend.New.
func (c *Config) BackendConfig() backend.Config {
	return backend.Config{
		Kind:    c.Backend,
		Model:   c.Model,
		BaseURL: c.BaseURL,
		APIKey:  c.APIKey,
		Timeout: c.Timeout(),
	}
}

// ToolLimitsConfig returns tool limits for runtime enforcement.
func (c *Config) ToolLimitsConfig() tools.Limits {
	return tools.Limits{
		ReadMaxChars:     c.ToolLimits.ReadMaxChars,
		SearchMaxResults: c.ToolLimits.SearchMaxResults,
		SearchLineWidth:  c.ToolLimits.SearchLineWidth,
		MaxFileSizeBytes: c.ToolLimits.MaxFileSizeBytes,
		MaxListEntries:   c.ToolLimits.MaxListEntries,
	}
}

// ToolTimeoutsConfig returns timeout configuration for tools.
func (c *Config) ToolTimeoutsConfig() tools.TimeoutConfig {
	perTool := make(map[string]time.Duration, len(c.ToolTimeouts.PerToolSeconds))
	for name, seconds := range c.ToolTimeouts.PerToolSeconds {
		if seconds <= 0 {
			continue
		}
		perTool[name] = time.Duration(seconds) * time.Second
	}

	var defaultTimeout time.Duration
	if c.ToolTimeouts.DefaultSeconds > 0 {
		defaultTimeout = time.Duration(c.ToolTimeouts.DefaultSeconds) * time.Second
	}

	return tools.TimeoutConfig{
		Default: defaultTimeout,
		PerTool: perTool,
	}
}

// ToolOutputFiltersConfig returns output filter configuration for tools.
func (c *Config) ToolOutputFiltersConfig() tools.OutputFilterConfig {
	return tools.OutputFilterConfig{
		MaxChars:     c.ToolOutputFilters.MaxChars,
		StripANSI:    c.ToolOutputFilters.StripANSI,
		StripControl: c.ToolOutputFilters.StripControl,
	}
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate(registry *tools.Registry) []ValidationWarning {
	var warnings []ValidationWarning

	if c.Backend == backend.KindOpenAI && c.APIKey == "" {
		warnings = append(warnings, ValidationWarning{
			Field:   "api_key",
			Message: "no API key set for the openai backend (set api_key or OPENAI_API_KEY); only keyless servers will accept requests",
		})
	}

	if c.BaseURL != "" && !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		warnings = append(warnings, ValidationWarning{
			Field:   "base_url",
			Message: fmt.Sprintf("base_url %q should start with http:// or https://", c.BaseURL),
		})
	}

	if c.TimeoutSeconds > 600 {
		warnings = append(warnings, ValidationWarning{
			Field:   "timeout_seconds",
			Message: fmt.Sprintf("timeout_seconds %d is unusually long; a stuck backend will block the shell", c.TimeoutSeconds),
		})
	}

	if c.ToolOutputFilters.MaxChars > 0 && c.ToolLimits.ReadMaxChars > c.ToolOutputFilters.MaxChars {
		warnings = append(warnings, ValidationWarning{
			Field: "tool_limits.read_max_chars",
			Message: fmt.Sprintf("read_max_chars %d exceeds tool_output_filters.max_chars %d; file content will be cut by the output filter",
				c.ToolLimits.ReadMaxChars, c.ToolOutputFilters.MaxChars),
		})
	}

	// Validate timeout overrides against registered tools
	if registry != nil {
		names := make([]string, 0, len(c.ToolTimeouts.PerToolSeconds))
		for name := range c.ToolTimeouts.PerToolSeconds {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := registry.Get(name); !ok {
				warnings = append(warnings, ValidationWarning{
					Field:   "tool_timeouts.per_tool_seconds",
					Message: fmt.Sprintf("tool %q is not registered", name),
				})
			}
		}
	}

	return warnings
}

// ExampleConfigYAML renders the default configuration as YAML, suitable as a starting quill.yaml.
func ExampleConfigYAML() (string, error) {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return "", err
	}
	return string(data), nil
}
