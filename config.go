package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".docs-ingest"

const (
	providerFirecrawl = "firecrawl"
	providerDirect    = "direct"
)

const (
	apiKeyEnv = "FIRECRAWL_API_KEY"
	apiURLEnv = "FIRECRAWL_API_URL"
)

// dotEnvFile is read from the working directory; variables already set in
// the environment win over it
const dotEnvFile = ".env"

// Embedded configuration files
//
//go:embed config/settings.yaml
var defaultSettings []byte

//go:embed templates/llms.txt.tmpl
var defaultIndexTemplate string

func init() {
	// Report validation failures with the settings file keys.
	validation.ErrorTag = "yaml"
}

// ConfigOverrides allows overriding settings from command line flags
type ConfigOverrides struct {
	SettingsPath    *string
	WorklistPath    *string
	OutputDirectory *string
	IndexPath       *string
	TemplatePath    *string
	Provider        *string
	Delay           *time.Duration
	APIKey          *string
}

// ProviderSettings selects and tunes the scraping provider
type ProviderSettings struct {
	Name            string        `yaml:"name"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	OnlyMainContent bool          `yaml:"only_main_content"`
	ContentSelector string        `yaml:"content_selector"`
}

// Validate checks the provider section
func (p ProviderSettings) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required, validation.In(providerFirecrawl, providerDirect)),
		validation.Field(&p.BaseURL, validation.When(p.Name == providerFirecrawl, validation.Required, validation.By(absoluteURL))),
		validation.Field(&p.Timeout, validation.Min(time.Duration(0))),
	)
}

// RequiresCredential reports whether the provider needs an API key
func (p ProviderSettings) RequiresCredential() bool {
	return p.Name != providerDirect
}

// Settings represents the YAML configuration structure
type Settings struct {
	WorklistFile       string           `yaml:"worklist_file"`
	OutputDirectory    string           `yaml:"output_directory"`
	IndexFile          string           `yaml:"index_file"`
	IndexTemplate      string           `yaml:"index_template"`
	IndexTitle         string           `yaml:"index_title"`
	IndexBaseURL       string           `yaml:"index_base_url"`
	IndexRepository    string           `yaml:"index_repository"`
	IndexTopics        []string         `yaml:"index_topics"`
	TitleSuffixPattern string           `yaml:"title_suffix_pattern"`
	RateLimit          time.Duration    `yaml:"rate_limit"`
	MaxFilenameLength  int              `yaml:"max_filename_length"`
	Provider           ProviderSettings `yaml:"provider"`
}

// Validate checks that the settings can drive a run
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.WorklistFile, validation.Required),
		validation.Field(&s.OutputDirectory, validation.Required),
		validation.Field(&s.IndexFile, validation.Required),
		validation.Field(&s.TitleSuffixPattern, validation.By(compilableRegexp)),
		validation.Field(&s.RateLimit, validation.Min(time.Duration(0))),
		validation.Field(&s.MaxFilenameLength, validation.Required, validation.Min(1)),
		validation.Field(&s.Provider),
	)
}

// Config holds the resolved settings, overrides and credential
type Config struct {
	Settings  *Settings
	Overrides *ConfigOverrides
	APIKey    string
}

// NewConfig creates a new Config with settings, environment and overrides applied
func NewConfig(overrides *ConfigOverrides) (*Config, error) {
	if overrides == nil {
		overrides = &ConfigOverrides{}
	}

	if err := loadDotEnv(dotEnvFile); err != nil {
		return nil, configErrorf("loading %s: %v", dotEnvFile, err)
	}

	var (
		settings *Settings
		err      error
	)
	if overrides.SettingsPath != nil {
		// Explicit settings file must exist
		settings, err = loadSettingsRequired(*overrides.SettingsPath)
	} else {
		settings, err = loadSettings(getConfigPath("settings.yaml"))
	}
	if err != nil {
		return nil, configErrorf("loading settings: %v", err)
	}

	if v := os.Getenv(apiURLEnv); v != "" {
		settings.Provider.BaseURL = v
	}
	applyOverrides(settings, overrides)

	if err := settings.Validate(); err != nil {
		return nil, configErrorf("invalid settings: %v", err)
	}

	apiKey := os.Getenv(apiKeyEnv)
	if overrides.APIKey != nil && *overrides.APIKey != "" {
		apiKey = *overrides.APIKey
	}

	return &Config{
		Settings:  settings,
		Overrides: overrides,
		APIKey:    apiKey,
	}, nil
}

// RequireCredential fails when the selected provider needs an API key and none is set
func (c *Config) RequireCredential() error {
	if c.Settings.Provider.RequiresCredential() && c.APIKey == "" {
		return configErrorf("%s environment variable is required.\nGet your API key from: https://www.firecrawl.dev/", apiKeyEnv)
	}
	return nil
}

// GetIndexTemplate returns the index template (from override file or embedded)
func (c *Config) GetIndexTemplate() (string, error) {
	path := c.Settings.IndexTemplate
	if c.Overrides != nil && c.Overrides.TemplatePath != nil {
		path = *c.Overrides.TemplatePath
	}
	if path == "" {
		return defaultIndexTemplate, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading index template %s: %w", path, err)
	}
	return string(content), nil
}

func applyOverrides(settings *Settings, o *ConfigOverrides) {
	if o.WorklistPath != nil {
		settings.WorklistFile = *o.WorklistPath
	}
	if o.OutputDirectory != nil {
		settings.OutputDirectory = *o.OutputDirectory
	}
	if o.IndexPath != nil {
		settings.IndexFile = *o.IndexPath
	}
	if o.Provider != nil {
		settings.Provider.Name = *o.Provider
	}
	if o.Delay != nil {
		settings.RateLimit = *o.Delay
	}
}

// DefaultSettings returns the embedded default settings
func DefaultSettings() *Settings {
	var settings Settings
	if err := yaml.Unmarshal(defaultSettings, &settings); err != nil {
		panic(fmt.Sprintf("embedded settings.yaml is invalid: %v", err))
	}
	return &settings
}

// loadSettings loads settings from YAML file with fallback to defaults
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}
	return parseSettings(data)
}

// loadSettingsRequired loads settings from YAML file, failing if file doesn't exist
func loadSettingsRequired(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		return nil, err
	}
	return parseSettings(data)
}

// parseSettings decodes YAML on top of the defaults so partial files are valid
func parseSettings(data []byte) (*Settings, error) {
	settings := DefaultSettings()
	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}
	return settings, nil
}

// loadDotEnv exports the variables of a dotenv file. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// getConfigPath returns the path to a config file in the config directory
func getConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

func compilableRegexp(value any) error {
	pattern, _ := value.(string)
	if _, err := regexp.Compile(pattern); err != nil {
		return validation.NewError("validation_regexp_invalid", err.Error())
	}
	return nil
}

func absoluteURL(value any) error {
	raw, _ := value.(string)
	if raw == "" {
		return nil
	}
	if _, err := parseAbsoluteURL(raw); err != nil {
		return validation.NewError("validation_url_invalid", err.Error())
	}
	return nil
}
