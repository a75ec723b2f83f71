package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeSettingsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearProviderEnv(t *testing.T) {
	t.Helper()
	t.Setenv(apiKeyEnv, "")
	t.Setenv(apiURLEnv, "")
}

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()

	if settings.WorklistFile != "db.json" {
		t.Errorf("WorklistFile = %q", settings.WorklistFile)
	}
	if settings.OutputDirectory != "docs" {
		t.Errorf("OutputDirectory = %q", settings.OutputDirectory)
	}
	if settings.IndexFile != "llms.txt" {
		t.Errorf("IndexFile = %q", settings.IndexFile)
	}
	if settings.RateLimit != time.Second {
		t.Errorf("RateLimit = %v, want 1s", settings.RateLimit)
	}
	if settings.MaxFilenameLength != 200 {
		t.Errorf("MaxFilenameLength = %d, want 200", settings.MaxFilenameLength)
	}
	if settings.Provider.Name != providerFirecrawl || settings.Provider.BaseURL != "https://api.firecrawl.dev" {
		t.Errorf("Provider = %+v", settings.Provider)
	}
	if err := settings.Validate(); err != nil {
		t.Errorf("default settings invalid: %v", err)
	}
}

func TestNewConfigMergesPartialSettings(t *testing.T) {
	clearProviderEnv(t)
	path := writeSettingsFile(t, "output_directory: pages\nrate_limit: 250ms\nprovider:\n  name: direct\n")

	cfg, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	if cfg.Settings.OutputDirectory != "pages" {
		t.Errorf("OutputDirectory = %q, want pages", cfg.Settings.OutputDirectory)
	}
	if cfg.Settings.RateLimit != 250*time.Millisecond {
		t.Errorf("RateLimit = %v, want 250ms", cfg.Settings.RateLimit)
	}
	if cfg.Settings.Provider.Name != providerDirect {
		t.Errorf("Provider.Name = %q, want direct", cfg.Settings.Provider.Name)
	}
	if cfg.Settings.WorklistFile != "db.json" || cfg.Settings.Provider.Timeout != time.Minute {
		t.Errorf("defaults not kept: %+v", cfg.Settings)
	}
}

func TestNewConfigOverrides(t *testing.T) {
	clearProviderEnv(t)
	path := writeSettingsFile(t, "worklist_file: from-file.json\n")

	worklist := "flag.json"
	output := "flag-docs"
	index := "flag-llms.txt"
	provider := providerDirect
	delay := 3 * time.Second

	cfg, err := NewConfig(&ConfigOverrides{
		SettingsPath:    &path,
		WorklistPath:    &worklist,
		OutputDirectory: &output,
		IndexPath:       &index,
		Provider:        &provider,
		Delay:           &delay,
	})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}

	s := cfg.Settings
	if s.WorklistFile != worklist || s.OutputDirectory != output || s.IndexFile != index {
		t.Errorf("paths not overridden: %+v", s)
	}
	if s.Provider.Name != providerDirect || s.RateLimit != delay {
		t.Errorf("provider or delay not overridden: %+v", s)
	}
}

func TestNewConfigErrors(t *testing.T) {
	tests := []struct {
		name     string
		settings string
		contains string
	}{
		{"zero filename length", "max_filename_length: 0\n", "max_filename_length"},
		{"invalid title pattern", "title_suffix_pattern: '([a-z'\n", "title_suffix_pattern"},
		{"unknown provider", "provider:\n  name: scrapy\n", "name"},
		{"relative provider URL", "provider:\n  base_url: api.example.com\n", "base_url"},
		{"negative rate limit", "rate_limit: -1s\n", "rate_limit"},
		{"empty output directory", "output_directory: ''\n", "output_directory"},
		{"malformed YAML", "worklist_file: [unclosed\n", "loading settings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearProviderEnv(t)
			path := writeSettingsFile(t, tt.settings)

			_, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
			var cfgErr *ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("NewConfig() error = %v, want ConfigurationError", err)
			}
			if !strings.Contains(err.Error(), tt.contains) {
				t.Errorf("error = %q, want it to mention %q", err.Error(), tt.contains)
			}
		})
	}
}

func TestNewConfigMissingExplicitSettings(t *testing.T) {
	clearProviderEnv(t)
	path := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("NewConfig() error = %v, want ConfigurationError", err)
	}
}

func TestNewConfigCredential(t *testing.T) {
	path := writeSettingsFile(t, "")
	flagKey := "from-flag"
	emptyKey := ""

	tests := []struct {
		name     string
		env      string
		flag     *string
		expected string
	}{
		{"environment", "from-env", nil, "from-env"},
		{"flag wins", "from-env", &flagKey, "from-flag"},
		{"empty flag ignored", "from-env", &emptyKey, "from-env"},
		{"none", "", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(apiKeyEnv, tt.env)
			t.Setenv(apiURLEnv, "")

			cfg, err := NewConfig(&ConfigOverrides{SettingsPath: &path, APIKey: tt.flag})
			if err != nil {
				t.Fatalf("NewConfig() error = %v", err)
			}
			if cfg.APIKey != tt.expected {
				t.Errorf("APIKey = %q, want %q", cfg.APIKey, tt.expected)
			}

			err = cfg.RequireCredential()
			if tt.expected == "" {
				var cfgErr *ConfigurationError
				if !errors.As(err, &cfgErr) || !strings.Contains(err.Error(), apiKeyEnv) {
					t.Errorf("RequireCredential() error = %v, want ConfigurationError naming %s", err, apiKeyEnv)
				}
			} else if err != nil {
				t.Errorf("RequireCredential() error = %v", err)
			}
		})
	}
}

func TestNewConfigAPIURLEnv(t *testing.T) {
	path := writeSettingsFile(t, "")
	t.Setenv(apiKeyEnv, "")
	t.Setenv(apiURLEnv, "http://localhost:3002")

	cfg, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if cfg.Settings.Provider.BaseURL != "http://localhost:3002" {
		t.Errorf("BaseURL = %q, want environment value", cfg.Settings.Provider.BaseURL)
	}
}

func TestDirectProviderNeedsNoCredential(t *testing.T) {
	clearProviderEnv(t)
	path := writeSettingsFile(t, "provider:\n  name: direct\n  base_url: ''\n")

	cfg, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if err := cfg.RequireCredential(); err != nil {
		t.Errorf("RequireCredential() error = %v", err)
	}
}

func TestGetIndexTemplate(t *testing.T) {
	settings := DefaultSettings()

	cfg := &Config{Settings: settings}
	content, err := cfg.GetIndexTemplate()
	if err != nil || content != defaultIndexTemplate {
		t.Errorf("GetIndexTemplate() should return the built-in template, err = %v", err)
	}

	path := filepath.Join(t.TempDir(), "settings.tmpl")
	if err := os.WriteFile(path, []byte("from settings"), 0644); err != nil {
		t.Fatal(err)
	}
	settings.IndexTemplate = path
	if content, _ := cfg.GetIndexTemplate(); content != "from settings" {
		t.Errorf("GetIndexTemplate() = %q, want settings template", content)
	}

	override := filepath.Join(t.TempDir(), "flag.tmpl")
	if err := os.WriteFile(override, []byte("from flag"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg.Overrides = &ConfigOverrides{TemplatePath: &override}
	if content, _ := cfg.GetIndexTemplate(); content != "from flag" {
		t.Errorf("GetIndexTemplate() = %q, want flag template", content)
	}
}

func TestNewConfigDotEnv(t *testing.T) {
	dir := t.TempDir()
	dotEnv := "FIRECRAWL_API_KEY=from-dotenv\nFIRECRAWL_API_URL=http://localhost:3002\n"
	if err := os.WriteFile(filepath.Join(dir, dotEnvFile), []byte(dotEnv), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeSettingsFile(t, "")

	// restore both variables after the test, then leave them unset so the
	// file is the only source
	clearProviderEnv(t)
	os.Unsetenv(apiKeyEnv)
	os.Unsetenv(apiURLEnv)
	chdirForTest(t, dir)

	cfg, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if cfg.APIKey != "from-dotenv" {
		t.Errorf("APIKey = %q, want value from %s", cfg.APIKey, dotEnvFile)
	}
	if cfg.Settings.Provider.BaseURL != "http://localhost:3002" {
		t.Errorf("BaseURL = %q, want value from %s", cfg.Settings.Provider.BaseURL, dotEnvFile)
	}
	if err := cfg.RequireCredential(); err != nil {
		t.Errorf("RequireCredential() error = %v", err)
	}
}

func TestNewConfigEnvironmentWinsOverDotEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, dotEnvFile), []byte("FIRECRAWL_API_KEY=from-dotenv\n"), 0644); err != nil {
		t.Fatal(err)
	}
	path := writeSettingsFile(t, "")

	t.Setenv(apiKeyEnv, "from-env")
	t.Setenv(apiURLEnv, "")
	chdirForTest(t, dir)

	cfg, err := NewConfig(&ConfigOverrides{SettingsPath: &path})
	if err != nil {
		t.Fatalf("NewConfig() error = %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want environment value", cfg.APIKey)
	}
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	if err := loadDotEnv(filepath.Join(t.TempDir(), dotEnvFile)); err != nil {
		t.Errorf("loadDotEnv() on a missing file error = %v", err)
	}
}

// chdirForTest changes the working directory for the duration of the test
// and restores it on cleanup (equivalent to testing.T.Chdir, Go 1.24+).
func chdirForTest(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
