package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ProviderOverride tunes one upstream provider beyond the env defaults.
type ProviderOverride struct {
	BaseURL    string            `yaml:"base_url"`
	APIKeyEnv  string            `yaml:"api_key_env"`
	Headers    map[string]string `yaml:"headers"`
	TimeoutSec int               `yaml:"timeout_sec"`
}

// ProviderOverrides maps a provider tag (openai, gemini, openrouter) to
// its override block loaded from PROVIDER_CONFIG_FILE.
type ProviderOverrides struct {
	Providers map[string]ProviderOverride `yaml:"providers"`
}

// LoadProviderOverrides reads the optional YAML provider file. The file is
// operator supplied so unknown keys are rejected early.
func LoadProviderOverrides(path string) (*ProviderOverrides, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	overrides := &ProviderOverrides{}
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	if err := decoder.Decode(overrides); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return overrides, nil
}

// Get returns the override for a provider tag, if configured.
func (p *ProviderOverrides) Get(tag string) (ProviderOverride, bool) {
	if p == nil {
		return ProviderOverride{}, false
	}
	override, ok := p.Providers[tag]
	return override, ok
}
