package llmprovider

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/models.yaml
var embeddedModelsYAML []byte

// Capabilities Philosophy:
//
// The registry lists MODEL METADATA for the model selector and for advisory
// warnings. It does NOT enforce validation - provider APIs are the source of truth.
//
// Capabilities may be outdated as providers release new models.
// Deployments can override the embedded catalog by:
//  1. Calling LoadCapabilitiesFromFile() with custom YAML (MODELS_FILE)
//  2. Calling RegisterProviderCapabilities() programmatically

// CatalogFile is the on-disk and embedded YAML layout.
type CatalogFile struct {
	Version     string                           `yaml:"version"`      // Semantic version (e.g., "1.0.0")
	LastUpdated string                           `yaml:"last_updated"` // ISO 8601 date
	Providers   map[string]*ProviderCapabilities `yaml:"providers"`
}

// ProviderCapabilities represents the selectable models of one provider
type ProviderCapabilities struct {
	Default     string                     `yaml:"default"`
	Models      map[string]ModelCapability `yaml:"models"`
	Constraints ProviderConstraints        `yaml:"constraints"`
}

// ModelCapability represents the capabilities of a specific model
type ModelCapability struct {
	ContextWindow   int    `yaml:"context_window"`
	MaxOutputTokens int    `yaml:"max_output_tokens"`
	Description     string `yaml:"description"`
}

// ProviderConstraints defines provider-wide parameter limits
type ProviderConstraints struct {
	TemperatureMin float64 `yaml:"temperature_min"`
	TemperatureMax float64 `yaml:"temperature_max"`
}

// CapabilityRegistry manages provider capabilities
type CapabilityRegistry struct {
	capabilities map[ProviderID]*ProviderCapabilities
	mu           sync.RWMutex
}

// NewCapabilityRegistry returns a registry seeded with the embedded catalog.
func NewCapabilityRegistry() (*CapabilityRegistry, error) {
	r := &CapabilityRegistry{capabilities: make(map[ProviderID]*ProviderCapabilities)}
	if err := r.load(embeddedModelsYAML); err != nil {
		return nil, fmt.Errorf("failed to load embedded model catalog: %w", err)
	}
	return r, nil
}

func (r *CapabilityRegistry) load(data []byte) error {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to unmarshal capabilities: %w", err)
	}

	for name, caps := range file.Providers {
		if !ProviderID(name).IsValid() {
			return fmt.Errorf("unknown provider %s in model catalog", name)
		}
		if caps == nil {
			continue
		}
		if caps.Default != "" {
			if _, ok := caps.Models[caps.Default]; !ok {
				return fmt.Errorf("provider %s: default model %s is not listed", name, caps.Default)
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, caps := range file.Providers {
		if caps != nil {
			r.capabilities[ProviderID(name)] = caps
		}
	}
	return nil
}

// GetProviderCapabilities returns capabilities for a provider
func (r *CapabilityRegistry) GetProviderCapabilities(provider ProviderID) (*ProviderCapabilities, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	caps, ok := r.capabilities[provider]
	if !ok {
		return nil, fmt.Errorf("no capabilities found for provider: %s", provider)
	}
	return caps, nil
}

// GetModelCapability returns capabilities for a specific model
func (r *CapabilityRegistry) GetModelCapability(provider ProviderID, model string) (*ModelCapability, error) {
	providerCaps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return nil, err
	}

	modelCap, ok := providerCaps.Models[model]
	if !ok {
		return nil, fmt.Errorf("model %s not found for provider %s", model, provider)
	}
	return &modelCap, nil
}

// SupportsModel checks if a provider lists a specific model
func (r *CapabilityRegistry) SupportsModel(provider ProviderID, model string) bool {
	_, err := r.GetModelCapability(provider, model)
	return err == nil
}

// DefaultModel returns the model used when the request carries no override.
func (r *CapabilityRegistry) DefaultModel(provider ProviderID) string {
	caps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return ""
	}
	return caps.Default
}

// Models lists the selectable models of provider, default first, the rest sorted.
func (r *CapabilityRegistry) Models(provider ProviderID) []string {
	caps, err := r.GetProviderCapabilities(provider)
	if err != nil {
		return nil
	}

	models := make([]string, 0, len(caps.Models))
	for name := range caps.Models {
		if name != caps.Default {
			models = append(models, name)
		}
	}
	sort.Strings(models)
	if caps.Default != "" {
		models = append([]string{caps.Default}, models...)
	}
	return models
}

// LoadCapabilitiesFromFile loads provider capabilities from a YAML file.
// Providers present in the file replace the embedded entries; others are kept.
func (r *CapabilityRegistry) LoadCapabilitiesFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read capabilities file: %w", err)
	}
	return r.load(data)
}
