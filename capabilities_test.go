package llmprovider

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapabilityRegistry_EmbeddedDefaults(t *testing.T) {
	registry, err := NewCapabilityRegistry()
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", registry.DefaultModel(ProviderOpenAI))
	assert.Equal(t, "gemini-2.0-flash", registry.DefaultModel(ProviderGemini))
	assert.Equal(t, "claude-3-5-haiku-20241022", registry.DefaultModel(ProviderAnthropic))
	assert.Equal(t, "", registry.DefaultModel(ProviderID("unknown")))

	models := registry.Models(ProviderOpenAI)
	require.NotEmpty(t, models)
	assert.Equal(t, "gpt-4o-mini", models[0], "default model is listed first")

	assert.True(t, registry.SupportsModel(ProviderAnthropic, "claude-3-5-haiku-20241022"))
	assert.False(t, registry.SupportsModel(ProviderAnthropic, "gpt-4o"))
}

func TestCapabilityRegistry_LoadFromFile(t *testing.T) {
	registry, err := NewCapabilityRegistry()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := `version: "2.0.0"
providers:
  openai:
    default: gpt-4.1-mini
    models:
      gpt-4.1-mini:
        context_window: 1000000
        max_output_tokens: 32768
        description: "Override"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	require.NoError(t, registry.LoadCapabilitiesFromFile(path))

	assert.Equal(t, "gpt-4.1-mini", registry.DefaultModel(ProviderOpenAI))
	assert.Equal(t, "gemini-2.0-flash", registry.DefaultModel(ProviderGemini), "providers absent from the file are kept")
}

func TestCapabilityRegistry_RejectsUnlistedDefault(t *testing.T) {
	registry, err := NewCapabilityRegistry()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := `providers:
  gemini:
    default: gemini-9
    models:
      gemini-2.0-flash: {}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	assert.Error(t, registry.LoadCapabilitiesFromFile(path))
	assert.Equal(t, "gemini-2.0-flash", registry.DefaultModel(ProviderGemini))
}

func TestCapabilityRegistry_RejectsUnknownProvider(t *testing.T) {
	registry, err := NewCapabilityRegistry()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "models.yaml")
	yaml := `providers:
  mistral:
    default: mistral-small
    models:
      mistral-small: {}
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	assert.ErrorContains(t, registry.LoadCapabilitiesFromFile(path), "unknown provider mistral")
	assert.Empty(t, registry.Models(ProviderID("mistral")))
}

func TestCheckRequest(t *testing.T) {
	registry, err := NewCapabilityRegistry()
	require.NoError(t, err)

	req := NewPromptRequest("claude-3-5-haiku-20241022", "p", &RequestParams{
		Temperature: float64Ptr(1.5),
		MaxTokens:   intPtr(1_000_000),
	})
	warnings := CheckRequest(registry, ProviderAnthropic, req)

	codes := map[WarningCode]bool{}
	for _, w := range warnings {
		codes[w.Code] = true
	}
	assert.True(t, codes[WarningCodeTemperatureOutOfRange])
	assert.True(t, codes[WarningCodeMaxTokensTooHigh])

	unknown := CheckRequest(registry, ProviderOpenAI, NewPromptRequest("gpt-experimental", "p", nil))
	require.Len(t, unknown, 1)
	assert.Equal(t, WarningCodeModelUnknown, unknown[0].Code)
}
