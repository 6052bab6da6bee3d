package llmprovider

import (
	"fmt"
	"strings"
)

// ProviderID represents a unique provider identifier.
// Using a typed constant prevents typos and provides compile-time safety.
type ProviderID string

// Known provider identifiers
const (
	// ProviderOpenAI is OpenAI's Chat Completions API
	ProviderOpenAI ProviderID = "openai"

	// ProviderGemini is Google's Gemini API
	ProviderGemini ProviderID = "gemini"

	// ProviderAnthropic is Anthropic's Claude API
	ProviderAnthropic ProviderID = "anthropic"

	// ProviderLorem is the keyless placeholder provider for UI development
	ProviderLorem ProviderID = "lorem"
)

// providerOrder is the order providers are listed in the UI.
var providerOrder = []ProviderID{ProviderOpenAI, ProviderGemini, ProviderAnthropic, ProviderLorem}

// String returns the string representation of the provider ID
func (p ProviderID) String() string {
	return string(p)
}

// DisplayName returns the name shown in the provider selector.
func (p ProviderID) DisplayName() string {
	switch p {
	case ProviderOpenAI:
		return "OpenAI"
	case ProviderGemini:
		return "Gemini"
	case ProviderAnthropic:
		return "Claude"
	case ProviderLorem:
		return "Lorem (dev)"
	default:
		return string(p)
	}
}

// IsValid returns true if the provider ID is a known provider
func (p ProviderID) IsValid() bool {
	switch p {
	case ProviderOpenAI, ProviderGemini, ProviderAnthropic, ProviderLorem:
		return true
	default:
		return false
	}
}

// ParseProviderID maps a user-facing provider name to its ProviderID.
// Matching is case-insensitive and accepts both the selector names
// ("OpenAI", "Gemini", "Claude") and vendor aliases ("google", "anthropic").
func ParseProviderID(name string) (ProviderID, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "gemini", "google":
		return ProviderGemini, nil
	case "claude", "anthropic":
		return ProviderAnthropic, nil
	case "lorem":
		return ProviderLorem, nil
	}
	return "", &ConfigurationError{
		Provider: name,
		Reason:   fmt.Sprintf("unknown provider %q (valid: OpenAI, Gemini, Claude)", name),
		Err:      ErrUnknownProvider,
	}
}

// Credentials holds the API key for each hosted provider.
// It is loaded once at process start and passed explicitly to NewGenerator.
type Credentials struct {
	OpenAI    string
	Gemini    string
	Anthropic string
}

// Key returns the API key configured for provider, and whether one is set.
func (c Credentials) Key(provider ProviderID) (string, bool) {
	var key string
	switch provider {
	case ProviderOpenAI:
		key = c.OpenAI
	case ProviderGemini:
		key = c.Gemini
	case ProviderAnthropic:
		key = c.Anthropic
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

// EnvVar returns the environment variable that carries the key for provider.
func EnvVar(provider ProviderID) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}
