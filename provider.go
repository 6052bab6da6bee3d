package llmprovider

import (
	"context"
)

// Provider defines the interface that all LLM providers must implement.
// This abstraction allows supporting multiple providers (OpenAI, Gemini, Claude, ...)
// behind one call contract. Adding a provider means adding one implementation
// and registering its Factory; the Generator never switches on provider names.
//
// Types used by this interface:
//   - GenerateRequest, Message: defined in request.go
//   - GenerateResponse: defined in response.go
type Provider interface {
	// GenerateResponse issues one blocking completion request.
	// Implementations must not retry and must map failures to
	// *NetworkError or *ProviderError.
	GenerateResponse(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)

	// Name returns the provider identifier.
	Name() ProviderID

	// SupportsModel returns true if the provider supports the given model.
	SupportsModel(model string) bool
}

// Factory constructs a Provider from its API key.
// Keyless providers receive an empty string.
type Factory func(apiKey string) (Provider, error)
