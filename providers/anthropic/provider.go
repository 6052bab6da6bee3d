package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haowjy/tableau-toolbox-go"
)

// Provider implements the llmprovider.Provider interface for Anthropic (Claude) models.
type Provider struct {
	client *anthropic.Client
}

// NewProvider creates a new Anthropic provider with the given API key.
// Extra request options (base URL, HTTP client) are appended after the key.
// The SDK's automatic retries are disabled: each call is a single attempt.
func NewProvider(apiKey string, opts ...option.RequestOption) (*Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrMissingAPIKey
	}

	clientOpts := append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	client := anthropic.NewClient(clientOpts...)

	return &Provider{
		client: &client,
	}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderAnthropic
}

// SupportsModel returns true if this provider supports the given model.
// Anthropic models start with "claude-"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "claude-")
}

// GenerateResponse generates a response from Claude.
func (p *Provider) GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error) {
	message, err := p.client.Messages.New(ctx, buildMessageParams(req))
	if err != nil {
		return nil, p.convertError(err)
	}

	return convertFromAnthropicResponse(message)
}

// convertError maps SDK failures onto the library error classes.
func (p *Provider) convertError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return llmprovider.NewStatusError(p.Name(), apiErr.StatusCode, apiErrorMessage(apiErr))
	}

	if netErr := llmprovider.AsNetworkError(p.Name(), err); netErr != nil {
		return netErr
	}

	return fmt.Errorf("anthropic API call failed: %w", err)
}

// apiErrorMessage pulls error.message out of the API error body.
func apiErrorMessage(apiErr *anthropic.Error) string {
	var body struct {
		Error struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(apiErr.RawJSON()), &body); err == nil && body.Error.Message != "" {
		return body.Error.Message
	}
	return apiErr.Error()
}
