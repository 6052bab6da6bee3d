// Package providers registers the concrete LLM backends with a Generator.
package providers

import (
	"context"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/providers/anthropic"
	"github.com/haowjy/tableau-toolbox-go/providers/gemini"
	"github.com/haowjy/tableau-toolbox-go/providers/lorem"
	"github.com/haowjy/tableau-toolbox-go/providers/openai"
)

// Options tunes how provider clients are built.
type Options struct {
	// OpenAIBaseURL overrides the Chat Completions endpoint (OpenAI-compatible gateways)
	OpenAIBaseURL string

	// AnthropicBaseURL overrides the Messages API endpoint
	AnthropicBaseURL string

	// EnableLorem registers the keyless placeholder provider
	EnableLorem bool
}

// Register wires OpenAI, Gemini and Claude into g, plus Lorem when enabled.
// Clients are built lazily by the generator, only once a key is present.
func Register(g *llmprovider.Generator, opts Options) {
	g.Register(llmprovider.ProviderOpenAI, func(apiKey string) (llmprovider.Provider, error) {
		return openai.NewProvider(apiKey, openai.WithBaseURL(opts.OpenAIBaseURL))
	})

	g.Register(llmprovider.ProviderGemini, func(apiKey string) (llmprovider.Provider, error) {
		return gemini.NewProvider(context.Background(), apiKey)
	})

	g.Register(llmprovider.ProviderAnthropic, func(apiKey string) (llmprovider.Provider, error) {
		var extra []option.RequestOption
		if opts.AnthropicBaseURL != "" {
			extra = append(extra, option.WithBaseURL(opts.AnthropicBaseURL))
		}
		return anthropic.NewProvider(apiKey, extra...)
	})

	if opts.EnableLorem {
		g.RegisterKeyless(llmprovider.ProviderLorem, func(string) (llmprovider.Provider, error) {
			return lorem.NewProvider(), nil
		})
	}
}
