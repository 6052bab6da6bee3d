package lorem

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	loremgen "github.com/bozaro/golorem"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

// Provider is a keyless placeholder provider that answers with lorem ipsum
// wrapped in calculated-field syntax. It lets the UI be exercised without
// API keys and is only registered when explicitly enabled.
type Provider struct {
	// mu guards generator; its random source is not safe for concurrent use
	mu        sync.Mutex
	generator *loremgen.Lorem
}

// NewProvider creates a new lorem ipsum provider.
func NewProvider() *Provider {
	return &Provider{
		generator: loremgen.New(),
	}
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderLorem
}

// SupportsModel returns true if the model name starts with "lorem-".
// Example models: "lorem-fast", "lorem-slow"
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "lorem-")
}

// GenerateResponse returns a placeholder formula after a model-dependent delay.
func (p *Provider) GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error) {
	if !p.SupportsModel(req.Model) {
		return nil, &llmprovider.ModelError{
			Model:    req.Model,
			Provider: p.Name().String(),
			Reason:   "model not supported by Lorem provider (must start with 'lorem-')",
			Err:      llmprovider.ErrInvalidModel,
		}
	}

	select {
	case <-time.After(responseDelay(req.Model)):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	maxTokens := req.Params.GetMaxTokens(llmprovider.DefaultMaxTokens)
	text := p.generateFormula(maxTokens)

	return &llmprovider.GenerateResponse{
		Text:         text,
		Model:        req.Model,
		InputTokens:  estimateTokens(req.Messages),
		OutputTokens: len(strings.Fields(text)),
		StopReason:   "end_turn",
		ResponseMetadata: map[string]interface{}{
			"mock":     true,
			"provider": "lorem",
		},
	}, nil
}

// responseDelay returns the simulated latency for model.
// - lorem-slow: 2s
// - lorem-medium: 500ms
// - everything else: none
func responseDelay(model string) time.Duration {
	switch {
	case strings.Contains(model, "slow"):
		return 2 * time.Second
	case strings.Contains(model, "medium"):
		return 500 * time.Millisecond
	default:
		return 0
	}
}

// generateFormula builds a comment line plus an IIF expression whose labels
// are lorem words, staying within maxWords words.
func (p *Provider) generateFormula(maxWords int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	comment := p.generator.Sentence(3, 8)
	if words := strings.Fields(comment); len(words) > maxWords {
		comment = strings.Join(words[:maxWords], " ")
	}
	return fmt.Sprintf("// %s\nIIF([%s] > 0, '%s', '%s')",
		comment,
		p.generator.Word(4, 8),
		p.generator.Word(3, 6),
		p.generator.Word(3, 6),
	)
}

// estimateTokens estimates the token count for a list of messages.
// Uses word count as a rough approximation.
func estimateTokens(messages []llmprovider.Message) int {
	totalWords := 0
	for _, msg := range messages {
		totalWords += len(strings.Fields(msg.Text))
	}
	return totalWords
}
