package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single provider call when no timeout is configured.
const DefaultTimeout = 60 * time.Second

// Generator is the single entry point the toolbox uses to turn a rendered
// prompt into completion text. It resolves the provider from its registered
// factories, checks credentials before any network activity, and issues
// exactly one request per call: no retries, no fallback, no caching.
type Generator struct {
	credentials Credentials
	registry    *CapabilityRegistry
	timeout     time.Duration
	logger      *zap.Logger

	mu        sync.Mutex
	factories map[ProviderID]registration
	providers map[ProviderID]Provider
}

type registration struct {
	factory Factory
	keyless bool
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithTimeout bounds each provider call.
func WithTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger used for per-call outcome logging.
func WithLogger(logger *zap.Logger) GeneratorOption {
	return func(g *Generator) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGenerator creates a Generator over explicit credentials and a model catalog.
// Providers are added with Register / RegisterKeyless.
func NewGenerator(creds Credentials, registry *CapabilityRegistry, opts ...GeneratorOption) *Generator {
	g := &Generator{
		credentials: creds,
		registry:    registry,
		timeout:     DefaultTimeout,
		logger:      zap.NewNop(),
		factories:   make(map[ProviderID]registration),
		providers:   make(map[ProviderID]Provider),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds a provider that needs an API key from Credentials.
func (g *Generator) Register(id ProviderID, f Factory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.factories[id] = registration{factory: f}
	delete(g.providers, id)
}

// RegisterKeyless adds a provider that runs without an API key.
func (g *Generator) RegisterKeyless(id ProviderID, f Factory) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.factories[id] = registration{factory: f, keyless: true}
	delete(g.providers, id)
}

// Available lists registered providers that can be called with the current
// credentials, in selector order.
func (g *Generator) Available() []ProviderID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []ProviderID
	for _, id := range providerOrder {
		reg, ok := g.factories[id]
		if !ok {
			continue
		}
		if _, hasKey := g.credentials.Key(id); reg.keyless || hasKey {
			out = append(out, id)
		}
	}
	return out
}

// Registered lists every registered provider in selector order, whether or
// not its key is set.
func (g *Generator) Registered() []ProviderID {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []ProviderID
	for _, id := range providerOrder {
		if _, ok := g.factories[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

// Registry returns the model catalog the generator resolves default models from.
func (g *Generator) Registry() *CapabilityRegistry {
	return g.registry
}

// GenerateOptions carries optional per-request overrides.
type GenerateOptions struct {
	// Model overrides the catalog default for the provider
	Model string

	// Params overrides individual request parameters; unset fields keep toolbox defaults
	Params *RequestParams
}

// Generate sends prompt to provider using the catalog default model.
func (g *Generator) Generate(ctx context.Context, prompt string, provider ProviderID) (*GenerationResult, error) {
	return g.GenerateWithOptions(ctx, prompt, provider, GenerateOptions{})
}

// GenerateWithOptions sends prompt to provider and returns the trimmed completion.
func (g *Generator) GenerateWithOptions(ctx context.Context, prompt string, provider ProviderID, opts GenerateOptions) (*GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, &ValidationError{Field: "prompt", Value: prompt, Reason: "prompt is empty", Err: ErrInvalidRequest}
	}

	g.mu.Lock()
	reg, ok := g.factories[provider]
	g.mu.Unlock()
	if !ok {
		return nil, &ConfigurationError{
			Provider: provider.String(),
			Reason:   "provider is not registered",
			Err:      ErrUnknownProvider,
		}
	}

	var apiKey string
	if !reg.keyless {
		key, hasKey := g.credentials.Key(provider)
		if !hasKey {
			return nil, &ConfigurationError{
				Provider: provider.String(),
				Reason:   fmt.Sprintf("%s is not set", EnvVar(provider)),
				Err:      ErrMissingAPIKey,
			}
		}
		apiKey = key
	}

	params := opts.Params.withDefaults()
	if err := ValidateRequestParams(params); err != nil {
		return nil, err
	}

	model := opts.Model
	if model == "" && g.registry != nil {
		model = g.registry.DefaultModel(provider)
	}
	if model == "" {
		return nil, &ModelError{
			Provider: provider.String(),
			Reason:   "no model selected and no default model in the catalog",
			Err:      ErrInvalidModel,
		}
	}

	p, err := g.provider(provider, reg, apiKey)
	if err != nil {
		return nil, err
	}

	if !p.SupportsModel(model) {
		return nil, &ModelError{
			Model:    model,
			Provider: provider.String(),
			Reason:   "model not served by this provider",
			Err:      ErrInvalidModel,
		}
	}

	req := NewPromptRequest(model, prompt, params)
	for _, w := range CheckRequest(g.registry, provider, req) {
		g.logger.Warn("generation request warning",
			zap.String("provider", provider.String()),
			zap.String("code", string(w.Code)),
			zap.String("message", w.Message),
		)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := p.GenerateResponse(callCtx, req)
	if err != nil {
		err = classify(provider, err)
		g.logger.Error("generation failed",
			zap.String("provider", provider.String()),
			zap.String("model", model),
			zap.Duration("latency", time.Since(start)),
			zap.Bool("retryable", IsRetryable(err)),
			zap.Bool("auth_error", IsAuthError(err)),
			zap.Error(err),
		)
		return nil, err
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		err := NewMalformedResponseError(provider, "provider returned an empty completion")
		g.logger.Error("generation failed",
			zap.String("provider", provider.String()),
			zap.String("model", model),
			zap.Error(err),
		)
		return nil, err
	}

	usedModel := resp.Model
	if usedModel == "" {
		usedModel = model
	}

	g.logger.Info("generation complete",
		zap.String("provider", provider.String()),
		zap.String("model", usedModel),
		zap.Float64("temperature", req.Params.GetTemperature(DefaultTemperature)),
		zap.Duration("latency", time.Since(start)),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
	)

	return &GenerationResult{
		Text:         text,
		Provider:     provider,
		Model:        usedModel,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
	}, nil
}

// provider returns the cached client for id, constructing it on first use.
func (g *Generator) provider(id ProviderID, reg registration, apiKey string) (Provider, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if p, ok := g.providers[id]; ok {
		return p, nil
	}

	p, err := reg.factory(apiKey)
	if err != nil {
		return nil, &ConfigurationError{
			Provider: id.String(),
			Reason:   fmt.Sprintf("failed to initialize client: %v", err),
			Err:      err,
		}
	}
	g.providers[id] = p
	return p, nil
}

// classify makes sure every provider failure surfaces as one of the toolbox
// error classes.
func classify(provider ProviderID, err error) error {
	var (
		ne *NetworkError
		pe *ProviderError
		me *ModelError
		ve *ValidationError
		ce *ConfigurationError
	)
	switch {
	case errors.As(err, &ne), errors.As(err, &pe), errors.As(err, &me), errors.As(err, &ve), errors.As(err, &ce):
		return err
	}

	if netErr := AsNetworkError(provider, err); netErr != nil {
		return netErr
	}

	return &ProviderError{
		Provider: provider.String(),
		Message:  err.Error(),
		Err:      err,
	}
}
