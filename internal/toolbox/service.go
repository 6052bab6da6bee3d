// Package toolbox is the application service behind the HTTP surface: it
// turns submitted tool forms into prompts, prompts into generated syntax,
// and runs the local formula builders and SQL exploration helpers.
package toolbox

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/explore"
	"github.com/haowjy/tableau-toolbox-go/prompt"
)

// ErrExplorerDisabled is returned by the exploration operations when no
// database is configured.
var ErrExplorerDisabled = errors.New("toolbox: database exploration is not configured")

// Generator is the subset of *llmprovider.Generator the service depends on.
type Generator interface {
	GenerateWithOptions(ctx context.Context, prompt string, provider llmprovider.ProviderID, opts llmprovider.GenerateOptions) (*llmprovider.GenerationResult, error)
	Available() []llmprovider.ProviderID
	Registered() []llmprovider.ProviderID
	Registry() *llmprovider.CapabilityRegistry
}

// Service implements the toolbox operations.
type Service struct {
	gen      Generator
	explorer *explore.Explorer
	logger   *zap.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithExplorer enables the SQL exploration operations.
func WithExplorer(e *explore.Explorer) Option {
	return func(s *Service) {
		s.explorer = e
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a Service over gen.
func NewService(gen Generator, opts ...Option) *Service {
	s := &Service{gen: gen, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExplorerEnabled reports whether a database is configured.
func (s *Service) ExplorerEnabled() bool {
	return s.explorer != nil
}

// ToolInfo describes one tool for selectors and API clients.
type ToolInfo struct {
	Kind        prompt.ToolKind    `json:"kind"`
	DisplayName string             `json:"display_name"`
	Syntax      string             `json:"syntax"`
	Fields      []prompt.FieldSpec `json:"fields"`
}

// Tools lists every tool in selector order.
func (s *Service) Tools() []ToolInfo {
	kinds := prompt.Kinds()
	out := make([]ToolInfo, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, ToolInfo{
			Kind:        k,
			DisplayName: k.DisplayName(),
			Syntax:      k.Syntax(),
			Fields:      prompt.Fields(k),
		})
	}
	return out
}

// ProviderInfo describes one provider for selectors and API clients.
type ProviderInfo struct {
	ID           llmprovider.ProviderID `json:"id"`
	DisplayName  string                 `json:"display_name"`
	DefaultModel string                 `json:"default_model"`
	Models       []string               `json:"models"`
	Available    bool                   `json:"available"`
}

// Providers lists every registered provider. Available is false when its
// API key is not configured; selecting it then fails with a configuration error.
func (s *Service) Providers() []ProviderInfo {
	reg := s.gen.Registry()
	available := make(map[llmprovider.ProviderID]bool)
	for _, id := range s.gen.Available() {
		available[id] = true
	}

	registered := s.gen.Registered()
	out := make([]ProviderInfo, 0, len(registered))
	for _, id := range registered {
		info := ProviderInfo{ID: id, DisplayName: id.DisplayName(), Available: available[id]}
		if reg != nil {
			info.DefaultModel = reg.DefaultModel(id)
			info.Models = reg.Models(id)
		}
		out = append(out, info)
	}
	return out
}

// Request is one tool submission.
type Request struct {
	Tool     string            `json:"tool"`
	Provider string            `json:"provider"`
	Model    string            `json:"model,omitempty"`
	Fields   map[string]string `json:"fields"`
}

// Result is the generated syntax for one submission.
type Result struct {
	Tool         prompt.ToolKind        `json:"tool"`
	Provider     llmprovider.ProviderID `json:"provider"`
	Model        string                 `json:"model"`
	Text         string                 `json:"text"`
	InputTokens  int                    `json:"input_tokens"`
	OutputTokens int                    `json:"output_tokens"`
}

// Prompt renders the instruction for req without calling any provider.
func (s *Service) Prompt(req Request) (prompt.ToolKind, string, error) {
	kind, err := prompt.ParseToolKind(req.Tool)
	if err != nil {
		return "", "", err
	}
	text, err := prompt.Render(kind, req.Fields)
	if err != nil {
		return "", "", err
	}
	return kind, text, nil
}

// Generate renders the prompt for req and sends it to the selected provider.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	provider, err := llmprovider.ParseProviderID(req.Provider)
	if err != nil {
		return nil, err
	}
	kind, text, err := s.Prompt(req)
	if err != nil {
		return nil, err
	}

	res, err := s.gen.GenerateWithOptions(ctx, text, provider, llmprovider.GenerateOptions{
		Model: strings.TrimSpace(req.Model),
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tool generated",
		zap.String("tool", kind.String()),
		zap.String("provider", provider.String()),
		zap.Int("output_chars", len(res.Text)),
	)

	return &Result{
		Tool:         kind,
		Provider:     res.Provider,
		Model:        res.Model,
		Text:         res.Text,
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}

func (s *Service) requireExplorer() error {
	if s.explorer == nil {
		return fmt.Errorf("%w: set DATABASE_URL", ErrExplorerDisabled)
	}
	return nil
}
