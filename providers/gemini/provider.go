package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/haowjy/tableau-toolbox-go"
)

// generateFunc issues one GenerateContent call.
type generateFunc func(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error)

// Provider implements the llmprovider.Provider interface for Google's Gemini models.
type Provider struct {
	client   *genai.Client
	generate generateFunc
}

// NewProvider creates a Gemini provider authenticated with apiKey.
// Extra client options (endpoint, transport) are appended after the key.
func NewProvider(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Provider, error) {
	if apiKey == "" {
		return nil, llmprovider.ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		generate: func(ctx context.Context, model *genai.GenerativeModel, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
			return model.GenerateContent(ctx, parts...)
		},
	}, nil
}

// Close releases the underlying client connection.
func (p *Provider) Close() error {
	return p.client.Close()
}

// Name returns the provider identifier.
func (p *Provider) Name() llmprovider.ProviderID {
	return llmprovider.ProviderGemini
}

// SupportsModel returns true for Gemini model names.
func (p *Provider) SupportsModel(model string) bool {
	return strings.HasPrefix(model, "gemini-")
}

// GenerateResponse sends the conversation's last user turn as a single
// GenerateContent call.
func (p *Provider) GenerateResponse(ctx context.Context, req *llmprovider.GenerateRequest) (*llmprovider.GenerateResponse, error) {
	model := p.configureModel(req)

	var prompt string
	for _, msg := range req.Messages {
		if msg.Role == llmprovider.RoleUser {
			prompt = msg.Text
		}
	}

	resp, err := p.generate(ctx, model, genai.Text(prompt))
	if err != nil {
		return nil, p.convertError(err)
	}

	return convertFromGeminiResponse(resp, req.Model)
}

// configureModel applies request parameters to a model handle.
func (p *Provider) configureModel(req *llmprovider.GenerateRequest) *genai.GenerativeModel {
	model := p.client.GenerativeModel(req.Model)

	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	if system := params.GetSystem(""); system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}
	if params.Temperature != nil {
		model.SetTemperature(float32(*params.Temperature))
	}
	if params.TopP != nil {
		model.SetTopP(float32(*params.TopP))
	}
	if params.MaxTokens != nil {
		model.SetMaxOutputTokens(int32(*params.MaxTokens))
	}
	if len(params.Stop) > 0 {
		model.StopSequences = params.Stop
	}
	return model
}

// convertFromGeminiResponse concatenates the text parts of the first candidate.
func convertFromGeminiResponse(resp *genai.GenerateContentResponse, model string) (*llmprovider.GenerateResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, llmprovider.NewMalformedResponseError(llmprovider.ProviderGemini, "response has no candidates")
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	out := &llmprovider.GenerateResponse{
		Text:       sb.String(),
		Model:      model,
		StopReason: candidate.FinishReason.String(),
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}

// convertError maps REST and gRPC failures onto the library error classes.
func (p *Provider) convertError(err error) error {
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &llmprovider.ProviderError{
			Provider: p.Name().String(),
			Message:  blocked.Error(),
			Err:      llmprovider.ErrInvalidRequest,
		}
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		message := apiErr.Message
		if message == "" {
			message = apiErr.Error()
		}
		return llmprovider.NewStatusError(p.Name(), apiErr.Code, message)
	}

	if netErr := llmprovider.AsNetworkError(p.Name(), err); netErr != nil {
		return netErr
	}

	if st, ok := status.FromError(err); ok && st.Code() != codes.OK && st.Code() != codes.Unknown {
		if st.Code() == codes.DeadlineExceeded {
			return &llmprovider.NetworkError{Provider: p.Name().String(), Timeout: true, Err: err}
		}
		return llmprovider.NewStatusError(p.Name(), httpStatus(st.Code()), st.Message())
	}

	return fmt.Errorf("gemini API call failed: %w", err)
}

// httpStatus translates a gRPC code to the HTTP status the REST API would send.
func httpStatus(code codes.Code) int {
	switch code {
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return 400
	case codes.Unauthenticated:
		return 401
	case codes.PermissionDenied:
		return 403
	case codes.NotFound:
		return 404
	case codes.ResourceExhausted:
		return 429
	case codes.Unavailable:
		return 503
	default:
		return 500
	}
}
