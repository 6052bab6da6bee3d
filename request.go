package llmprovider

// Role values for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// GenerateRequest contains the parameters for an LLM generation request.
type GenerateRequest struct {
	// Messages contains the conversation turns. The toolbox sends a single
	// user turn holding the rendered prompt.
	Messages []Message

	// Model is the model identifier (e.g., "claude-3-5-haiku-20241022")
	Model string

	// Params contains all request parameters (temperature, max_tokens, system, etc.)
	// Provider adapters extract what they support from this unified struct.
	Params *RequestParams
}

// Message represents a single message in the conversation.
type Message struct {
	// Role is either "user" or "assistant"
	Role string

	// Text is the message content
	Text string
}

// NewPromptRequest builds a single-turn request for prompt.
func NewPromptRequest(model, prompt string, params *RequestParams) *GenerateRequest {
	return &GenerateRequest{
		Messages: []Message{{Role: RoleUser, Text: prompt}},
		Model:    model,
		Params:   params,
	}
}
