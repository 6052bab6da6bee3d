package llmprovider

// GenerateResponse contains the LLM provider's response.
type GenerateResponse struct {
	// Text is the first completion's text exactly as the provider returned it
	Text string

	// Model is the model that was used (may differ from request if aliased)
	Model string

	// InputTokens is the number of tokens in the input
	InputTokens int

	// OutputTokens is the number of tokens in the output
	OutputTokens int

	// StopReason indicates why generation stopped (e.g., "end_turn", "stop", "STOP")
	StopReason string

	// ResponseMetadata contains provider-specific response data
	ResponseMetadata map[string]interface{}
}

// GenerationResult is what the toolbox hands back to the UI for one request.
// It is created once per request and never mutated.
type GenerationResult struct {
	// Text is the completion trimmed of leading/trailing whitespace
	Text string

	// Provider is the provider that produced Text
	Provider ProviderID

	// Model is the model reported by the provider
	Model string

	InputTokens  int
	OutputTokens int
}
