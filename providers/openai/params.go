package openai

import (
	"github.com/haowjy/tableau-toolbox-go"
)

// ChatCompletionRequest represents an OpenAI chat completion request.
type ChatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   *int      `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
	TopP        *float64  `json:"top_p,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
	Stream      bool      `json:"stream"`
}

// Message represents a message in the conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// ChatCompletionResponse represents a chat completion response (non-streaming).
type ChatCompletionResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice represents a completion choice in the response.
type Choice struct {
	Index        int      `json:"index"`
	Message      *Message `json:"message"`
	FinishReason *string  `json:"finish_reason"` // "stop", "length", "content_filter"
}

// Usage represents token usage in the response.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// errorResponse is the body OpenAI sends with non-2xx statuses.
type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

// buildChatCompletionRequest constructs a Chat Completions request from a GenerateRequest.
// The system instruction goes first, followed by the conversation turns.
func buildChatCompletionRequest(req *llmprovider.GenerateRequest) *ChatCompletionRequest {
	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	messages := make([]Message, 0, len(req.Messages)+1)
	if system := params.GetSystem(""); system != "" {
		messages = append(messages, Message{Role: "system", Content: system})
	}
	for _, msg := range req.Messages {
		messages = append(messages, Message{Role: msg.Role, Content: msg.Text})
	}

	out := &ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
	}
	if len(params.Stop) > 0 {
		out.Stop = params.Stop
	}
	return out
}

// convertFromChatCompletionResponse extracts the first choice's content.
func convertFromChatCompletionResponse(resp *ChatCompletionResponse) (*llmprovider.GenerateResponse, error) {
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil {
		return nil, llmprovider.NewMalformedResponseError(llmprovider.ProviderOpenAI, "response has no choices")
	}

	choice := resp.Choices[0]
	out := &llmprovider.GenerateResponse{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
		ResponseMetadata: map[string]any{
			"id": resp.ID,
		},
	}
	if choice.FinishReason != nil {
		out.StopReason = *choice.FinishReason
	}
	return out, nil
}
