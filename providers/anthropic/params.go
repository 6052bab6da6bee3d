package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/haowjy/tableau-toolbox-go"
)

// buildMessageParams constructs Anthropic API parameters from a GenerateRequest.
func buildMessageParams(req *llmprovider.GenerateRequest) anthropic.MessageNewParams {
	params := req.Params
	if params == nil {
		params = &llmprovider.RequestParams{}
	}

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, msg := range req.Messages {
		block := anthropic.NewTextBlock(msg.Text)
		if msg.Role == llmprovider.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}

	apiParams := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  messages,
		MaxTokens: int64(params.GetMaxTokens(llmprovider.DefaultMaxTokens)),
	}

	if params.Temperature != nil {
		apiParams.Temperature = anthropic.Float(*params.Temperature)
	}

	if params.TopP != nil {
		apiParams.TopP = anthropic.Float(*params.TopP)
	}

	if len(params.Stop) > 0 {
		apiParams.StopSequences = params.Stop
	}

	if system := params.GetSystem(""); system != "" {
		apiParams.System = []anthropic.TextBlockParam{
			{
				Type: "text",
				Text: system,
			},
		}
	}

	return apiParams
}

// convertFromAnthropicResponse joins the text blocks of msg.
func convertFromAnthropicResponse(msg *anthropic.Message) (*llmprovider.GenerateResponse, error) {
	var text string
	found := false
	for _, content := range msg.Content {
		if content.Type == "text" {
			text += content.Text
			found = true
		}
	}
	if !found {
		return nil, llmprovider.NewMalformedResponseError(llmprovider.ProviderAnthropic, "response has no text content")
	}

	responseMetadata := make(map[string]interface{})
	if msg.ID != "" {
		responseMetadata["id"] = msg.ID
	}
	if msg.StopSequence != "" {
		responseMetadata["stop_sequence"] = msg.StopSequence
	}

	return &llmprovider.GenerateResponse{
		Text:             text,
		Model:            string(msg.Model),
		InputTokens:      int(msg.Usage.InputTokens),
		OutputTokens:     int(msg.Usage.OutputTokens),
		StopReason:       string(msg.StopReason),
		ResponseMetadata: responseMetadata,
	}, nil
}
