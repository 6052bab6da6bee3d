package llmprovider

// Defaults applied when the caller leaves a parameter unset.
const (
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1024

	// DefaultSystemInstruction is sent with every generation request.
	DefaultSystemInstruction = "Produce only the calculated-field syntax, no explanation."
)

// RequestParams represents the LLM request parameters the toolbox forwards.
// All fields are optional pointers to distinguish "not set" from "set to zero value".
type RequestParams struct {
	// MaxTokens sets the maximum number of tokens to generate
	MaxTokens *int `json:"max_tokens,omitempty"`

	// Temperature controls randomness (0.0-2.0)
	// 0.0 = deterministic
	Temperature *float64 `json:"temperature,omitempty"`

	// TopP (nucleus sampling) - cumulative probability cutoff (0.0-1.0)
	TopP *float64 `json:"top_p,omitempty"`

	// Stop sequences - generation stops if any of these are generated
	Stop []string `json:"stop,omitempty"`

	// System instruction sent ahead of the user turn
	System *string `json:"system,omitempty"`
}

// ValidateRequestParams validates request parameters
func ValidateRequestParams(params *RequestParams) error {
	if params == nil {
		return nil // nil params is valid
	}

	if params.Temperature != nil {
		if *params.Temperature < 0.0 || *params.Temperature > 2.0 {
			return invalidParam("temperature", *params.Temperature, "must be between 0.0 and 2.0")
		}
	}

	if params.TopP != nil {
		if *params.TopP < 0.0 || *params.TopP > 1.0 {
			return invalidParam("top_p", *params.TopP, "must be between 0.0 and 1.0")
		}
	}

	if params.MaxTokens != nil {
		if *params.MaxTokens < 1 {
			return invalidParam("max_tokens", *params.MaxTokens, "must be positive")
		}
	}

	return nil
}

func invalidParam(field string, value any, reason string) error {
	return &ValidationError{Field: field, Value: value, Reason: reason, Err: ErrInvalidRequest}
}

// GetMaxTokens returns max_tokens with default fallback
func (rp *RequestParams) GetMaxTokens(defaultValue int) int {
	if rp != nil && rp.MaxTokens != nil {
		return *rp.MaxTokens
	}
	return defaultValue
}

// GetTemperature returns temperature with default fallback
func (rp *RequestParams) GetTemperature(defaultValue float64) float64 {
	if rp != nil && rp.Temperature != nil {
		return *rp.Temperature
	}
	return defaultValue
}

// GetSystem returns the system instruction with default fallback
func (rp *RequestParams) GetSystem(defaultValue string) string {
	if rp != nil && rp.System != nil {
		return *rp.System
	}
	return defaultValue
}

// withDefaults returns a copy of rp with every unset toolbox default filled in.
func (rp *RequestParams) withDefaults() *RequestParams {
	out := RequestParams{}
	if rp != nil {
		out = *rp
	}
	if out.Temperature == nil {
		t := DefaultTemperature
		out.Temperature = &t
	}
	if out.MaxTokens == nil {
		n := DefaultMaxTokens
		out.MaxTokens = &n
	}
	if out.System == nil {
		s := DefaultSystemInstruction
		out.System = &s
	}
	return &out
}
