package llmprovider

import "fmt"

// Severity indicates how serious a validation warning is
type Severity string

const (
	SeverityInfo    Severity = "info"    // Informational (might be expected)
	SeverityWarning Severity = "warning" // Potentially problematic
)

// WarningCode is a machine-readable identifier for validation warnings
type WarningCode string

const (
	WarningCodeModelUnknown          WarningCode = "MODEL_UNKNOWN"
	WarningCodeCapabilityMissing     WarningCode = "CAPABILITY_MISSING"
	WarningCodeMaxTokensTooHigh      WarningCode = "MAX_TOKENS_TOO_HIGH"
	WarningCodeTemperatureOutOfRange WarningCode = "TEMPERATURE_OUT_OF_RANGE"
)

// ValidationWarning represents a potential issue that might cause API failure.
// These are informational - requests are never blocked on warnings.
type ValidationWarning struct {
	Code     WarningCode // Machine-readable code
	Field    string      // Field that might cause issues
	Value    any         // The potentially problematic value
	Message  string      // Human-readable warning
	Severity Severity    // How serious this warning is
}

// CheckRequest compares req against the catalog entry for provider.
func CheckRequest(registry *CapabilityRegistry, provider ProviderID, req *GenerateRequest) []ValidationWarning {
	if registry == nil || req == nil {
		return nil
	}

	caps, err := registry.GetProviderCapabilities(provider)
	if err != nil {
		return []ValidationWarning{{
			Code:     WarningCodeCapabilityMissing,
			Field:    "provider",
			Value:    provider,
			Message:  fmt.Sprintf("no model catalog entry for provider %s", provider),
			Severity: SeverityInfo,
		}}
	}

	var warnings []ValidationWarning

	model, ok := caps.Models[req.Model]
	if !ok {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeModelUnknown,
			Field:    "model",
			Value:    req.Model,
			Message:  fmt.Sprintf("model %s is not in the %s catalog; the provider decides whether it exists", req.Model, provider),
			Severity: SeverityInfo,
		})
	} else if model.MaxOutputTokens > 0 && req.Params.GetMaxTokens(0) > model.MaxOutputTokens {
		warnings = append(warnings, ValidationWarning{
			Code:     WarningCodeMaxTokensTooHigh,
			Field:    "max_tokens",
			Value:    req.Params.GetMaxTokens(0),
			Message:  fmt.Sprintf("max_tokens exceeds %s output limit of %d", req.Model, model.MaxOutputTokens),
			Severity: SeverityWarning,
		})
	}

	if req.Params != nil && req.Params.Temperature != nil && caps.Constraints.TemperatureMax > 0 {
		t := *req.Params.Temperature
		if t < caps.Constraints.TemperatureMin || t > caps.Constraints.TemperatureMax {
			warnings = append(warnings, ValidationWarning{
				Code:     WarningCodeTemperatureOutOfRange,
				Field:    "temperature",
				Value:    t,
				Message:  fmt.Sprintf("%s accepts temperature %.1f-%.1f", provider, caps.Constraints.TemperatureMin, caps.Constraints.TemperatureMax),
				Severity: SeverityWarning,
			})
		}
	}

	return warnings
}
