package llmprovider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Sentinel errors for common failure modes.
// These can be checked with errors.Is().
var (
	// ErrMissingAPIKey indicates no API key is configured for the selected provider.
	ErrMissingAPIKey = errors.New("llmprovider: missing API key")

	// ErrUnknownProvider indicates the provider selector does not name a registered provider.
	ErrUnknownProvider = errors.New("llmprovider: unknown provider")

	// ErrInvalidModel indicates the requested model is not supported by the provider.
	ErrInvalidModel = errors.New("llmprovider: invalid or unsupported model")

	// ErrInvalidAPIKey indicates the provider rejected the API key.
	ErrInvalidAPIKey = errors.New("llmprovider: invalid API key")

	// ErrRateLimited indicates the provider's rate limit has been exceeded.
	ErrRateLimited = errors.New("llmprovider: rate limit exceeded")

	// ErrInvalidRequest indicates the request parameters are invalid.
	ErrInvalidRequest = errors.New("llmprovider: invalid request")

	// ErrProviderUnavailable indicates the provider answered with a server-side failure.
	ErrProviderUnavailable = errors.New("llmprovider: provider unavailable")

	// ErrMalformedResponse indicates the provider answered 2xx with a body we cannot use.
	ErrMalformedResponse = errors.New("llmprovider: malformed response")

	// ErrTimeout indicates the request did not complete before its deadline.
	ErrTimeout = errors.New("llmprovider: request timed out")

	// ErrUnreachable indicates the provider endpoint could not be reached.
	ErrUnreachable = errors.New("llmprovider: provider unreachable")
)

// ConfigurationError is returned before any network call when the selected
// provider cannot be used with the current configuration.
type ConfigurationError struct {
	Provider string // The provider that was selected
	Reason   string // Human-readable explanation
	Err      error  // Wrapped sentinel (ErrMissingAPIKey, ErrUnknownProvider)
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error for provider '%s': %s", e.Provider, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// NetworkError represents a failure to reach the provider or to receive its
// answer in time.
type NetworkError struct {
	Provider string // The provider name
	Timeout  bool   // True when the deadline expired
	Err      error  // The underlying transport error
}

func (e *NetworkError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("provider '%s' timed out: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("provider '%s' unreachable: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() []error {
	if e.Timeout {
		return []error{ErrTimeout, e.Err}
	}
	return []error{ErrUnreachable, e.Err}
}

// ModelError represents an error related to model validation or availability.
type ModelError struct {
	Model    string // The model that was requested
	Provider string // The provider name
	Reason   string // Human-readable explanation
	Err      error  // Wrapped error (usually ErrInvalidModel)
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("model '%s' for provider '%s': %s (%v)", e.Model, e.Provider, e.Reason, e.Err)
	}
	return fmt.Sprintf("model '%s' for provider '%s': %s", e.Model, e.Provider, e.Reason)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// ValidationError represents an error in request parameter or tool input validation.
type ValidationError struct {
	Field  string // The parameter field that failed validation
	Value  any    // The invalid value
	Reason string // Human-readable explanation
	Err    error  // Wrapped error (usually ErrInvalidRequest)
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for '%s' (value: %v): %s (%v)", e.Field, e.Value, e.Reason, e.Err)
	}
	return fmt.Sprintf("validation failed for '%s' (value: %v): %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ProviderError represents an error from the underlying provider API.
type ProviderError struct {
	Provider   string // The provider name
	StatusCode int    // HTTP status code (if applicable)
	Message    string // Error message from provider
	Retryable  bool   // Whether a manual retry may succeed
	Err        error  // Wrapped sentinel error (ErrRateLimited, ErrProviderUnavailable, etc.)
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider '%s' error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider '%s' error: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewStatusError maps an HTTP status and provider message to a ProviderError.
// Provider adapters share it so that status handling is identical across backends.
func NewStatusError(provider ProviderID, status int, message string) *ProviderError {
	pe := &ProviderError{
		Provider:   provider.String(),
		StatusCode: status,
		Message:    message,
	}
	switch {
	case status == 401 || status == 403:
		pe.Err = ErrInvalidAPIKey
	case status == 429:
		pe.Retryable = true
		pe.Err = ErrRateLimited
	case status == 404:
		pe.Err = ErrInvalidModel
	case status >= 500:
		pe.Retryable = true
		pe.Err = ErrProviderUnavailable
	default:
		pe.Err = ErrInvalidRequest
	}
	return pe
}

// NewMalformedResponseError reports a 2xx answer that has no usable completion.
func NewMalformedResponseError(provider ProviderID, reason string) *ProviderError {
	return &ProviderError{
		Provider: provider.String(),
		Message:  reason,
		Err:      ErrMalformedResponse,
	}
}

// AsNetworkError returns a NetworkError when err is a transport-level failure
// (timeout, cancellation, DNS, connection refused). It returns nil otherwise.
func AsNetworkError(provider ProviderID, err error) *NetworkError {
	if err == nil {
		return nil
	}

	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{Provider: provider.String(), Timeout: true, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &NetworkError{Provider: provider.String(), Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return &NetworkError{Provider: provider.String(), Timeout: netErr.Timeout(), Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &NetworkError{Provider: provider.String(), Timeout: urlErr.Timeout(), Err: err}
	}

	return nil
}

// IsConfigurationError checks if err was raised before any network call
// because the provider is not usable with the current configuration.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// IsNetworkError checks if err is a connectivity or timeout failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// IsProviderError checks if err is a provider-side rejection or malformed answer.
func IsProviderError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe)
}

// IsRetryable checks if a manual retry could succeed.
// Returns true for rate limits, temporary unavailability and network errors.
// The library itself never retries.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.Retryable
	}

	if IsNetworkError(err) {
		return true
	}

	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrProviderUnavailable)
}

// IsInvalidRequest checks if an error indicates invalid request parameters.
// These errors are not retryable and require request changes.
func IsInvalidRequest(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrInvalidModel) {
		return true
	}

	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}

// IsAuthError checks if an error is related to authentication.
func IsAuthError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrInvalidAPIKey) || errors.Is(err, ErrMissingAPIKey) {
		return true
	}

	var providerErr *ProviderError
	if errors.As(err, &providerErr) {
		return providerErr.StatusCode == 401 || providerErr.StatusCode == 403
	}

	return false
}

// UserMessage renders err as the message shown in the output area.
// Each error class gets a distinct wording so the user knows whether to fix
// configuration, retry, or switch provider.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		ce *ConfigurationError
		ne *NetworkError
		pe *ProviderError
		ve *ValidationError
		me *ModelError
	)
	switch {
	case errors.As(err, &ce):
		if errors.Is(err, ErrMissingAPIKey) {
			return fmt.Sprintf("Configuration error: no API key for %s. Set %s and restart.",
				ProviderID(ce.Provider).DisplayName(), EnvVar(ProviderID(ce.Provider)))
		}
		return "Configuration error: " + ce.Reason
	case errors.As(err, &ne):
		if ne.Timeout {
			return fmt.Sprintf("Network error: %s did not answer in time. Try again.", ProviderID(ne.Provider).DisplayName())
		}
		return fmt.Sprintf("Network error: could not reach %s. Check connectivity and try again.", ProviderID(ne.Provider).DisplayName())
	case errors.As(err, &pe):
		name := ProviderID(pe.Provider).DisplayName()
		switch {
		case errors.Is(err, ErrRateLimited):
			return fmt.Sprintf("Provider error: %s rate limit reached (%s). Wait, retry, or switch provider.", name, pe.Message)
		case errors.Is(err, ErrInvalidAPIKey):
			return fmt.Sprintf("Provider error: %s rejected the API key (%s).", name, pe.Message)
		case pe.StatusCode > 0:
			return fmt.Sprintf("Provider error: %s returned status %d: %s", name, pe.StatusCode, pe.Message)
		default:
			return fmt.Sprintf("Provider error: %s: %s", name, pe.Message)
		}
	case errors.As(err, &ve):
		return "Input error: " + ve.Reason
	case errors.As(err, &me):
		return "Model error: " + me.Reason
	default:
		return "Unexpected error: " + err.Error()
	}
}
