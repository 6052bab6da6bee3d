package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/haowjy/tableau-toolbox-go"
	"github.com/haowjy/tableau-toolbox-go/internal/toolbox"
)

// APIError represents a structured error response
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   string `json:"details,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeNetwork       = "NETWORK_ERROR"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeDatabase      = "DATABASE_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// RespondError sends a structured error response
func RespondError(c *gin.Context, status int, code string, message string) {
	c.JSON(status, gin.H{
		"error": APIError{
			Code:    code,
			Message: message,
		},
	})
}

// BadRequest sends a 400 error
func BadRequest(c *gin.Context, message string) {
	RespondError(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// classifyError maps a toolbox error to its HTTP status and error code.
// fallback is the code used for errors outside the toolbox taxonomy.
func classifyError(err error, fallback string) (int, string) {
	var (
		ve *llmprovider.ValidationError
		me *llmprovider.ModelError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &me):
		return http.StatusBadRequest, ErrCodeBadRequest
	case llmprovider.IsConfigurationError(err), errors.Is(err, toolbox.ErrExplorerDisabled):
		return http.StatusPreconditionFailed, ErrCodeConfiguration
	case llmprovider.IsNetworkError(err):
		return http.StatusGatewayTimeout, ErrCodeNetwork
	case llmprovider.IsProviderError(err):
		return http.StatusBadGateway, ErrCodeProvider
	}
	return http.StatusInternalServerError, fallback
}

const explorerDisabledMessage = "Configuration error: database exploration is disabled. Set DATABASE_URL and restart."

// respondServiceError writes err using the toolbox status mapping.
func respondServiceError(c *gin.Context, err error, fallback string) {
	status, code := classifyError(err, fallback)
	_ = c.Error(err)

	message := llmprovider.UserMessage(err)
	if errors.Is(err, toolbox.ErrExplorerDisabled) {
		message = explorerDisabledMessage
	} else if status == http.StatusInternalServerError {
		message = "internal error"
	}

	c.JSON(status, gin.H{
		"error": APIError{
			Code:      code,
			Message:   message,
			Retryable: llmprovider.IsRetryable(err),
		},
	})
}
