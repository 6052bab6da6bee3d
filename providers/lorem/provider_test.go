package lorem

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmprovider "github.com/haowjy/tableau-toolbox-go"
)

func TestProvider_Name(t *testing.T) {
	provider := NewProvider()
	assert.Equal(t, llmprovider.ProviderLorem, provider.Name())
}

func TestProvider_SupportsModel(t *testing.T) {
	provider := NewProvider()

	tests := []struct {
		model    string
		expected bool
	}{
		{"lorem-fast", true},
		{"lorem-slow", true},
		{"lorem-anything", true},
		{"claude-3", false},
		{"gpt-4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.expected, provider.SupportsModel(tt.model))
		})
	}
}

func TestProvider_GenerateResponse(t *testing.T) {
	provider := NewProvider()

	req := llmprovider.NewPromptRequest("lorem-fast", "Hello, test prompt", nil)
	resp, err := provider.GenerateResponse(context.Background(), req)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(resp.Text, "// "))
	assert.Contains(t, resp.Text, "IIF([")
	assert.Equal(t, "lorem-fast", resp.Model)
	assert.Equal(t, 3, resp.InputTokens)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, true, resp.ResponseMetadata["mock"])
}

func TestProvider_GenerateResponse_UnsupportedModel(t *testing.T) {
	provider := NewProvider()

	_, err := provider.GenerateResponse(context.Background(), llmprovider.NewPromptRequest("gpt-4o", "x", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, llmprovider.ErrInvalidModel)
}

func TestProvider_GenerateResponse_ContextCancelled(t *testing.T) {
	provider := NewProvider()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.GenerateResponse(ctx, llmprovider.NewPromptRequest("lorem-slow", "x", nil))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// Run with -race: the shared provider is used by concurrent HTTP requests.
func TestProvider_GenerateResponse_Concurrent(t *testing.T) {
	provider := NewProvider()
	req := llmprovider.NewPromptRequest("lorem-fast", "concurrent prompt", nil)

	var wg sync.WaitGroup
	errs := make(chan error, 16*50)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				resp, err := provider.GenerateResponse(context.Background(), req)
				if err == nil && !strings.Contains(resp.Text, "IIF([") {
					err = assert.AnError
				}
				if err != nil {
					errs <- err
				}
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("GenerateResponse() error = %v", err)
	}
}
