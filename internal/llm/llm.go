// File path: internal/llm/llm.go
package llm

import (
	"os"
	"strconv"
	"strings"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
	"github.com/Jay-Jay-Tee/meditrack-ai/internal/llm/providers"
)

type Message = providers.Message

type Provider = providers.Provider

// ErrNoGenerativeModel mirrors the providers sentinel for callers that only
// import this package.
var ErrNoGenerativeModel = providers.ErrNoGenerativeModel

// NewProvider selects a backend from the environment: Gemini when
// GEMINI_API_KEY is set (the service's historical default), otherwise OpenAI
// when OPENAI_API_KEY is set, otherwise the deterministic local fallback.
func NewProvider() Provider {
	logger := common.Logger()
	if apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); apiKey != "" {
		logger.Info("llm: gemini provider selected")
		return providers.NewGeminiProvider(apiKey)
	}
	if apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); apiKey != "" {
		opts := []option.RequestOption{option.WithAPIKey(apiKey)}
		if endpoint := strings.TrimSpace(os.Getenv("OPENAI_ENDPOINT")); endpoint != "" {
			logger.Info("llm: configuring openai client with custom endpoint", "endpoint", endpoint)
			opts = append(opts, option.WithBaseURL(endpoint))
		}
		client := openai.NewClient(opts...)
		logger.Info("llm: openai provider selected")
		return providers.NewOpenAIProvider(client)
	}
	logger.Warn("llm: no API key configured; falling back to local provider")
	return providers.NewLocalProvider(EmbedDimFromEnv())
}

// EmbedDimFromEnv returns the embedding dimensionality the deployment
// expects, defaulting to 384 (the dimensionality the original collection was
// created with).
func EmbedDimFromEnv() int {
	if value := strings.TrimSpace(os.Getenv("MEDITRACK_EMBED_DIM")); value != "" {
		if dim, err := strconv.Atoi(value); err == nil && dim > 0 {
			return dim
		}
		common.Logger().Warn("llm: invalid MEDITRACK_EMBED_DIM, using default", "value", value)
	}
	return 384
}
