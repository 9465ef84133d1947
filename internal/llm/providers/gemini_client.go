// File path: internal/llm/providers/gemini_client.go
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/Jay-Jay-Tee/meditrack-ai/internal/common"
)

const defaultGeminiEndpoint = "https://generativelanguage.googleapis.com/v1beta"

// GeminiProvider talks to the Google Generative Language REST API.
type GeminiProvider struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	chatModel  string
	embedModel string
}

func NewGeminiProvider(apiKey string) *GeminiProvider {
	chatModel := os.Getenv("GEMINI_CHAT_MODEL")
	if chatModel == "" {
		chatModel = "gemini-2.0-flash"
	}
	embedModel := os.Getenv("GEMINI_EMBED_MODEL")
	if embedModel == "" {
		embedModel = "text-embedding-004"
	}
	baseURL := strings.TrimSpace(os.Getenv("GEMINI_ENDPOINT"))
	if baseURL == "" {
		baseURL = defaultGeminiEndpoint
	}
	timeout := 30 * time.Second
	if timeoutStr := strings.TrimSpace(os.Getenv("GEMINI_HTTP_TIMEOUT")); timeoutStr != "" {
		parsed, err := time.ParseDuration(timeoutStr)
		if err != nil {
			common.Logger().Warn("llm: invalid GEMINI_HTTP_TIMEOUT, using default", "value", timeoutStr, "error", err)
		} else {
			timeout = parsed
		}
	}
	logger := common.Logger()
	logger.Info("llm: gemini provider configured", "chat_model", chatModel, "embed_model", embedModel)
	return &GeminiProvider{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		chatModel:  chatModel,
		embedModel: embedModel,
	}
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type generateRequest struct {
	SystemInstruction *geminiContent  `json:"system_instruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	if len(messages) == 0 {
		return "", fmt.Errorf("no messages provided")
	}
	logger := common.Logger()
	logger.Debug("llm: sending generate request", "model", g.chatModel, "messages", len(messages))

	req := generateRequest{}
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: msg.Content}}}
		case "assistant":
			req.Contents = append(req.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: msg.Content}}})
		default:
			req.Contents = append(req.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.chatModel)
	var resp generateResponse
	if err := g.doRequest(ctx, endpoint, req, &resp); err != nil {
		logger.Error("llm: generate request failed", "error", err)
		return "", err
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned")
	}
	var parts []string
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	logger.Debug("llm: generate request succeeded")
	return strings.Join(parts, "\n"), nil
}

type embedRequest struct {
	Requests []struct {
		Model   string        `json:"model"`
		Content geminiContent `json:"content"`
	} `json:"requests"`
}

type embedResponse struct {
	Embeddings []struct {
		Values []float32 `json:"values"`
	} `json:"embeddings"`
}

func (g *GeminiProvider) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, nil
	}
	logger := common.Logger()
	logger.Debug("llm: creating embeddings", "model", g.embedModel, "items", len(input))

	req := embedRequest{}
	for _, text := range input {
		req.Requests = append(req.Requests, struct {
			Model   string        `json:"model"`
			Content geminiContent `json:"content"`
		}{
			Model:   "models/" + g.embedModel,
			Content: geminiContent{Parts: []geminiPart{{Text: text}}},
		})
	}

	endpoint := fmt.Sprintf("%s/models/%s:batchEmbedContents", g.baseURL, g.embedModel)
	var resp embedResponse
	if err := g.doRequest(ctx, endpoint, req, &resp); err != nil {
		logger.Error("llm: embedding request failed", "error", err)
		return nil, err
	}
	if len(resp.Embeddings) != len(input) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(input), len(resp.Embeddings))
	}
	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vectors[i] = emb.Values
	}
	logger.Debug("llm: embedding request succeeded", "returned", len(vectors))
	return vectors, nil
}

func (g *GeminiProvider) doRequest(ctx context.Context, endpoint string, body interface{}, out interface{}) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("gemini %s failed: status=%d body=%s", endpoint, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *GeminiProvider) Name() string {
	return "gemini"
}
