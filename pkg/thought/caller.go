package thought

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/papercomputeco/innerself/pkg/credentials"
	"github.com/papercomputeco/innerself/pkg/logger"
)

const (
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerOllama    = "ollama"

	// maxTokens keeps thoughts to a sentence or two.
	maxTokens = 100
)

// LLMCallFunc sends prompt to a completion endpoint and returns its text.
type LLMCallFunc func(ctx context.Context, prompt string) (string, error)

// CallerConfig holds configuration for creating an LLM caller.
type CallerConfig struct {
	Provider   string               // "openai", "anthropic", or "ollama"
	Model      string               // e.g. "gpt-4o-mini", "claude-haiku-4-5-20251001"
	APIKey     string               // explicit API key (highest priority)
	BaseURL    string               // override base URL
	CredMgr    *credentials.Manager // keys stored by "innerself auth"
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// NewLLMCaller creates an LLMCallFunc for the configured provider.
// Resolution order for the API key:
//  1. Explicit APIKey in config
//  2. credentials.Manager (from innerself auth)
//  3. Environment variables (OPENAI_API_KEY / ANTHROPIC_API_KEY)
//  4. Fall back to Ollama at localhost:11434
func NewLLMCaller(cfg CallerConfig) (LLMCallFunc, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		provider = providerOllama
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	apiKey := cfg.APIKey
	if apiKey == "" && provider != providerOllama {
		if cfg.CredMgr != nil {
			apiKey = cfg.CredMgr.ResolveKey(provider)
		} else if env := credentials.EnvVarForProvider(provider); env != "" {
			apiKey = os.Getenv(env)
		}
	}

	model, baseURL := cfg.Model, cfg.BaseURL
	if apiKey == "" && provider != providerOllama {
		log.Warn("no API key found, falling back to ollama", "provider", provider)
		provider = providerOllama
		model, baseURL = "", ""
	}

	c := &httpCaller{client: client, apiKey: apiKey, model: model, baseURL: baseURL}
	switch provider {
	case providerOpenAI:
		c.defaults("gpt-4o-mini", "https://api.openai.com")
		return c.openAI, nil
	case providerAnthropic:
		c.defaults("claude-haiku-4-5-20251001", "https://api.anthropic.com")
		return c.anthropic, nil
	case providerOllama:
		c.defaults("llama3.2", "http://localhost:11434")
		return c.ollama, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type httpCaller struct {
	client  *http.Client
	apiKey  string
	model   string
	baseURL string
}

func (c *httpCaller) defaults(model, baseURL string) {
	if c.model == "" {
		c.model = model
	}
	if c.baseURL == "" {
		c.baseURL = baseURL
	}
	c.baseURL = strings.TrimRight(c.baseURL, "/")
}

// post sends body as JSON to path and decodes a 200 response into out.
func (c *httpCaller) post(ctx context.Context, name, path string, headers map[string]string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s API error (status %d): %s", name, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiError struct {
	Message string `json:"message"`
}

type openAIRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type openAIResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

func (c *httpCaller) openAI(ctx context.Context, prompt string) (string, error) {
	var result openAIResponse
	err := c.post(ctx, providerOpenAI, "/v1/chat/completions",
		map[string]string{"Authorization": "Bearer " + c.apiKey},
		openAIRequest{
			Model:     c.model,
			Messages:  []chatMessage{{Role: "user", Content: prompt}},
			MaxTokens: maxTokens,
		}, &result)
	if err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("openai error: %s", result.Error.Message)
	}
	if len(result.Choices) == 0 {
		return "", ErrNoThought
	}
	return result.Choices[0].Message.Content, nil
}

type anthropicRequest struct {
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Messages  []chatMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error,omitempty"`
}

func (c *httpCaller) anthropic(ctx context.Context, prompt string) (string, error) {
	var result anthropicResponse
	err := c.post(ctx, providerAnthropic, "/v1/messages",
		map[string]string{"x-api-key": c.apiKey, "anthropic-version": "2023-06-01"},
		anthropicRequest{
			Model:     c.model,
			MaxTokens: maxTokens,
			Messages:  []chatMessage{{Role: "user", Content: prompt}},
		}, &result)
	if err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("anthropic error: %s", result.Error.Message)
	}
	for _, block := range result.Content {
		if block.Type == "text" || block.Type == "" {
			return block.Text, nil
		}
	}
	return "", ErrNoThought
}

type ollamaOptions struct {
	NumPredict int `json:"num_predict"`
}

type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options"`
}

type ollamaChatResponse struct {
	Message chatMessage `json:"message"`
	Done    bool        `json:"done"`
	Error   string      `json:"error,omitempty"`
}

func (c *httpCaller) ollama(ctx context.Context, prompt string) (string, error) {
	var result ollamaChatResponse
	err := c.post(ctx, providerOllama, "/api/chat", nil,
		ollamaChatRequest{
			Model:    c.model,
			Messages: []chatMessage{{Role: "user", Content: prompt}},
			Options:  ollamaOptions{NumPredict: maxTokens},
		}, &result)
	if err != nil {
		return "", err
	}

	if result.Error != "" {
		return "", fmt.Errorf("ollama error: %s", result.Error)
	}
	return result.Message.Content, nil
}
