package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/capitalens/capitalens/internal/api"
)

// DefaultLLMTimeout bounds one completion call.
const DefaultLLMTimeout = 60 * time.Second

// llmSourceName labels the completion backend in error envelopes.
const llmSourceName = "AzureOpenAI"

// maxPromptRunes caps the outline text sent to the model.
const maxPromptRunes = 8000

// maxCompletionTokens is the per-call completion budget. Summaries are
// short, but reasoning-capable deployments spend tokens before emitting
// visible output.
const maxCompletionTokens = 16384

// summarySystemPrompt instructs the model to produce 4 to 8 Japanese
// bullet lines, each starting with the "・" marker.
const summarySystemPrompt = "あなたはIPO企業の事業概要をまとめる専門家です。" +
	"提供された会社概要テキストを日本語で4〜8項目の箇条書きにまとめてください。" +
	"各項目は「・」で始め、1行で完結させてください。" +
	"テキストが不十分な場合は入手できた情報の範囲でまとめてください。"

// missingTextPrompt is the user message sent when no outline text could be
// obtained for the code.
const missingTextPrompt = "銘柄コード %s の会社概要テキストを取得できませんでした。" +
	"入手可能な情報の範囲で概要をまとめてください。"

// setupNotice is the single bullet returned when no completion backend is
// configured.
const setupNotice = "銘柄コード %s の要約を生成するには Azure OpenAI の設定が必要です。" +
	"（AZ_OPENAI_ENDPOINT / AZ_OPENAI_API_KEY を設定してください）"

// LLMConfig configures the chat completion backend. The zero value leaves
// the backend off, in which case summaries carry a setup notice.
type LLMConfig struct {
	// Endpoint is the Azure OpenAI resource URL, scheme and host only.
	Endpoint string

	// APIKey is sent as the api-key request header.
	APIKey string

	// Deployment is the model deployment name inside the resource.
	Deployment string

	// APIVersion selects the REST API revision.
	APIVersion string

	// Timeout bounds one completion call. Zero means DefaultLLMTimeout.
	Timeout time.Duration

	// HTTPClient overrides the client used for completion calls.
	HTTPClient *http.Client
}

// Configured reports whether the backend can be called at all.
func (c LLMConfig) Configured() bool {
	return c.Endpoint != "" && c.APIKey != ""
}

// llmClient is a minimal chat-completions client speaking the Azure URL
// form: {endpoint}/openai/deployments/{deployment}/chat/completions.
type llmClient struct {
	hc      *http.Client
	url     string
	apiKey  string
	timeout time.Duration
}

// newLLMClient returns nil when the backend is not configured.
func newLLMClient(cfg LLMConfig) *llmClient {
	if !cfg.Configured() {
		return nil
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultLLMTimeout
	}
	return &llmClient{
		hc:      hc,
		url:     completionURL(cfg),
		apiKey:  cfg.APIKey,
		timeout: timeout,
	}
}

// completionURL assembles the deployment-scoped chat completions URL with
// the api-version query parameter.
func completionURL(cfg LLMConfig) string {
	base := strings.TrimRight(cfg.Endpoint, "/")
	return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		base, url.PathEscape(cfg.Deployment), url.QueryEscape(cfg.APIVersion))
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages            []chatMessage `json:"messages"`
	MaxCompletionTokens int           `json:"max_completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete runs one system+user chat exchange and returns the raw model
// output.
func (c *llmClient) complete(ctx context.Context, system, user string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		MaxCompletionTokens: maxCompletionTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("api-key", c.apiKey)

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling completion endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("completion endpoint returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", errors.New("completion response has no content")
	}
	return out.Choices[0].Message.Content, nil
}

// bullets produces the summary lines for code from the extracted outline
// text. An empty text switches the user message to the fallback prompt so
// the model still answers from the code alone.
func (s *Summarizer) bullets(ctx context.Context, code, text string) ([]string, error) {
	if s.llm == nil {
		return []string{fmt.Sprintf(setupNotice, code)}, nil
	}
	user := text
	if user == "" {
		user = fmt.Sprintf(missingTextPrompt, code)
	}
	content, err := s.llm.complete(ctx, summarySystemPrompt, truncateRunes(user, maxPromptRunes))
	if err != nil {
		return nil, &api.ExternalAPIError{Source: llmSourceName, Detail: err.Error()}
	}
	return parseBullets(content), nil
}

// parseBullets collects the bullet lines of the model output, stripping
// the leading markers. Output with no recognizable bullets is kept whole
// as a single entry.
func parseBullets(content string) []string {
	var bullets []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "・") || strings.HasPrefix(line, "•") || strings.HasPrefix(line, "-") {
			if b := strings.TrimSpace(strings.TrimLeft(line, "・•-")); b != "" {
				bullets = append(bullets, b)
			}
		}
	}
	if len(bullets) == 0 {
		return []string{strings.TrimSpace(content)}
	}
	return bullets
}

// truncateRunes bounds s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
