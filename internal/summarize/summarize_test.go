package summarize

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capitalens/capitalens/internal/api"
)

type stubSource struct {
	url   string
	err   error
	calls int
}

func (s *stubSource) FindPDFURL(ctx context.Context, code string) (string, error) {
	s.calls++
	return s.url, s.err
}

// chatCapture records the last completion request a test server received.
type chatCapture struct {
	path   string
	query  url.Values
	apiKey string
	req    chatRequest
}

func chatServer(t *testing.T, content string, capture *chatCapture) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture.path = r.URL.Path
		capture.query = r.URL.Query()
		capture.apiKey = r.Header.Get("api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capture.req))

		w.Header().Set("Content-Type", "application/json")
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testLLM(srv *httptest.Server) LLMConfig {
	return LLMConfig{
		Endpoint:   srv.URL,
		APIKey:     "secret",
		Deployment: "gpt-5",
		APIVersion: "2024-06-01",
		HTTPClient: srv.Client(),
	}
}

func TestSummarizer_UnconfiguredBackendReturnsNotice(t *testing.T) {
	source := &stubSource{}
	s := New(Config{Source: source})

	summary, err := s.Summarize(context.Background(), "9999")
	require.NoError(t, err)

	assert.Equal(t, "9999", summary.Code)
	assert.Equal(t, []string{
		"銘柄コード 9999 の要約を生成するには Azure OpenAI の設定が必要です。" +
			"（AZ_OPENAI_ENDPOINT / AZ_OPENAI_API_KEY を設定してください）",
	}, summary.Bullets)
	assert.False(t, summary.Cached)
	assert.False(t, summary.GeneratedAt.IsZero())
	assert.Equal(t, 1, source.calls)
}

func TestSummarizer_NoDocumentUsesFallbackPrompt(t *testing.T) {
	var capture chatCapture
	srv := chatServer(t, "・売上は堅調\n・海外展開を強化", &capture)

	s := New(Config{Source: &stubSource{}, LLM: testLLM(srv)})
	summary, err := s.Summarize(context.Background(), "7777")
	require.NoError(t, err)

	assert.Equal(t, []string{"売上は堅調", "海外展開を強化"}, summary.Bullets)

	assert.Equal(t, "/openai/deployments/gpt-5/chat/completions", capture.path)
	assert.Equal(t, "2024-06-01", capture.query.Get("api-version"))
	assert.Equal(t, "secret", capture.apiKey)
	assert.Equal(t, maxCompletionTokens, capture.req.MaxCompletionTokens)

	require.Len(t, capture.req.Messages, 2)
	assert.Equal(t, "system", capture.req.Messages[0].Role)
	assert.Equal(t, summarySystemPrompt, capture.req.Messages[0].Content)
	assert.Equal(t, "user", capture.req.Messages[1].Role)
	assert.Equal(t,
		"銘柄コード 7777 の会社概要テキストを取得できませんでした。入手可能な情報の範囲で概要をまとめてください。",
		capture.req.Messages[1].Content)
}

func TestSummarizer_UnreadableDocumentDegradesToFallback(t *testing.T) {
	var docHits atomic.Int32
	docSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		docHits.Add(1)
		_, _ = w.Write([]byte("this is not a pdf"))
	}))
	t.Cleanup(docSrv.Close)

	var capture chatCapture
	chat := chatServer(t, "・概要のみ", &capture)

	s := New(Config{
		Source:     &stubSource{url: docSrv.URL + "/outline.pdf"},
		LLM:        testLLM(chat),
		HTTPClient: docSrv.Client(),
	})

	summary, err := s.Summarize(context.Background(), "8888")
	require.NoError(t, err)

	assert.Equal(t, []string{"概要のみ"}, summary.Bullets)
	assert.Equal(t, int32(1), docHits.Load())
	require.Len(t, capture.req.Messages, 2)
	assert.Contains(t, capture.req.Messages[1].Content, "取得できませんでした")
}

func TestSummarizer_SourceFailureStillSummarizes(t *testing.T) {
	var capture chatCapture
	srv := chatServer(t, "・入手情報なし", &capture)

	source := &stubSource{err: errors.New("listing page down")}
	s := New(Config{Source: source, LLM: testLLM(srv)})

	summary, err := s.Summarize(context.Background(), "6666")
	require.NoError(t, err)

	assert.Equal(t, []string{"入手情報なし"}, summary.Bullets)
	require.Len(t, capture.req.Messages, 2)
	assert.Contains(t, capture.req.Messages[1].Content, "銘柄コード 6666")
}

func TestSummarizer_BackendFailureReturnsExternalAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	t.Cleanup(srv.Close)

	s := New(Config{Source: &stubSource{}, LLM: testLLM(srv)})

	_, err := s.Summarize(context.Background(), "9999")
	var apiErr *api.ExternalAPIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "AzureOpenAI", apiErr.Source)
	assert.Contains(t, apiErr.Detail, "status 500")
}

func TestSummarizer_LongTextTruncated(t *testing.T) {
	var capture chatCapture
	srv := chatServer(t, "・要約", &capture)

	s := New(Config{Source: &stubSource{}, LLM: testLLM(srv)})

	long := strings.Repeat("あ", maxPromptRunes+500)
	_, err := s.bullets(context.Background(), "9999", long)
	require.NoError(t, err)

	require.Len(t, capture.req.Messages, 2)
	assert.Equal(t, maxPromptRunes, len([]rune(capture.req.Messages[1].Content)))
}

func TestLLMClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	t.Cleanup(srv.Close)

	c := newLLMClient(testLLM(srv))
	_, err := c.complete(context.Background(), "system", "user")
	require.ErrorContains(t, err, "no content")
}

func TestParseBullets(t *testing.T) {
	cases := []struct {
		name    string
		content string
		want    []string
	}{
		{"dot markers", "・A\n・B", []string{"A", "B"}},
		{"mixed markers", "•第一\n- 第二\n・第三", []string{"第一", "第二", "第三"}},
		{"prose lines skipped", "以下が要約です。\n・A\n\n・B\n以上です。", []string{"A", "B"}},
		{"crlf line endings", "・A\r\n・B", []string{"A", "B"}},
		{"marker-only line skipped", "・\n・A", []string{"A"}},
		{"no markers keeps whole output", "まとまった一段落の説明です。", []string{"まとまった一段落の説明です。"}},
		{"whole output trimmed", "  テキスト  \n", []string{"テキスト"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseBullets(tc.content))
		})
	}
}

func TestTruncateRunes(t *testing.T) {
	cases := []struct {
		name string
		in   string
		n    int
		want string
	}{
		{"short kept", "abc", 5, "abc"},
		{"exact kept", "abcde", 5, "abcde"},
		{"ascii cut", "abcdef", 3, "abc"},
		{"multibyte cut on rune boundary", "あいうえお", 2, "あい"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, truncateRunes(tc.in, tc.n))
		})
	}
}

func TestCompletionURL(t *testing.T) {
	cfg := LLMConfig{
		Endpoint:   "https://res.openai.azure.com/",
		Deployment: "gpt-5-mini",
		APIVersion: "2024-06-01",
	}
	assert.Equal(t,
		"https://res.openai.azure.com/openai/deployments/gpt-5-mini/chat/completions?api-version=2024-06-01",
		completionURL(cfg))
}
