// Package summarize turns a listing's company outline PDF into short
// Japanese bullet points.
//
// The pipeline has three stages: locate the outline document through the
// listings source, extract plain text from its leading pages, and condense
// that text with a chat completion model. The stages before the model call
// degrade instead of failing: a missing or unreadable document only means
// the model works from less context, and an unconfigured model yields a
// fixed setup notice so the endpoint still answers.
package summarize

import (
	"context"
	"net/http"
	"time"

	"github.com/capitalens/capitalens/internal/api"
	"github.com/capitalens/capitalens/internal/logging"
)

// Defaults applied by New for zero Config fields.
const (
	// DefaultPDFTimeout bounds one document download. Outline documents
	// are far larger than listing pages, so this is double the page
	// fetch timeout.
	DefaultPDFTimeout = 30 * time.Second

	// DefaultMaxPages caps how many leading pages are read from a
	// document. The company outline sits at the front; later pages are
	// financial tables that add noise.
	DefaultMaxPages = 5
)

// ListingSource locates the company outline document for a listing code.
// *jpx.Source satisfies it.
type ListingSource interface {
	FindPDFURL(ctx context.Context, code string) (string, error)
}

// Config carries the dependencies and tunables for a Summarizer.
type Config struct {
	// Source locates outline documents. Required.
	Source ListingSource

	// LLM configures the completion backend. The zero value disables it.
	LLM LLMConfig

	// PDFTimeout bounds one document download. Zero means
	// DefaultPDFTimeout.
	PDFTimeout time.Duration

	// MaxPages caps pages read per document. Zero means DefaultMaxPages.
	MaxPages int

	// HTTPClient downloads documents. Nil means http.DefaultClient.
	HTTPClient *http.Client
}

// Summarizer produces per-listing outline summaries.
type Summarizer struct {
	source     ListingSource
	llm        *llmClient
	client     *http.Client
	pdfTimeout time.Duration
	maxPages   int
}

// New builds a Summarizer from cfg, applying defaults for zero fields.
func New(cfg Config) *Summarizer {
	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	timeout := cfg.PDFTimeout
	if timeout <= 0 {
		timeout = DefaultPDFTimeout
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Summarizer{
		source:     cfg.Source,
		llm:        newLLMClient(cfg.LLM),
		client:     client,
		pdfTimeout: timeout,
		maxPages:   maxPages,
	}
}

// Summarize builds the summary for one listing code.
//
// Document discovery and extraction failures are logged and reduce the
// model input to the fallback prompt; only a failing completion call
// surfaces as an error.
func (s *Summarizer) Summarize(ctx context.Context, code string) (*api.ListingSummary, error) {
	text := s.outlineText(ctx, code)
	bullets, err := s.bullets(ctx, code, text)
	if err != nil {
		return nil, err
	}
	return &api.ListingSummary{
		Code:        code,
		Bullets:     bullets,
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// outlineText locates, downloads, and extracts the outline document text
// for code. Every failure path returns "".
func (s *Summarizer) outlineText(ctx context.Context, code string) string {
	log := logging.FromContext(ctx)

	docURL, err := s.source.FindPDFURL(ctx, code)
	if err != nil {
		log.Warn().Ctx(ctx).Str("code", code).Err(err).Msg("outline document lookup failed")
		return ""
	}
	if docURL == "" {
		log.Debug().Ctx(ctx).Str("code", code).Msg("no outline document link for code")
		return ""
	}

	text, err := s.fetchDocumentText(ctx, docURL)
	if err != nil {
		log.Warn().Ctx(ctx).Str("code", code).Str("url", docURL).Err(err).Msg("outline document extraction failed")
		return ""
	}
	return text
}
