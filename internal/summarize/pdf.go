package summarize

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// fetchDocumentText downloads the outline PDF at docURL and extracts plain
// text from its leading pages. Redirects are followed; disclosure links
// frequently hop through a download host.
func (s *Summarizer) fetchDocumentText(ctx context.Context, docURL string) (string, error) {
	dlCtx, cancel := context.WithTimeout(ctx, s.pdfTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(dlCtx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", fmt.Errorf("building document request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("document download returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading document body: %w", err)
	}
	return extractText(data, s.maxPages)
}

// extractText pulls plain text from the first maxPages pages of a PDF.
// Pages whose content cannot be read are skipped. A document with no
// extractable text yields an empty string rather than an error; the caller
// treats absent text as a degraded prompt, not a failure.
func extractText(data []byte, maxPages int) (string, error) {
	conf := model.NewDefaultConfiguration()
	pdfCtx, err := pdfapi.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return "", fmt.Errorf("reading pdf: %w", err)
	}

	pages := pdfCtx.PageCount
	if maxPages > 0 && pages > maxPages {
		pages = maxPages
	}

	var sb strings.Builder
	for pageNr := 1; pageNr <= pages; pageNr++ {
		text := extractPage(pdfCtx, pageNr)
		if text == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

// extractPage returns the text of a single page, or "" when its content
// stream cannot be read.
func extractPage(pdfCtx *model.Context, pageNr int) string {
	r, err := pdfcpu.ExtractPageContent(pdfCtx, pageNr)
	if err != nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil || len(data) == 0 {
		return ""
	}
	return textFromContentStream(data)
}

// stringLiteralRe matches PDF string literals: (text).
var stringLiteralRe = regexp.MustCompile(`\(([^)]*)\)`)

// textFromContentStream walks the text-showing operators of a page content
// stream. Only literal-string arguments are handled; positioning operators
// turn into single spaces or line breaks so words do not run together.
func textFromContentStream(data []byte) string {
	var sb strings.Builder
	for _, line := range bytes.Split(data, []byte{'\n'}) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		switch {
		case bytes.HasSuffix(line, []byte("Tj")), bytes.HasSuffix(line, []byte("TJ")):
			writeStringLiterals(&sb, line, "")
		case bytes.HasSuffix(line, []byte("'")) && bytes.Contains(line, []byte("(")):
			writeStringLiterals(&sb, line, "\n")
		case bytes.HasSuffix(line, []byte("Td")), bytes.HasSuffix(line, []byte("TD")):
			if sb.Len() > 0 {
				sb.WriteByte(' ')
			}
		case bytes.Equal(line, []byte("T*")):
			sb.WriteByte('\n')
		}
	}
	return tidyText(sb.String())
}

// writeStringLiterals decodes every string literal on the line and appends
// it to sb, preceded by sep.
func writeStringLiterals(sb *strings.Builder, line []byte, sep string) {
	for _, m := range stringLiteralRe.FindAllSubmatch(line, -1) {
		text := decodeStringLiteral(m[1])
		if text == "" {
			continue
		}
		sb.WriteString(sep)
		sb.WriteString(text)
	}
}

// decodeStringLiteral resolves the escape sequences allowed inside a PDF
// string literal, including octal byte codes of up to three digits.
func decodeStringLiteral(raw []byte) string {
	var sb strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] != '\\' || i+1 == len(raw) {
			sb.WriteByte(raw[i])
			continue
		}
		i++
		switch raw[i] {
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 't':
			sb.WriteByte('\t')
		case '\\', '(', ')':
			sb.WriteByte(raw[i])
		default:
			if raw[i] < '0' || raw[i] > '7' {
				sb.WriteByte(raw[i])
				continue
			}
			val := int(raw[i] - '0')
			for d := 0; d < 2 && i+1 < len(raw) && raw[i+1] >= '0' && raw[i+1] <= '7'; d++ {
				i++
				val = val*8 + int(raw[i]-'0')
			}
			sb.WriteByte(byte(val))
		}
	}
	return sb.String()
}

// tidyText collapses whitespace runs into single spaces and drops
// unprintable runes.
func tidyText(text string) string {
	var sb strings.Builder
	space := false
	for _, r := range text {
		switch {
		case unicode.IsSpace(r):
			if !space && sb.Len() > 0 {
				sb.WriteByte(' ')
				space = true
			}
		case unicode.IsPrint(r):
			sb.WriteRune(r)
			space = false
		}
	}
	return strings.TrimSpace(sb.String())
}
