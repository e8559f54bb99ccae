package summarize

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextFromContentStream(t *testing.T) {
	cases := []struct {
		name   string
		stream string
		want   string
	}{
		{
			name: "operators combined",
			stream: "BT\n" +
				"/F1 12 Tf\n" +
				"(Hello) Tj\n" +
				"[(Wor) -20 (ld)] TJ\n" +
				"0 -14 Td\n" +
				"(second line) '\n" +
				"T*\n" +
				`(Tab\there \101nd done) Tj` + "\n" +
				"ET\n",
			want: "HelloWorld second line Tab here And done",
		},
		{
			name:   "adjacent show operators concatenate",
			stream: "(A) Tj\n(B) Tj\n",
			want:   "AB",
		},
		{
			name:   "positioning operator separates words",
			stream: "(A) Tj\n1 2 TD\n(B) Tj\n",
			want:   "A B",
		},
		{
			name:   "leading positioning adds nothing",
			stream: "0 0 Td\n(A) Tj\n",
			want:   "A",
		},
		{
			name:   "no text operators",
			stream: "BT\n/F1 12 Tf\nET\n",
			want:   "",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, textFromContentStream([]byte(tc.stream)))
		})
	}
}

func TestDecodeStringLiteral(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"no escapes", "plain", "plain"},
		{"newline and tab", `a\nb\tc`, "a\nb\tc"},
		{"carriage return", `a\rb`, "a\rb"},
		{"escaped parens", `\(x\)`, "(x)"},
		{"escaped backslash", `a\\b`, `a\b`},
		{"octal three digits", `\101`, "A"},
		{"octal stops at non-digit", `\40x`, " x"},
		{"octal single digit", `\7!`, "\x07!"},
		{"unknown escape keeps char", `\z`, "z"},
		{"trailing backslash kept", `ab\`, `ab\`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, decodeStringLiteral([]byte(tc.raw)))
		})
	}
}

func TestTidyText(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"whitespace runs collapse", "a  b\t\nc", "a b c"},
		{"surrounding space trimmed", "  hello  ", "hello"},
		{"unprintable runes dropped", "a\x00b", "ab"},
		{"cjk text kept", "会社 概要", "会社 概要"},
		{"empty", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tidyText(tc.in))
		})
	}
}

func TestExtractText_InvalidDocument(t *testing.T) {
	_, err := extractText([]byte("%PDF-1.7 truncated garbage"), 5)
	require.Error(t, err)
}

func TestFetchDocumentText_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)

	s := New(Config{Source: &stubSource{}, HTTPClient: srv.Client()})
	_, err := s.fetchDocumentText(context.Background(), srv.URL+"/outline.pdf")
	require.ErrorContains(t, err, "status 404")
}

func TestFetchDocumentText_UnparseableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("html error page, not a pdf"))
	}))
	t.Cleanup(srv.Close)

	s := New(Config{Source: &stubSource{}, HTTPClient: srv.Client()})
	_, err := s.fetchDocumentText(context.Background(), srv.URL+"/outline.pdf")
	require.Error(t, err)
}
