package fetcher

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// pageBreak separates PDF pages in extracted text. Keeping it explicit and
// constant makes offset math deterministic across re-fetches of the same
// file.
const pageBreak = "\n\f\n"

// extractText converts a fetched body to plain text. kind is one of
// "html", "pdf", "text".
func extractText(rawURL, ctype string, body []byte) (kind, text string, err error) {
	switch {
	case strings.Contains(ctype, "pdf") || strings.HasSuffix(strings.ToLower(rawURL), ".pdf"):
		text, err = pdfToText(body)
		return "pdf", text, err
	case strings.Contains(ctype, "html") || strings.Contains(ctype, "xhtml"):
		text, err = htmlToText(body)
		return "html", text, err
	case strings.Contains(ctype, "text/plain") || ctype == "":
		return "text", normalizeText(string(body)), nil
	default:
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedContentType, ctype)
	}
}

func htmlToText(body []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	doc.Find("script, style, noscript").Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	return normalizeText(root.Text()), nil
}

// pdfToText extracts text page-by-page, concatenated with explicit page
// boundary markers.
func pdfToText(body []byte) (string, error) {
	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrParseFailure, i, err)
		}
		pages = append(pages, normalizeText(text))
	}
	return strings.Join(pages, pageBreak), nil
}

// normalizeText collapses horizontal whitespace per line and trims blank
// runs, preserving line structure so sentence boundaries survive.
func normalizeText(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			blank = true
			continue
		}
		if blank && len(out) > 0 {
			out = append(out, "")
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
