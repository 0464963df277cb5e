// Package preprocess is the thin collaborator in front of the
// Extraction Engine described in SPEC_FULL.md §4.1: if llm_output
// sniffs as HTML, it is stripped to its readable content and normalized
// to plain text before the Extraction Engine ever sees it. Pure text
// input passes through untouched; this has no effect on extraction
// semantics for the common case of a model emitting prose.
package preprocess

import (
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
)

// Normalize returns text unchanged unless it sniffs as HTML, in which
// case it is run through go-readability (strip chrome/boilerplate) and
// then html-to-markdown (normalize to plain-ish text), grounded in
// C360Studio-semspec's web-ingester converter's use of the same pair of
// libraries for the same purpose.
func Normalize(text string) string {
	if !looksLikeHTML(text) {
		return text
	}

	article, err := readability.FromReader(strings.NewReader(text), &url.URL{})
	content := text
	if err == nil && strings.TrimSpace(article.Content) != "" {
		content = article.Content
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	markdown, err := converter.ConvertString(content)
	if err != nil {
		return text
	}
	return markdown
}

// looksLikeHTML matches SPEC_FULL.md §4.1's sniff rule: the trimmed
// text starts with '<', or contains an <html or <body tag.
func looksLikeHTML(text string) bool {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "<") {
		return true
	}
	lower := strings.ToLower(trimmed)
	return strings.Contains(lower, "<html") || strings.Contains(lower, "<body")
}
