package preprocess

import (
	"strings"
	"testing"
)

func TestNormalizePassesThroughPlainText(t *testing.T) {
	text := "DTI: 35%, the application was approved."
	if got := Normalize(text); got != text {
		t.Fatalf("expected plain text unchanged, got %q", got)
	}
}

func TestLooksLikeHTMLSniff(t *testing.T) {
	cases := map[string]bool{
		"<p>DTI: 35%</p>":                    true,
		"  <html><body>hi</body></html>":     true,
		"plain text mentioning <body> later": true,
		"DTI: 35%, approved":                 false,
	}
	for text, want := range cases {
		if got := looksLikeHTML(text); got != want {
			t.Errorf("looksLikeHTML(%q) = %v, want %v", text, got, want)
		}
	}
}

func TestNormalizeStripsHTMLTags(t *testing.T) {
	got := Normalize("<html><body><p>DTI: 35%</p></body></html>")
	if strings.Contains(got, "<p>") || strings.Contains(got, "<html>") {
		t.Fatalf("expected HTML tags stripped, got %q", got)
	}
	if !strings.Contains(got, "35%") {
		t.Fatalf("expected content preserved, got %q", got)
	}
}
