package application

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	domain "github.com/AzielCF/az-insights/research/domain"
)

// ExtractDocumentText returns the plain text stored and embedded for a
// submitted document. HTML is reduced to its visible body text.
func ExtractDocumentText(content, format string) (string, error) {
	if !strings.EqualFold(format, domain.DocumentFormatHTML) {
		return strings.TrimSpace(content), nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("parsing html document: %w", err)
	}
	doc.Find("script, style, noscript, template").Remove()

	body := doc.Find("body")
	text := body.Text()
	if body.Length() == 0 {
		text = doc.Text()
	}
	return strings.Join(strings.Fields(text), " "), nil
}
