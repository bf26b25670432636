package prioritize

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanContent strips markup from source content. Email bodies and
// uploaded documents frequently arrive as HTML; the classifier and the
// extraction prompt both want visible text only. Content without any
// tags passes through unchanged.
func CleanContent(content string) string {
	if !strings.Contains(content, "<") {
		return content
	}

	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	text := extractVisibleText(doc)
	if strings.TrimSpace(text) == "" {
		return content
	}
	return strings.TrimSpace(text)
}

// extractVisibleText extracts text nodes from HTML, skipping scripts/styles
func extractVisibleText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}

		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(n)
	return buf.String()
}
