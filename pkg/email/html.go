package email

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var blankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

// HTMLToText flattens an HTML body to readable plain text. Unparseable input
// is returned as is.
func HTMLToText(content string) string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return content
	}

	var text strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			text.WriteString(n.Data)
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "table", "tr", "ul", "ol":
				text.WriteString("\n")
			case "li":
				text.WriteString("\n- ")
			case "td", "th":
				text.WriteString(" ")
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	out := strings.ReplaceAll(text.String(), "\u00a0", " ")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}
