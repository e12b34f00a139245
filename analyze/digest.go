package analyze

import (
	"net/url"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

var excessiveLinesRe = regexp.MustCompile(`\n{4,}`)

// Digester condenses raw page HTML into a markdown digest suitable for
// prompting. Readability strips chrome, then the remainder is converted
// to markdown.
type Digester struct {
	converter *md.Converter
}

// NewDigester creates a new content digester.
func NewDigester() *Digester {
	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &Digester{
		converter: converter,
	}
}

// Digest extracts the readable content of an HTML page as markdown.
// pageURL helps readability resolve relative links; it may be empty.
// Falls back to converting the full document when readability finds
// no article content.
func (d *Digester) Digest(htmlContent, pageURL string) string {
	parsed, _ := url.Parse(pageURL)

	article, err := readability.FromReader(strings.NewReader(htmlContent), parsed)
	content := ""
	if err == nil {
		content = strings.TrimSpace(article.Content)
	}
	if content == "" {
		// Readability found no article; strip page chrome from the full
		// document instead.
		content = stripNoise(htmlContent)
	}

	markdown, err := d.converter.ConvertString(content)
	if err != nil {
		// Last resort: the article plain text, or nothing
		return cleanDigest(article.TextContent)
	}

	return cleanDigest(markdown)
}

// cleanDigest normalizes whitespace in the digest.
func cleanDigest(s string) string {
	s = excessiveLinesRe.ReplaceAllString(s, "\n\n\n")
	return strings.TrimSpace(s)
}

// noiseElements never carry prompt-worthy content.
var noiseElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"object":   true,
	"embed":    true,
	"form":     true,
}

// stripNoise removes non-content elements from a full document. Parse
// failures return the input unchanged; the markdown converter copes.
func stripNoise(htmlContent string) string {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return htmlContent
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		var next *html.Node
		for c := n.FirstChild; c != nil; c = next {
			next = c.NextSibling
			if c.Type == html.ElementNode && noiseElements[c.Data] {
				n.RemoveChild(c)
				continue
			}
			walk(c)
		}
	}
	walk(doc)

	var sb strings.Builder
	if err := html.Render(&sb, doc); err != nil {
		return htmlContent
	}
	return sb.String()
}
