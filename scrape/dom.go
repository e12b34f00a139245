package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Node is a minimal read-only view of a DOM subtree. Both extraction tiers
// implement it: the live browser page (tier 1) and the static parsed markup
// (tier 2), so the same selector cascade runs uniformly against either.
type Node interface {
	// Find returns all descendants matching the CSS selector,
	// in document order.
	Find(selector string) []Node

	// Text returns the trimmed text content of the subtree.
	Text() string

	// Attr returns the value of the named attribute, or "" when absent.
	Attr(name string) string
}

// ParseHTML parses static markup into a Node rooted at the document.
func ParseHTML(html string) (Node, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}
	return &markupNode{sel: doc.Selection}, nil
}

// markupNode adapts a goquery selection to the Node interface.
type markupNode struct {
	sel *goquery.Selection
}

func (n *markupNode) Find(selector string) []Node {
	matches := n.sel.Find(selector)
	nodes := make([]Node, 0, matches.Length())
	matches.Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, &markupNode{sel: s})
	})
	return nodes
}

func (n *markupNode) Text() string {
	return strings.TrimSpace(n.sel.Text())
}

func (n *markupNode) Attr(name string) string {
	return n.sel.AttrOr(name, "")
}

// firstNode returns the first node matched by the first selector in the
// cascade that yields any match.
func firstNode(root Node, selectors []string) Node {
	for _, sel := range selectors {
		if matches := root.Find(sel); len(matches) > 0 {
			return matches[0]
		}
	}
	return nil
}

// sectionCandidates returns every node matched by the cascade, in selector
// priority order. Callers try candidates until one yields content, so a
// section that matches but holds nothing does not mask a later populated one.
func sectionCandidates(root Node, selectors []string) []Node {
	var nodes []Node
	for _, sel := range selectors {
		nodes = append(nodes, root.Find(sel)...)
	}
	return nodes
}

// firstText returns the first non-empty text matched by the cascade.
func firstText(root Node, selectors []string) string {
	for _, sel := range selectors {
		for _, m := range root.Find(sel) {
			if text := m.Text(); text != "" {
				return text
			}
		}
	}
	return ""
}

// joinedText joins the text of every match of the first selector that
// yields any non-empty text, separated by single spaces.
func joinedText(root Node, selectors []string) string {
	for _, sel := range selectors {
		var parts []string
		for _, m := range root.Find(sel) {
			if text := m.Text(); text != "" {
				parts = append(parts, text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, " ")
		}
	}
	return ""
}

// allTexts returns the texts of every match of the first selector that
// yields any, deduplicated by exact text with first-seen order preserved.
func allTexts(root Node, selectors []string) []string {
	for _, sel := range selectors {
		var texts []string
		for _, m := range root.Find(sel) {
			if text := m.Text(); text != "" {
				texts = append(texts, text)
			}
		}
		if len(texts) > 0 {
			return dedupe(texts)
		}
	}
	return nil
}

// dedupe removes exact-text duplicates, keeping the first occurrence.
func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
