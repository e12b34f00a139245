package scrape

import (
	"strings"

	pw "github.com/playwright-community/playwright-go"
)

// maxLiveMatches bounds how many elements a live-DOM query materializes.
// Portfolio sections are small; anything past this is runaway matching.
const maxLiveMatches = 100

// NewLiveNode wraps an open Playwright page as a Node so the extractor's
// selector cascades run against the live DOM (tier 1). Query failures
// (a closed page, an invalid selector) surface as empty results, matching
// the per-field degrade policy.
func NewLiveNode(page pw.Page) Node {
	return &livePage{page: page}
}

// livePage is the root live node backed by the whole page.
type livePage struct {
	page pw.Page
}

func (p *livePage) Find(selector string) []Node {
	return collectLocators(p.page.Locator(selector))
}

func (p *livePage) Text() string {
	loc := p.page.Locator("body")
	text, err := loc.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (p *livePage) Attr(string) string {
	return ""
}

// liveElement is a live node scoped to one matched element.
type liveElement struct {
	loc pw.Locator
}

func (e *liveElement) Find(selector string) []Node {
	return collectLocators(e.loc.Locator(selector))
}

func (e *liveElement) Text() string {
	text, err := e.loc.TextContent()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (e *liveElement) Attr(name string) string {
	val, err := e.loc.GetAttribute(name)
	if err != nil {
		return ""
	}
	return val
}

func collectLocators(loc pw.Locator) []Node {
	count, err := loc.Count()
	if err != nil || count == 0 {
		return nil
	}
	if count > maxLiveMatches {
		count = maxLiveMatches
	}

	nodes := make([]Node, 0, count)
	for i := 0; i < count; i++ {
		nodes = append(nodes, &liveElement{loc: loc.Nth(i)})
	}
	return nodes
}
