package scrape

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CollectStats walks the static markup and gathers paragraph texts, link
// targets, and image sources. Parse failures yield empty (never nil) lists.
func CollectStats(html string) PageStats {
	stats := PageStats{
		Paragraphs: []string{},
		Links:      []string{},
		Images:     []string{},
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return stats
	}

	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			stats.Paragraphs = append(stats.Paragraphs, text)
		}
	})

	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		if href, ok := s.Attr("href"); ok && href != "" {
			stats.Links = append(stats.Links, href)
		}
	})

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok && src != "" {
			stats.Images = append(stats.Images, src)
		}
	})

	return stats
}
