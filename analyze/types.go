package analyze

import (
	"time"

	"github.com/foliolens/foliolens/scrape"
)

// Summary is the structured result of analyzing a portfolio page.
type Summary struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	MainTopic string   `json:"main_topic"`
	Summary   string   `json:"summary"`
	KeyPoints []string `json:"key_points"`
}

// Analysis bundles the LLM summary with the scraped material it was
// derived from. Chat grounding reuses it verbatim.
type Analysis struct {
	Summary Summary                `json:"analysis"`
	Record  scrape.PortfolioRecord `json:"portfolio"`
	Stats   scrape.PageStats       `json:"scraped_data"`
}

// Turn is a single message in a chat conversation.
// Role is "user" for the visitor and "model" for generated replies.
type Turn struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Fragment is one piece of a streamed chat reply. The final fragment has
// Done set and carries the full reply text in Content.
type Fragment struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Done      bool   `json:"done"`
}

// nowTimestamp returns the current UTC time in RFC 3339 format,
// matching the timestamps carried on chat turns.
func nowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
