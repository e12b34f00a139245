package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foliolens/foliolens/llm"
)

// streamChunkSize is the number of runes per streamed fragment.
const streamChunkSize = 48

// Chat answers questions about an analyzed portfolio, grounded in the
// analysis and the scraped data behind it.
type Chat struct {
	client llmCompleter
	logger *slog.Logger
}

// NewChat creates a chat responder with the given LLM client.
func NewChat(client llmCompleter, logger *slog.Logger) *Chat {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chat{client: client, logger: logger}
}

// Respond generates a reply to the latest turn in the conversation.
// analysis may be nil when no page has been processed yet; the model then
// answers without grounding context. Uses the "chat" capability.
func (c *Chat) Respond(ctx context.Context, turns []Turn, analysis *Analysis) (string, error) {
	prompt := "Let's discuss the website"
	if len(turns) > 0 {
		prompt = turns[len(turns)-1].Content
	}

	if analysis != nil {
		prompt = fmt.Sprintf("Context: %s\n\nUser question: %s", groundingContext(analysis), prompt)
	}

	messages := []llm.Message{
		{Role: "system", Content: chatSystemPrompt},
	}

	// Replay the history, excluding the active turn which is carried in
	// the grounded prompt.
	history := turns
	if len(history) > 0 {
		history = history[:len(history)-1]
	}
	for _, turn := range history {
		switch turn.Role {
		case "user":
			messages = append(messages, llm.Message{Role: "user", Content: turn.Content})
		case "model", "assistant":
			messages = append(messages, llm.Message{Role: "assistant", Content: turn.Content})
		}
	}

	messages = append(messages, llm.Message{Role: "user", Content: prompt})

	c.logger.Info("chat request", "turns", len(turns), "grounded", analysis != nil)

	resp, err := c.client.Complete(ctx, llm.Request{
		Capability: "chat",
		Messages:   messages,
		MaxTokens:  1024,
	})
	if err != nil {
		return "", NewGenerationError("chat", err)
	}

	return resp.Content, nil
}

// RespondStream generates a reply and delivers it as a sequence of
// fragments on the returned channel. The final fragment has Done set and
// carries the complete reply. The channel is closed when the reply is
// fully delivered, an error occurs, or ctx is cancelled; a generation
// failure is reported on errc.
func (c *Chat) RespondStream(ctx context.Context, turns []Turn, analysis *Analysis) (<-chan Fragment, <-chan error) {
	out := make(chan Fragment)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		reply, err := c.Respond(ctx, turns, analysis)
		if err != nil {
			errc <- err
			return
		}

		ts := nowTimestamp()
		for _, chunk := range splitChunks(reply, streamChunkSize) {
			select {
			case out <- Fragment{Role: "model", Content: chunk, Timestamp: ts}:
			case <-ctx.Done():
				return
			}
		}

		select {
		case out <- Fragment{Role: "model", Content: reply, Timestamp: ts, Done: true}:
		case <-ctx.Done():
		}
	}()

	return out, errc
}

// groundingContext builds the context block injected ahead of the user
// question. Key points are carried verbatim; the raw scrape is summarized
// by counts to avoid overwhelming the prompt.
func groundingContext(analysis *Analysis) string {
	s := analysis.Summary

	var b strings.Builder
	b.WriteString("\nWebsite Information:\n")
	fmt.Fprintf(&b, "URL: %s\n", orUnknown(s.URL))
	fmt.Fprintf(&b, "Title: %s\n", orUnknown(s.Title))
	fmt.Fprintf(&b, "Main Topic: %s\n\n", orUnknown(s.MainTopic))

	summary := s.Summary
	if summary == "" {
		summary = "No summary available"
	}
	fmt.Fprintf(&b, "Summary: %s\n\n", summary)

	b.WriteString("Key Points:\n")
	if len(s.KeyPoints) == 0 {
		b.WriteString("- No key points available\n")
	} else {
		for _, point := range s.KeyPoints {
			fmt.Fprintf(&b, "- %s\n", point)
		}
	}

	fmt.Fprintf(&b, "\nRaw Data Summary:\n- %d paragraphs found\n- %d links found\n- %d images found\n",
		len(analysis.Stats.Paragraphs),
		len(analysis.Stats.Links),
		len(analysis.Stats.Images))

	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// splitChunks splits s into rune-safe chunks of at most size runes.
func splitChunks(s string, size int) []string {
	if s == "" {
		return nil
	}

	runes := []rune(s)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}
