// Package model provides capability-based model selection for the analysis
// pipeline. Instead of hardcoding model names, callers specify capabilities
// (analysis, chat, fast) and the registry resolves them to available models
// with fallback chains.
package model

// Capability represents a semantic capability for model selection.
// Instead of specifying "gemini-2.0-flash", callers specify "analysis" or "chat".
type Capability string

const (
	// CapabilityAnalysis is for structured website summarization.
	CapabilityAnalysis Capability = "analysis"

	// CapabilityChat is for grounded conversational answers.
	CapabilityChat Capability = "chat"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityAnalysis, CapabilityChat, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}
