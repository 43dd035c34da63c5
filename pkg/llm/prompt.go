package llm

import (
	"fmt"
	"strings"
)

const answerSystemPrompt = `You are an assistant that answers questions about a library of video transcripts.

Rules:
1. Answer ONLY from the provided transcript excerpts
2. If the excerpts don't contain the answer, say you don't know
3. Mention which video a fact came from when it matters
4. Keep answers concise and conversational
5. Never invent timestamps, titles, or quotes`

// ContextSource is one retrieved excerpt handed to the generation provider.
type ContextSource struct {
	Title        string
	ChannelName  string
	URL          string
	StartSeconds float64
	Excerpt      string
}

// BuildGroundedSystemPrompt embeds the retrieved excerpts into the system
// instruction so the model's answer stays anchored to the corpus.
func BuildGroundedSystemPrompt(sources []ContextSource) string {
	if len(sources) == 0 {
		return answerSystemPrompt + "\n\nNo transcript excerpts matched this question. Say so and suggest rephrasing."
	}

	var sb strings.Builder
	sb.WriteString(answerSystemPrompt)
	sb.WriteString("\n\nTranscript excerpts:\n\n")
	for i, s := range sources {
		sb.WriteString(fmt.Sprintf("[%d] %q", i+1, s.Title))
		if s.ChannelName != "" {
			sb.WriteString(" — " + s.ChannelName)
		}
		sb.WriteString(fmt.Sprintf(" (at %s)\n", formatTimestamp(s.StartSeconds)))
		sb.WriteString(s.Excerpt)
		sb.WriteString("\n\n")
	}
	return sb.String()
}

func formatTimestamp(seconds float64) string {
	total := int(seconds)
	if total >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", total/3600, (total%3600)/60, total%60)
	}
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
