package llm

import "context"

type Message struct {
	Role    string
	Content string
}

// AnswerClient produces one grounded assistant reply from a system
// instruction plus the bounded conversation history.
type AnswerClient interface {
	Answer(ctx context.Context, system string, history []Message) (string, error)
	ModelName() string
}
