package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"clipsearch/internal/model"
	"clipsearch/pkg/llm"
)

const (
	// MinMessageChars and MaxMessageChars bound a chat turn. Shorter is
	// noise, longer is prompt stuffing.
	MinMessageChars = 3
	MaxMessageChars = 1000

	// historyWindow is how many prior messages travel to the provider.
	historyWindow = 8
)

// ErrMessageLength reports a chat message outside the accepted bounds.
var ErrMessageLength = fmt.Errorf("message must be between %d and %d characters", MinMessageChars, MaxMessageChars)

// ErrConversationNotFound reports a conversation id with no stored row.
var ErrConversationNotFound = errors.New("conversation not found")

type ConversationStore interface {
	Create(conversation *model.Conversation) error
	GetByID(id int64) (*model.Conversation, error)
	AppendMessage(message *model.Message) error
	RecentMessages(conversationID int64, n int) ([]model.Message, error)
}

// Retriever is the slice of the engine the chat path needs.
type Retriever interface {
	Search(ctx context.Context, query string, threshold float64, limit int, actor string) ([]model.SearchHit, error)
}

type ChatAnswer struct {
	ConversationID int64
	SessionToken   string
	Reply          string
	Citations      []model.SourceCitation
}

// Chat answers questions about the transcript corpus. Each turn retrieves
// fresh context for the incoming message; history gives the model
// conversational continuity, not extra grounding.
type Chat struct {
	conversations ConversationStore
	retriever     Retriever
	generator     llm.AnswerClient
}

func NewChat(conversations ConversationStore, retriever Retriever, generator llm.AnswerClient) *Chat {
	return &Chat{conversations: conversations, retriever: retriever, generator: generator}
}

// Answer runs one chat turn. conversationID zero starts a new conversation
// and mints its session token; resuming requires the token handed out at
// creation.
func (c *Chat) Answer(ctx context.Context, sessionToken string, conversationID int64, message string) (*ChatAnswer, error) {
	message = strings.TrimSpace(message)
	if len(message) < MinMessageChars || len(message) > MaxMessageChars {
		return nil, ErrMessageLength
	}

	conversation, err := c.resolveConversation(sessionToken, conversationID)
	if err != nil {
		return nil, err
	}

	if err := c.conversations.AppendMessage(&model.Message{
		ConversationID: conversation.ID,
		Role:           model.RoleUser,
		Content:        message,
	}); err != nil {
		return nil, fmt.Errorf("persist user message: %w", err)
	}

	hits, err := c.retriever.Search(ctx, message, DefaultThreshold, DefaultLimit, ActorChat)
	if err != nil {
		// Retrieval failure degrades to an ungrounded "I don't know" rather
		// than failing the turn.
		slog.Error("chat retrieval failed", "conversation_id", conversation.ID, "error", err)
		hits = nil
	}
	grounding := DedupeByVideo(hits, ContextLimit)

	system := llm.BuildGroundedSystemPrompt(toContextSources(grounding))
	history, err := c.history(conversation.ID)
	if err != nil {
		return nil, err
	}

	reply, err := c.generator.Answer(ctx, system, history)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}

	citations := toCitations(grounding)
	if err := c.conversations.AppendMessage(&model.Message{
		ConversationID: conversation.ID,
		Role:           model.RoleAssistant,
		Content:        reply,
		Citations:      citations,
	}); err != nil {
		return nil, fmt.Errorf("persist assistant message: %w", err)
	}

	return &ChatAnswer{
		ConversationID: conversation.ID,
		SessionToken:   conversation.SessionToken,
		Reply:          reply,
		Citations:      citations,
	}, nil
}

func (c *Chat) resolveConversation(sessionToken string, id int64) (*model.Conversation, error) {
	if id != 0 {
		conversation, err := c.conversations.GetByID(id)
		if err != nil {
			return nil, fmt.Errorf("load conversation: %w", err)
		}
		// A token mismatch reads the same as a missing conversation, so ids
		// cannot be enumerated.
		if conversation == nil || conversation.SessionToken != sessionToken {
			return nil, ErrConversationNotFound
		}
		return conversation, nil
	}

	conversation := &model.Conversation{SessionToken: uuid.NewString()}
	if err := c.conversations.Create(conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}
	return conversation, nil
}

// history returns the provider-facing message window, including the user turn
// appended this call.
func (c *Chat) history(conversationID int64) ([]llm.Message, error) {
	messages, err := c.conversations.RecentMessages(conversationID, historyWindow)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	out := make([]llm.Message, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.Message{Role: m.Role, Content: m.Content})
	}
	return out, nil
}

func toContextSources(hits []model.SearchHit) []llm.ContextSource {
	sources := make([]llm.ContextSource, 0, len(hits))
	for _, hit := range hits {
		sources = append(sources, llm.ContextSource{
			Title:        hit.Title,
			ChannelName:  hit.ChannelName,
			URL:          hit.URL,
			StartSeconds: hit.StartSeconds,
			Excerpt:      hit.Excerpt,
		})
	}
	return sources
}

func toCitations(hits []model.SearchHit) []model.SourceCitation {
	citations := make([]model.SourceCitation, 0, len(hits))
	for _, hit := range hits {
		citations = append(citations, model.SourceCitation{
			VideoID:      hit.VideoID,
			Title:        hit.Title,
			ChannelName:  hit.ChannelName,
			URL:          hit.URL,
			StartSeconds: hit.StartSeconds,
			Similarity:   hit.Similarity,
			Excerpt:      hit.Excerpt,
		})
	}
	return citations
}
