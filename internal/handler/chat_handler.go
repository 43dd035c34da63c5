package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipsearch/internal/search"
)

type ChatService interface {
	Answer(ctx context.Context, sessionToken string, conversationID int64, message string) (*search.ChatAnswer, error)
}

type ChatHandler struct {
	chat ChatService
}

func NewChatHandler(chat ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	answer, err := h.chat.Answer(c.Request.Context(), req.SessionToken, req.ConversationID, req.Message)
	if err != nil {
		if errors.Is(err, search.ErrMessageLength) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, search.ErrConversationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Conversation not found"})
			return
		}
		slog.Error("error answering chat message", "conversation_id", req.ConversationID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Chat failed"})
		return
	}

	citations := make([]CitationResponse, 0, len(answer.Citations))
	for _, citation := range answer.Citations {
		citations = append(citations, CitationResponse{
			VideoID:      citation.VideoID,
			Title:        citation.Title,
			ChannelName:  citation.ChannelName,
			URL:          citation.URL,
			StartSeconds: citation.StartSeconds,
			Similarity:   citation.Similarity,
			Excerpt:      citation.Excerpt,
		})
	}

	c.JSON(http.StatusOK, ChatResponse{
		ConversationID: answer.ConversationID,
		SessionToken:   answer.SessionToken,
		Reply:          answer.Reply,
		Citations:      citations,
	})
}
