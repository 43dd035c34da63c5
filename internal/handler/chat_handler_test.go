package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"

	"clipsearch/internal/model"
	"clipsearch/internal/search"
)

type fakeChat struct {
	answer    *search.ChatAnswer
	err       error
	lastToken string
}

func (f *fakeChat) Answer(ctx context.Context, sessionToken string, conversationID int64, message string) (*search.ChatAnswer, error) {
	f.lastToken = sessionToken
	if f.err != nil {
		return nil, f.err
	}
	return f.answer, nil
}

func newChatRouter(chat ChatService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewChatHandler(chat)
	r.POST("/chat", h.Chat)
	return r
}

func TestChat_ReturnsReplyWithCitations(t *testing.T) {
	chat := &fakeChat{answer: &search.ChatAnswer{
		ConversationID: 7,
		SessionToken:   "session-abc",
		Reply:          "The keynote covered vector search.",
		Citations: []model.SourceCitation{
			{VideoID: 3, Title: "Keynote", StartSeconds: 120, Similarity: 0.77, Excerpt: "vector search demo"},
		},
	}}
	r := newChatRouter(chat)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message":"what did the keynote cover?"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var res ChatResponse
	json.Unmarshal(w.Body.Bytes(), &res)
	assert.Equal(t, res.ConversationID, int64(7))
	assert.Equal(t, res.SessionToken, "session-abc")
	assert.Equal(t, len(res.Citations), 1)
	assert.Equal(t, res.Citations[0].VideoID, int64(3))
}

func TestChat_ForwardsSessionToken(t *testing.T) {
	chat := &fakeChat{answer: &search.ChatAnswer{ConversationID: 7, SessionToken: "session-abc", Reply: "ok"}}
	r := newChatRouter(chat)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/chat",
		strings.NewReader(`{"conversation_id":7,"session_token":"session-abc","message":"a follow-up question"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chat.lastToken, "session-abc")
}

func TestChat_MessageTooShort(t *testing.T) {
	r := newChatRouter(&fakeChat{err: search.ErrMessageLength})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message":"hi"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChat_UnknownConversation(t *testing.T) {
	r := newChatRouter(&fakeChat{err: search.ErrConversationNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"conversation_id":999,"message":"a valid question"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChat_GenerationError(t *testing.T) {
	r := newChatRouter(&fakeChat{err: errors.New("provider timeout")})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/chat", strings.NewReader(`{"message":"a valid question"}`))
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
