package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"clipsearch/internal/model"
)

type KeywordStore interface {
	List(activeOnly bool) ([]model.Keyword, error)
	Create(keyword *model.Keyword) error
	Update(keyword *model.Keyword) (bool, error)
	Deactivate(id int64) (bool, error)
}

type KeywordHandler struct {
	repository KeywordStore
}

func NewKeywordHandler(repository KeywordStore) *KeywordHandler {
	return &KeywordHandler{repository: repository}
}

func toKeywordResponse(k model.Keyword) KeywordResponse {
	return KeywordResponse{
		ID:          k.ID,
		Name:        k.Name,
		Description: k.Description,
		Active:      k.Active,
	}
}

// GetKeywords lists active keywords. Admins pass ?all=true to include
// deactivated ones.
func (h *KeywordHandler) GetKeywords(c *gin.Context) {
	activeOnly := c.Query("all") != "true"

	keywords, err := h.repository.List(activeOnly)
	if err != nil {
		slog.Error("error fetching keywords", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	res := make([]KeywordResponse, 0, len(keywords))
	for _, k := range keywords {
		res = append(res, toKeywordResponse(k))
	}

	c.JSON(http.StatusOK, res)
}

func (h *KeywordHandler) CreateKeyword(c *gin.Context) {
	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	keyword := model.Keyword{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Active:      true,
	}
	if err := h.repository.Create(&keyword); err != nil {
		slog.Error("error creating keyword", "name", keyword.Name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusCreated, toKeywordResponse(keyword))
}

func (h *KeywordHandler) UpdateKeyword(c *gin.Context) {
	keywordID, ok := pathID(c)
	if !ok {
		return
	}

	var req KeywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
		return
	}

	keyword := model.Keyword{
		ID:          keywordID,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Active:      true,
	}
	updated, err := h.repository.Update(&keyword)
	if err != nil {
		slog.Error("error updating keyword", "keyword_id", keywordID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"error": "Keyword not found"})
		return
	}

	c.JSON(http.StatusOK, toKeywordResponse(keyword))
}

func (h *KeywordHandler) DeleteKeyword(c *gin.Context) {
	keywordID, ok := pathID(c)
	if !ok {
		return
	}

	deleted, err := h.repository.Deactivate(keywordID)
	if err != nil {
		slog.Error("error deactivating keyword", "keyword_id", keywordID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, gin.H{"error": "Keyword not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deactivated": true})
}
