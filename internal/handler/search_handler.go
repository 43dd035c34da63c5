package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"clipsearch/internal/model"
	"clipsearch/internal/search"
)

type SearchEngine interface {
	Search(ctx context.Context, query string, threshold float64, limit int, actor string) ([]model.SearchHit, error)
}

type SearchHandler struct {
	engine SearchEngine
}

func NewSearchHandler(engine SearchEngine) *SearchHandler {
	return &SearchHandler{engine: engine}
}

func (h *SearchHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query is required"})
		return
	}

	hits, err := h.engine.Search(c.Request.Context(), req.Query, req.Threshold, req.Limit, search.ActorAPI)
	if err != nil {
		if errors.Is(err, search.ErrThresholdRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("error executing search", "query", req.Query, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	results := make([]SearchHitResponse, 0, len(hits))
	for _, hit := range hits {
		results = append(results, SearchHitResponse{
			VideoID:      hit.VideoID,
			Title:        hit.Title,
			ChannelName:  hit.ChannelName,
			URL:          hit.URL,
			StartSeconds: hit.StartSeconds,
			Similarity:   hit.Similarity,
			Excerpt:      hit.Excerpt,
			SourceKind:   hit.SourceKind,
		})
	}

	c.JSON(http.StatusOK, SearchResponse{
		Query:   req.Query,
		Results: results,
		Total:   len(results),
	})
}
