package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"clipsearch/internal/model"
	"clipsearch/pkg/embed"
)

const (
	// maxKeywordTokens is the query length at or below which retrieval uses
	// exact text matching instead of an embedding round trip. Short queries
	// are usually names or jargon, where substring match beats semantics.
	maxKeywordTokens = 3

	// exactMatchSimilarity is the score assigned to exact text hits so they
	// rank alongside (and above most) semantic hits.
	exactMatchSimilarity = 0.95

	// DefaultThreshold filters out semantic hits too weak to be useful.
	DefaultThreshold = 0.3
	// DefaultLimit caps one search's results.
	DefaultLimit = 10
	// ContextLimit is how many deduplicated hits ground a chat answer.
	ContextLimit = 5
)

// Actor values tag search_log rows with who issued the query.
const (
	ActorAPI  = "api"
	ActorChat = "chat"
)

// ErrThresholdRange reports a similarity threshold outside [0, 1].
var ErrThresholdRange = errors.New("threshold must be between 0 and 1")

type HitStore interface {
	SearchExact(query string, limit int) ([]model.SearchHit, error)
	SearchSimilar(vec []float32, threshold float64, limit int) ([]model.SearchHit, error)
	LogSearch(query, kind string, resultCount int, actor string) error
}

// Engine routes queries to exact or semantic retrieval and logs every search.
type Engine struct {
	store    HitStore
	embedder embed.Client
}

func NewEngine(store HitStore, embedder embed.Client) *Engine {
	return &Engine{store: store, embedder: embedder}
}

// Search retrieves ranked hits for a free-text query. The actor tags the
// search_log row with who asked (an API consumer or the chat orchestrator).
func (e *Engine) Search(ctx context.Context, query string, threshold float64, limit int, actor string) ([]model.SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("empty query")
	}
	if threshold < 0 || threshold > 1 {
		return nil, ErrThresholdRange
	}
	if threshold == 0 {
		threshold = DefaultThreshold
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		hits []model.SearchHit
		kind string
		err  error
	)
	if len(strings.Fields(query)) <= maxKeywordTokens {
		kind = model.SearchKindKeyword
		hits, err = e.store.SearchExact(query, limit)
		for i := range hits {
			hits[i].Similarity = exactMatchSimilarity
		}
	} else {
		kind = model.SearchKindSemantic
		hits, err = e.semanticSearch(ctx, query, threshold, limit)
	}
	if err != nil {
		return nil, err
	}

	// Chat-originated queries log under their own kind so the analytics log
	// separates conversational retrieval from direct searches.
	if actor == ActorChat {
		kind = model.SearchKindChat
	}
	if logErr := e.store.LogSearch(query, kind, len(hits), actor); logErr != nil {
		slog.Error("error logging search", "error", logErr)
	}

	return hits, nil
}

func (e *Engine) semanticSearch(ctx context.Context, query string, threshold float64, limit int) ([]model.SearchHit, error) {
	vectors, err := e.embedder.EmbedBatch(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	hits, err := e.store.SearchSimilar(vectors[0], threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return hits, nil
}

// DedupeByVideo keeps the best-scoring hit per video, preserving descending
// score order, and truncates to limit.
func DedupeByVideo(hits []model.SearchHit, limit int) []model.SearchHit {
	best := make(map[int64]model.SearchHit)
	for _, hit := range hits {
		if cur, ok := best[hit.VideoID]; !ok || hit.Similarity > cur.Similarity {
			best[hit.VideoID] = hit
		}
	}

	out := make([]model.SearchHit, 0, len(best))
	for _, hit := range best {
		out = append(out, hit)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Similarity > out[j].Similarity })

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
