package embed

import "context"

// Dimensions is the vector width of the datastore's embedding columns. The
// provider must be configured to produce vectors of exactly this size.
const Dimensions = 1536

type Client interface {
	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
