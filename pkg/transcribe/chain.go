package transcribe

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Submission is the outcome of sending media into the chain. Either JobID is
// set (the primary async provider accepted the work) or Result carries a
// transcript produced inline by a synchronous fallback tier.
type Submission struct {
	Provider string
	JobID    string
	Result   *Result
}

// Chain composes an optional async primary with ordered synchronous fallback
// tiers. Fallback is only taken on hard submission failure, never while the
// primary is merely still running.
type Chain struct {
	primary   AsyncProvider
	fallbacks []Transcriber
}

func NewChain(primary AsyncProvider, fallbacks ...Transcriber) *Chain {
	return &Chain{primary: primary, fallbacks: fallbacks}
}

func (c *Chain) Submit(ctx context.Context, ref MediaRef) (*Submission, error) {
	var failures []string

	if c.primary != nil {
		jobID, err := c.primary.Submit(ctx, ref)
		if err == nil {
			return &Submission{Provider: c.primary.Name(), JobID: jobID}, nil
		}
		slog.Warn("primary transcription provider rejected submission, falling back",
			"provider", c.primary.Name(), "media", ref.ExternalID, "error", err)
		failures = append(failures, fmt.Sprintf("%s: %v", c.primary.Name(), err))
	}

	for _, tier := range c.fallbacks {
		result, err := tier.Transcribe(ctx, ref)
		if err == nil {
			return &Submission{Provider: tier.Name(), Result: result}, nil
		}
		slog.Warn("fallback transcription tier failed",
			"provider", tier.Name(), "media", ref.ExternalID, "error", err)
		failures = append(failures, fmt.Sprintf("%s: %v", tier.Name(), err))
	}

	if len(failures) == 0 {
		return nil, fmt.Errorf("no transcription providers configured")
	}
	return nil, fmt.Errorf("all transcription tiers failed: %s", strings.Join(failures, "; "))
}

// HasFallbacks reports whether any synchronous tiers back the primary.
func (c *Chain) HasFallbacks() bool {
	return len(c.fallbacks) > 0
}

// Poll forwards to the async primary. Only submissions that returned a JobID
// are pollable.
func (c *Chain) Poll(ctx context.Context, jobID string) (*Job, error) {
	if c.primary == nil {
		return nil, fmt.Errorf("no async transcription provider configured")
	}
	return c.primary.Poll(ctx, jobID)
}
