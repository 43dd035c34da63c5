package transcribe

import "strings"

const (
	// DefaultWindowSeconds is the nominal segment length.
	DefaultWindowSeconds = 30.0
	// DefaultOverlapSeconds is how much consecutive windows overlap, which
	// keeps retrieval from missing matches that straddle a boundary.
	DefaultOverlapSeconds = 5.0
)

// WindowSegment is a fixed-window slice of the token stream. Start and End
// are the actual bounds of the first and last contributing token, not the
// nominal window edges.
type WindowSegment struct {
	Text  string
	Start float64
	End   float64
}

// SegmentTokens windows the token stream into overlapping fixed-length
// segments. A token contributes to every window its interval intersects, so
// consecutive segments share roughly `overlap` seconds of text. Empty windows
// are skipped.
func SegmentTokens(tokens []Token, window, overlap float64) []WindowSegment {
	if len(tokens) == 0 {
		return nil
	}
	if window <= 0 {
		window = DefaultWindowSeconds
	}
	if overlap < 0 || overlap >= window {
		overlap = DefaultOverlapSeconds
	}
	stride := window - overlap

	maxEnd := 0.0
	for _, tok := range tokens {
		if tok.End > maxEnd {
			maxEnd = tok.End
		}
	}

	var segments []WindowSegment
	for winStart := 0.0; winStart < maxEnd; winStart += stride {
		winEnd := winStart + window

		var parts []string
		first, last := -1.0, -1.0
		for _, tok := range tokens {
			if tok.Start >= winEnd || tok.End <= winStart {
				continue
			}
			text := strings.TrimSpace(tok.Text)
			if text == "" {
				continue
			}
			parts = append(parts, text)
			if first < 0 {
				first = tok.Start
			}
			last = tok.End
		}
		if len(parts) == 0 {
			continue
		}

		segments = append(segments, WindowSegment{
			Text:  strings.Join(parts, " "),
			Start: first,
			End:   last,
		})
	}

	return segments
}
