package catalog

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestParseISODuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"PT4M13S", 253},
		{"PT1H2M3S", 3723},
		{"PT45S", 45},
		{"PT1H", 3600},
		{"PT10M", 600},
		{"P1DT2H", 93600},
		{"PT0S", 0},
	}

	for _, tt := range tests {
		got, err := ParseISODuration(tt.input)
		assert.Equal(t, nil, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestParseISODurationInvalid(t *testing.T) {
	for _, input := range []string{"", "4M13S", "PTXS", "PT1H2M3"} {
		_, err := ParseISODuration(input)
		assert.NotEqual(t, nil, err)
	}
}

func TestUploadsPlaylistID(t *testing.T) {
	assert.Equal(t, "UUabc123", uploadsPlaylistID("UCabc123"))
	assert.Equal(t, "PLcustom", uploadsPlaylistID("PLcustom"))
}
