package catalog

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseISODuration converts an ISO-8601 duration string as returned by the
// catalog details endpoint ("PT1H2M3S") into whole seconds.
func ParseISODuration(s string) (int, error) {
	orig := s
	if !strings.HasPrefix(s, "P") {
		return 0, fmt.Errorf("invalid duration %q", orig)
	}
	s = s[1:]

	days := 0
	if i := strings.Index(s, "D"); i >= 0 {
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", orig)
		}
		days = n
		s = s[i+1:]
	}

	total := days * 86400
	if s == "" {
		return total, nil
	}
	if !strings.HasPrefix(s, "T") {
		return 0, fmt.Errorf("invalid duration %q", orig)
	}
	s = s[1:]

	units := []struct {
		suffix string
		secs   int
	}{
		{"H", 3600},
		{"M", 60},
		{"S", 1},
	}
	for _, u := range units {
		i := strings.Index(s, u.suffix)
		if i < 0 {
			continue
		}
		n, err := strconv.Atoi(s[:i])
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", orig)
		}
		total += n * u.secs
		s = s[i+1:]
	}
	if s != "" {
		return 0, fmt.Errorf("invalid duration %q", orig)
	}
	return total, nil
}
