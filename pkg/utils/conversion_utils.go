package utils

import (
	"fmt"
	"strconv"
)

// ParsePositiveID parses a path or query identifier. Zero and negative ids are rejected.
func ParsePositiveID(s string) (int64, error) {
	num, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse '%s' as id: %w", s, err)
	}
	if num <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", num)
	}
	return num, nil
}
