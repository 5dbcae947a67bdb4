package invoicing

import (
	"fmt"
	"strconv"
	"strings"
)

// NumberWidth is the zero-padded width of a printed document number.
const NumberWidth = 8

// NextNumber returns the number following existingMax in a series.
func NextNumber(existingMax int) int {
	if existingMax < 0 {
		existingMax = 0
	}
	return existingMax + 1
}

// FormatNumber renders n zero-padded to eight digits.
func FormatNumber(n int) string {
	return fmt.Sprintf("%0*d", NumberWidth, n)
}

// ParseNumber reads a stored formatted number back into an integer.
func ParseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid document number %q: %w", s, err)
	}
	return n, nil
}
