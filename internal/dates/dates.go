// Package dates is the shared date-parsing collaborator for tool parameters.
// Date-like parameters arrive as free-form strings chosen by the model
// ("2026-03-01 14:00", "March 1st 3pm", RFC3339, ...); parsing failures are
// validation failures for the item that carried the string, never fatal.
package dates

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Parse interprets a free-form date string in the local timezone.
// An empty or unparseable string returns an error.
func Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date string")
	}
	t, err := dateparse.ParseLocal(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unparseable date %q: %w", s, err)
	}
	return t, nil
}
