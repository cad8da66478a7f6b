package query

import (
	"strings"
	"time"

	"github.com/matheus3301/wppmcp/internal/validate"
)

// Accepted ISO-8601 shapes. Values without an offset are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTime parses an optional ISO-8601 date or datetime. An empty string
// yields nil.
func ParseTime(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, &validate.Error{Field: field, Value: s, Reason: "expected an ISO-8601 date or datetime"}
}
