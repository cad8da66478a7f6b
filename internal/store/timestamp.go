package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
)

// sqlTime scans a timestamp column in any shape the driver hands back. The
// driver converts declared TIMESTAMP columns itself, but expressions and
// subquery columns lose the declared type and arrive as text or integers.
type sqlTime struct {
	Time  time.Time
	Valid bool
}

func (t *sqlTime) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v, true
		return nil
	case int64:
		t.Time, t.Valid = unixTime(v), true
		return nil
	case float64:
		t.Time, t.Valid = unixTime(int64(v)), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *sqlTime) parse(s string) error {
	s = strings.TrimSuffix(strings.TrimSpace(s), "Z")
	if s == "" {
		t.Time, t.Valid = time.Time{}, false
		return nil
	}
	for _, layout := range sqlite3.SQLiteTimestampFormats {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time, t.Valid = parsed, true
			return nil
		}
	}
	return fmt.Errorf("parse timestamp %q", s)
}

// unixTime reads values above 1e12 as milliseconds, the same cut the driver
// uses for integer timestamps.
func unixTime(v int64) time.Time {
	if v > 1e12 {
		return time.UnixMilli(v).UTC()
	}
	return time.Unix(v, 0).UTC()
}

func (t sqlTime) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	tt := t.Time
	return &tt
}
