package store

import (
	"database/sql"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// DriverName is go-sqlite3 with a fold() SQL function. LOWER and LIKE only
// fold ASCII, so text filters compare fold(column) LIKE fold(?) instead.
const DriverName = "sqlite3_fold"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(c *sqlite3.SQLiteConn) error {
			return c.RegisterFunc("fold", fold, true)
		},
	})
}

// fold lowercases text with Unicode rules. NULL stays NULL.
func fold(v any) any {
	switch s := v.(type) {
	case string:
		return strings.ToLower(s)
	case []byte:
		if s == nil {
			return nil
		}
		return strings.ToLower(string(s))
	default:
		return v
	}
}
