package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"wallet/internal/core"
)

var errNoRows = errors.New("no rows affected")

// timestamp scans TIMESTAMPTZ values (PostgreSQL) and RFC3339 text (SQLite).
type timestamp struct{ t *time.Time }

func (s timestamp) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*s.t = time.Time{}
	case time.Time:
		*s.t = x.UTC()
	case string:
		return s.parse(x)
	case []byte:
		return s.parse(string(x))
	default:
		return fmt.Errorf("%w: timestamp of type %T", core.ErrInvalidRecord, v)
	}
	return nil
}

func (s timestamp) parse(v string) error {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return fmt.Errorf("%w: timestamp %q", core.ErrInvalidRecord, v)
	}
	*s.t = t.UTC()
	return nil
}

// calendarDate scans DATE values (PostgreSQL) and YYYY-MM-DD text (SQLite)
// into their string form. NULL scans to "".
type calendarDate struct{ s *string }

func (d calendarDate) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		*d.s = ""
	case time.Time:
		*d.s = x.Format(core.DateLayout)
	case string:
		*d.s = x
	case []byte:
		*d.s = string(x)
	default:
		return fmt.Errorf("%w: date of type %T", core.ErrInvalidRecord, v)
	}
	return nil
}

// timeLayout is fixed width so that SQLite's text ordering of created_at
// matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func invalidRecord(kind, field, value string) error {
	return fmt.Errorf("%w: %s %s %q", core.ErrInvalidRecord, kind, field, value)
}

// notFound maps the zero-row outcomes of database/sql onto core.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) || errors.Is(err, errNoRows) {
		return core.ErrNotFound
	}
	return err
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure from
// either driver.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
