package store

import (
	"errors"

	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// isConstraintViolation reports whether err is a SQLite constraint failure.
// The pre-insert duplicate checks race with concurrent writers; when a
// concurrent duplicate slips past them the UNIQUE index fires, and that
// still has to surface as a conflict rather than an internal error.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	// Mask off the extended result bits (e.g. SQLITE_CONSTRAINT_UNIQUE).
	return se.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
