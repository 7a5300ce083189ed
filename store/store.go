package store

import (
	"database/sql"
	"errors"
)

// IsErrNotFound reports whether err is the driver's empty-result error.
// Callers use it to tell "record absent" apart from a real storage failure.
func IsErrNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
