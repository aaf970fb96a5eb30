//go:build !vss

package store

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// driverName selects the pure Go driver. It cannot load native extensions,
// so the indexed backend is never available in this build.
const driverName = "sqlite"

func vssAvailable(_ *sql.DB) bool {
	return false
}
