//go:build vss

package store

import (
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// driverName selects the CGO driver with extension loading so the
// sqlite-vss vector index can be used when its shared libraries are
// installed.
const driverName = "sqlite3_vss"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			// Load errors are ignored here; vssAvailable decides
			// whether the indexed backend is actually usable.
			_ = conn.LoadExtension("vector0", "")
			_ = conn.LoadExtension("vss0", "")
			return nil
		},
	})
}

func vssAvailable(db *sql.DB) bool {
	var version string
	return db.QueryRow("SELECT vss_version()").Scan(&version) == nil
}
