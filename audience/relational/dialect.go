package relational

import (
	"strings"

	"github.com/audience/audience/audience/storage/sqlbuilder"
)

// Dialect captures the syntax differences between relational targets.
type Dialect struct {
	Name         string
	Placeholders sqlbuilder.PlaceholderStyle
	// Like is the case-insensitive pattern operator.
	Like string
	// Geo reports whether earth_distance and ll_to_earth are available.
	Geo bool
}

var (
	Postgres = Dialect{Name: "postgres", Placeholders: sqlbuilder.PlaceholderDollar, Like: "ILIKE", Geo: true}
	// SQLite's LIKE is already case-insensitive for ASCII.
	SQLite = Dialect{Name: "sqlite", Placeholders: sqlbuilder.PlaceholderQuestion, Like: "LIKE"}
)

// DialectByName resolves "postgres"/"pg" or "sqlite"/"sqlite3".
func DialectByName(name string) (Dialect, bool) {
	switch strings.ToLower(name) {
	case "postgres", "postgresql", "pg":
		return Postgres, true
	case "sqlite", "sqlite3":
		return SQLite, true
	default:
		return Dialect{}, false
	}
}
