package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Dialect identifies the SQL flavour of the connected database
type Dialect int

const (
	Postgres Dialect = iota
	MySQL
	SQLite
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ParseDialect maps a DB_DRIVER value to a Dialect
func ParseDialect(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "postgres", "postgresql", "":
		return Postgres, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return 0, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return "postgres"
	}
}

// DriverName returns the database/sql driver registered for the dialect
func (d Dialect) DriverName() string {
	return d.String()
}

// QuoteIdent quotes a table or column name
func (d Dialect) QuoteIdent(name string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(name, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// JSONType returns the column type used for JSON documents
func (d Dialect) JSONType() string {
	switch d {
	case MySQL:
		return "JSON"
	case SQLite:
		return "TEXT"
	default:
		return "JSONB"
	}
}

// Rebind rewrites ? placeholders into the dialect's bind syntax.
// Placeholders inside quoted strings are left alone.
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote byte
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ValidIdentifier reports whether name can be interpolated into DDL
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}
