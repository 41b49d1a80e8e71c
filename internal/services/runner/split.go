package runner

import (
	"strings"

	"github.com/asakaida/telops/internal/infrastructure/database"
)

// SplitStatements splits a script on semicolons. Semicolons inside string
// literals, quoted identifiers, comments and postgres dollar-quoted bodies do
// not end a statement. Comments are dropped and empty statements skipped.
// Backslash escapes are honoured in mysql literals and postgres E'' strings.
// Mysql also accepts # line comments.
func SplitStatements(src string, dialect database.Dialect) []string {
	var (
		stmts []string
		cur   strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			stmts = append(stmts, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			backslash := dialect == database.MySQL || (c == '\'' && dialect == database.Postgres && escapeString(src, i))
			end := quotedEnd(src, i, backslash)
			cur.WriteString(src[i:end])
			i = end

		case lineComment(src[i:], dialect):
			end := strings.IndexByte(src[i:], '\n')
			if end == -1 {
				i = len(src)
			} else {
				i += end
			}

		case c == '/' && strings.HasPrefix(src[i:], "/*"):
			end := strings.Index(src[i+2:], "*/")
			if end == -1 {
				i = len(src)
			} else {
				i += end + 4
			}
			cur.WriteByte(' ')

		case c == '$' && dialect == database.Postgres:
			tag := dollarTag(src[i:])
			if tag == "" {
				cur.WriteByte(c)
				i++
				continue
			}
			end := strings.Index(src[i+len(tag):], tag)
			if end == -1 {
				end = len(src)
			} else {
				end = i + len(tag) + end + len(tag)
			}
			cur.WriteString(src[i:end])
			i = end

		case c == ';':
			flush()
			i++

		default:
			cur.WriteByte(c)
			i++
		}
	}
	flush()
	return stmts
}

// quotedEnd returns the index just past the literal opened at src[start].
// A doubled quote character is an escaped quote.
func quotedEnd(src string, start int, backslash bool) int {
	q := src[start]
	for i := start + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			if backslash && q != '`' {
				i++
			}
		case q:
			if i+1 < len(src) && src[i+1] == q {
				i++
				continue
			}
			return i + 1
		}
	}
	return len(src)
}

// dollarTag returns the $tag$ opening s, or "" if s does not start with one
func dollarTag(s string) string {
	for i := 1; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '$':
			return s[:i+1]
		case c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z'):
		case c >= '0' && c <= '9' && i > 1:
		default:
			return ""
		}
	}
	return ""
}

// lineComment reports whether s starts with a line comment. Mysql needs
// whitespace after --, so "1--1" is arithmetic there.
func lineComment(s string, dialect database.Dialect) bool {
	if dialect == database.MySQL {
		if strings.HasPrefix(s, "#") {
			return true
		}
		return strings.HasPrefix(s, "--") && (len(s) == 2 || isSpace(s[2]))
	}
	return strings.HasPrefix(s, "--")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// escapeString reports whether the quote at src[i] opens a postgres E'' string
func escapeString(src string, i int) bool {
	if i == 0 || (src[i-1] != 'E' && src[i-1] != 'e') {
		return false
	}
	if i == 1 {
		return true
	}
	p := src[i-2]
	return !(p == '_' || (p >= 'a' && p <= 'z') || (p >= 'A' && p <= 'Z') || (p >= '0' && p <= '9'))
}
