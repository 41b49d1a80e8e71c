// Package sqlerr classifies errors returned by the postgres, mysql and sqlite
// drivers so callers can decide whether a failed statement is fatal.
package sqlerr

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

// Code is a driver independent error category
type Code int

const (
	Other Code = iota
	DuplicateColumn
	DuplicateTable
	DuplicateObject
	UniqueViolation
	ForeignKeyViolation
	NotNullViolation
	CheckViolation
	UndefinedTable
	UndefinedColumn
	SyntaxError
)

var codeNames = map[Code]string{
	Other:               "other",
	DuplicateColumn:     "duplicate_column",
	DuplicateTable:      "duplicate_table",
	DuplicateObject:     "duplicate_object",
	UniqueViolation:     "unique_violation",
	ForeignKeyViolation: "foreign_key_violation",
	NotNullViolation:    "not_null_violation",
	CheckViolation:      "check_violation",
	UndefinedTable:      "undefined_table",
	UndefinedColumn:     "undefined_column",
	SyntaxError:         "syntax_error",
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "other"
}

// SQLSTATE classes used by postgres
var pgCodes = map[pq.ErrorCode]Code{
	"42701": DuplicateColumn,
	"42P07": DuplicateTable,
	"42710": DuplicateObject,
	"42P06": DuplicateObject, // duplicate_schema
	"23505": UniqueViolation,
	"23503": ForeignKeyViolation,
	"23502": NotNullViolation,
	"23514": CheckViolation,
	"42P01": UndefinedTable,
	"42703": UndefinedColumn,
	"42601": SyntaxError,
}

// MySQL / MariaDB server error numbers
var mysqlCodes = map[uint16]Code{
	1060: DuplicateColumn, // ER_DUP_FIELDNAME
	1050: DuplicateTable,  // ER_TABLE_EXISTS_ERROR
	1061: DuplicateObject, // ER_DUP_KEYNAME
	1826: DuplicateObject, // ER_FK_DUP_NAME
	1062: UniqueViolation, // ER_DUP_ENTRY
	1451: ForeignKeyViolation,
	1452: ForeignKeyViolation,
	1048: NotNullViolation, // ER_BAD_NULL_ERROR
	1364: NotNullViolation, // ER_NO_DEFAULT_FOR_FIELD
	3819: CheckViolation,
	4025: CheckViolation, // MariaDB ER_CONSTRAINT_FAILED
	1146: UndefinedTable,
	1054: UndefinedColumn,
	1064: SyntaxError,
}

// message fragments, checked in order, for drivers without structured codes
var messageCodes = []struct {
	fragment string
	code     Code
}{
	{"duplicate column", DuplicateColumn},
	{"already exists", DuplicateTable},
	{"unique constraint failed", UniqueViolation},
	{"duplicate entry", UniqueViolation},
	{"foreign key constraint failed", ForeignKeyViolation},
	{"not null constraint failed", NotNullViolation},
	{"check constraint failed", CheckViolation},
	{"no such table", UndefinedTable},
	{"no such column", UndefinedColumn},
	{"syntax error", SyntaxError},
}

// Classify reports the category of err. nil maps to Other.
func Classify(err error) Code {
	if err == nil {
		return Other
	}

	var pgErr *pq.Error
	if errors.As(err, &pgErr) {
		if code, ok := pgCodes[pgErr.Code]; ok {
			return code
		}
		return Other
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		if code, ok := mysqlCodes[myErr.Number]; ok {
			return code
		}
		return Other
	}

	msg := strings.ToLower(err.Error())
	for _, m := range messageCodes {
		if strings.Contains(msg, m.fragment) {
			if m.code == DuplicateTable && strings.Contains(msg, "index") {
				return DuplicateObject
			}
			return m.code
		}
	}
	return Other
}

// IsDuplicateColumn reports whether err is an "add column" on an existing column
func IsDuplicateColumn(err error) bool {
	return Classify(err) == DuplicateColumn
}

// IsAlreadyExists reports whether err indicates idempotent DDL that already ran
func IsAlreadyExists(err error) bool {
	switch Classify(err) {
	case DuplicateColumn, DuplicateTable, DuplicateObject:
		return true
	}
	return false
}
