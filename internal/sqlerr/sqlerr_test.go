package sqlerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Code
	}{
		{name: "nil", err: nil, want: Other},
		{name: "pq duplicate column", err: &pq.Error{Code: "42701", Message: `column "assets" of relation "company" already exists`}, want: DuplicateColumn},
		{name: "pq duplicate table", err: &pq.Error{Code: "42P07"}, want: DuplicateTable},
		{name: "pq unique", err: &pq.Error{Code: "23505"}, want: UniqueViolation},
		{name: "pq unknown", err: &pq.Error{Code: "53300"}, want: Other},
		{name: "pq wrapped", err: fmt.Errorf("exec 002_fk.sql: %w", &pq.Error{Code: "23503"}), want: ForeignKeyViolation},
		{name: "mysql duplicate column", err: &mysql.MySQLError{Number: 1060, Message: "Duplicate column name 'assets'"}, want: DuplicateColumn},
		{name: "mysql duplicate key name", err: &mysql.MySQLError{Number: 1061}, want: DuplicateObject},
		{name: "mysql missing table", err: &mysql.MySQLError{Number: 1146}, want: UndefinedTable},
		{name: "mysql unknown", err: &mysql.MySQLError{Number: 2013}, want: Other},
		{name: "sqlite duplicate column", err: errors.New("SQL logic error: duplicate column name: assets (1)"), want: DuplicateColumn},
		{name: "legacy message match", err: errors.New("ER_DUP_FIELDNAME: Duplicate column name 'assets'"), want: DuplicateColumn},
		{name: "sqlite table exists", err: errors.New("table company already exists"), want: DuplicateTable},
		{name: "sqlite index exists", err: errors.New("index idx_company_name already exists"), want: DuplicateObject},
		{name: "sqlite unique", err: errors.New("constraint failed: UNIQUE constraint failed: provider.name (2067)"), want: UniqueViolation},
		{name: "sqlite no such table", err: errors.New("no such table: segment"), want: UndefinedTable},
		{name: "plain", err: errors.New("connection reset by peer"), want: Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{err: &pq.Error{Code: "42701"}, want: true},
		{err: &pq.Error{Code: "42P07"}, want: true},
		{err: &mysql.MySQLError{Number: 1061}, want: true},
		{err: &pq.Error{Code: "23505"}, want: false},
		{err: errors.New("syntax error at or near \"ALTR\""), want: false},
	}

	for _, tt := range tests {
		if got := IsAlreadyExists(tt.err); got != tt.want {
			t.Errorf("IsAlreadyExists(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestIsDuplicateColumn(t *testing.T) {
	if !IsDuplicateColumn(&mysql.MySQLError{Number: 1060}) {
		t.Error("IsDuplicateColumn() = false for ER_DUP_FIELDNAME")
	}
	if IsDuplicateColumn(&mysql.MySQLError{Number: 1050}) {
		t.Error("IsDuplicateColumn() = true for ER_TABLE_EXISTS_ERROR")
	}
}

func TestCode_String(t *testing.T) {
	if DuplicateColumn.String() != "duplicate_column" {
		t.Errorf("String() = %s", DuplicateColumn.String())
	}
	if Code(99).String() != "other" {
		t.Errorf("String() = %s", Code(99).String())
	}
}
