package database

import (
	"context"
	"database/sql"
	"errors"
)

var (
	ErrNoRows          = errors.New("no rows found")
	ErrBlankQuery      = errors.New("blank query")
	ErrTableNotFound   = errors.New("table not found")
	ErrDuplicate       = errors.New("duplicate entry")
	ErrForeignKey      = errors.New("foreign key constraint violation")
	ErrUnknownOperator = errors.New("unknown filter operator")
	ErrInvalidFilter   = errors.New("invalid filter")
	ErrInvalidSort     = errors.New("invalid sort directive")
	ErrUnknownColumn   = errors.New("unknown column")
)

type columnKind int

const (
	kindBool columnKind = iota
	kindInt
	kindFloat
	kindString
	kindText
	kindDateTime
	kindJSON
)

// Driver is the dialect specific half of the database service.
type Driver interface {
	Open() (*sql.DB, error)
	Name() string
	quote(identifier string) string
	usesNumberedParameters() bool
	columnType(kind columnKind) string
	createTable(table Table) []statement
	createIndex(table Table, index TableIndex) statement
	addColumn(table Table, column TableColumn) statement
	existingColumns(ctx context.Context, service *Service, tableName string) ([]string, error)
	translateError(err error) error
}

func onDeleteClause(column TableColumn) string {
	if column.ForeignKey.OnDelete == OnDeleteSetNull {
		return "ON DELETE SET NULL"
	}

	return "ON DELETE CASCADE"
}
