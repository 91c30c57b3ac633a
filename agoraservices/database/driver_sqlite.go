package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlite3 "github.com/mattn/go-sqlite3"
)

func NewDriverSQLite(path string) Driver {
	return &driverSQLite{
		Path: path,
	}
}

type driverSQLite struct {
	Path string
}

func (driver *driverSQLite) Open() (*sql.DB, error) {
	db, err := sql.Open(
		"sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", driver.Path),
	)
	if err != nil {
		return nil, err
	}

	// A single writer keeps transactions from tripping over "database is locked".
	db.SetMaxOpenConns(1)

	return db, nil
}

func (driver *driverSQLite) Name() string {
	return "sqlite"
}

func (driver *driverSQLite) quote(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}

func (driver *driverSQLite) usesNumberedParameters() bool {
	return false
}

func (driver *driverSQLite) columnType(kind columnKind) string {
	switch kind {
	case kindBool, kindInt:
		return "INTEGER"
	case kindFloat:
		return "REAL"
	case kindDateTime:
		return "DATETIME"
	}

	return "TEXT"
}

func (driver *driverSQLite) renderColumn(column TableColumn) string {
	parts := []string{driver.quote(column.Name), column.Type}

	if column.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}

	if !column.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if column.Unique {
		parts = append(parts, "UNIQUE")
	}

	if column.Default != nil {
		parts = append(parts, "DEFAULT "+*column.Default)
	}

	if column.ForeignKey.exists() {
		parts = append(parts, fmt.Sprintf(
			"REFERENCES %s(%s) %s",
			driver.quote(column.ForeignKey.TargetTable),
			driver.quote(column.ForeignKey.TargetColumn),
			onDeleteClause(column),
		))
	}

	return strings.Join(parts, " ")
}

func (driver *driverSQLite) createTable(table Table) []statement {
	columns := []string{}
	for _, column := range table.columns {
		columns = append(columns, driver.renderColumn(column))
	}

	return []statement{{
		Query: fmt.Sprintf("CREATE TABLE %s (%s)", driver.quote(table.Name), strings.Join(columns, ", ")),
	}}
}

func (driver *driverSQLite) createIndex(table Table, index TableIndex) statement {
	return statement{
		Query: renderCreateIndex(driver, table, index),
	}
}

func (driver *driverSQLite) addColumn(table Table, column TableColumn) statement {
	// SQLite refuses to add a NOT NULL column without a constant default.
	if !column.Nullable && column.Default == nil {
		fallback := "''"
		switch column.Type {
		case "INTEGER", "REAL":
			fallback = "0"
		case "DATETIME":
			fallback = "'1970-01-01'"
		}
		column.Default = &fallback
	}

	return statement{
		Query: fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", driver.quote(table.Name), driver.renderColumn(column)),
	}
}

func (driver *driverSQLite) existingColumns(ctx context.Context, service *Service, tableName string) ([]string, error) {
	columns := []struct {
		Name string `db:"name"`
	}{}
	if err := service.runSelect(ctx, statement{
		Query: `SELECT name FROM pragma_table_info(:tableName)`,
		Parameters: map[string]any{
			":tableName": tableName,
		},
	}, &columns); err != nil {
		return nil, err
	}

	if len(columns) == 0 {
		return nil, ErrTableNotFound
	}

	names := []string{}
	for _, column := range columns {
		names = append(names, column.Name)
	}

	return names, nil
}

func (driver *driverSQLite) translateError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return err
	}

	switch sqliteErr.ExtendedCode {
	case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case sqlite3.ErrConstraintForeignKey:
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	}

	return err
}

func renderCreateIndex(driver Driver, table Table, index TableIndex) string {
	columns := []string{}
	for _, column := range index.Columns {
		columns = append(columns, driver.quote(column))
	}

	unique := ""
	if index.Unique {
		unique = "UNIQUE "
	}

	return fmt.Sprintf(
		"CREATE %sINDEX %s ON %s (%s)",
		unique,
		driver.quote(index.Name),
		driver.quote(table.Name),
		strings.Join(columns, ", "),
	)
}
