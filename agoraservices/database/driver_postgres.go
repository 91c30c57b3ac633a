package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
)

func NewDriverPostgres(config DriverPostgresConfig) Driver {
	return &driverPostgres{
		config: config,
	}
}

type DriverPostgresConfig struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

type driverPostgres struct {
	config DriverPostgresConfig
}

func (driver *driverPostgres) Open() (*sql.DB, error) {
	return sql.Open(
		"postgres",
		fmt.Sprintf(
			"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			driver.config.Host,
			driver.config.Port,
			driver.config.User,
			driver.config.Pass,
			driver.config.Name,
		),
	)
}

func (driver *driverPostgres) Name() string {
	return "postgres"
}

func (driver *driverPostgres) quote(identifier string) string {
	return pq.QuoteIdentifier(identifier)
}

func (driver *driverPostgres) usesNumberedParameters() bool {
	return true
}

func (driver *driverPostgres) columnType(kind columnKind) string {
	switch kind {
	case kindBool:
		return "boolean"
	case kindInt:
		return "bigint"
	case kindFloat:
		return "double precision"
	case kindString:
		return "varchar(255)"
	case kindDateTime:
		return "timestamp with time zone"
	case kindJSON:
		return "json"
	}

	return "text"
}

func (driver *driverPostgres) renderColumn(column TableColumn) string {
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

	return strings.Join(parts, " ")
}

func (driver *driverPostgres) renderForeignKey(table Table, column TableColumn) string {
	return fmt.Sprintf(
		"CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s) %s",
		driver.quote(fmt.Sprintf("fk_%s_%s", table.Name, column.Name)),
		driver.quote(column.Name),
		driver.quote(column.ForeignKey.TargetTable),
		driver.quote(column.ForeignKey.TargetColumn),
		onDeleteClause(column),
	)
}

func (driver *driverPostgres) createTable(table Table) []statement {
	parts := []string{}
	for _, column := range table.columns {
		parts = append(parts, driver.renderColumn(column))
	}

	for _, column := range table.columns {
		if column.ForeignKey.exists() {
			parts = append(parts, driver.renderForeignKey(table, column))
		}
	}

	return []statement{{
		Query: fmt.Sprintf("CREATE TABLE %s (%s)", driver.quote(table.Name), strings.Join(parts, ", ")),
	}}
}

func (driver *driverPostgres) createIndex(table Table, index TableIndex) statement {
	return statement{
		Query: renderCreateIndex(driver, table, index),
	}
}

func (driver *driverPostgres) addColumn(table Table, column TableColumn) statement {
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", driver.quote(table.Name), driver.renderColumn(column))
	if column.ForeignKey.exists() {
		query += fmt.Sprintf(", ADD %s", driver.renderForeignKey(table, column))
	}

	return statement{
		Query: query,
	}
}

func (driver *driverPostgres) existingColumns(ctx context.Context, service *Service, tableName string) ([]string, error) {
	columns := []struct {
		Name string `db:"column_name"`
	}{}
	if err := service.runSelect(ctx, statement{
		Query: `
			SELECT column_name
			FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = :tableName
		`,
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

func (driver *driverPostgres) translateError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case "23503":
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	}

	return err
}
