package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/go-sql-driver/mysql"
)

func NewDriverMySQL(config DriverMySQLConfig) Driver {
	return &driverMySQL{
		config: config,
	}
}

type DriverMySQLConfig struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

type driverMySQL struct {
	config DriverMySQLConfig
}

func (driver *driverMySQL) Open() (*sql.DB, error) {
	_ = mysql.SetLogger(log.New(io.Discard, "", log.LstdFlags))

	return sql.Open("mysql", fmt.Sprintf(
		"%s:%s@(%s:%d)/%s?parseTime=true&loc=UTC",
		driver.config.User,
		driver.config.Pass,
		driver.config.Host,
		driver.config.Port,
		driver.config.Name,
	))
}

func (driver *driverMySQL) Name() string {
	return "mysql"
}

func (driver *driverMySQL) quote(identifier string) string {
	return "`" + strings.ReplaceAll(identifier, "`", "``") + "`"
}

func (driver *driverMySQL) usesNumberedParameters() bool {
	return false
}

func (driver *driverMySQL) columnType(kind columnKind) string {
	switch kind {
	case kindBool:
		return "tinyint(1)"
	case kindInt:
		return "bigint"
	case kindFloat:
		return "double"
	case kindString:
		return "varchar(255)"
	case kindDateTime:
		return "datetime(6)"
	}

	return "longtext"
}

func (driver *driverMySQL) renderColumn(column TableColumn) string {
	parts := []string{driver.quote(column.Name), column.Type}

	if !column.Nullable {
		parts = append(parts, "NOT NULL")
	}

	if column.Default != nil {
		parts = append(parts, "DEFAULT "+*column.Default)
	}

	if column.PrimaryKey {
		parts = append(parts, "PRIMARY KEY")
	}

	if column.Unique {
		parts = append(parts, "UNIQUE")
	}

	return strings.Join(parts, " ")
}

func (driver *driverMySQL) renderForeignKey(table Table, column TableColumn) string {
	return fmt.Sprintf(
		"CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) %s",
		driver.quote(fmt.Sprintf("fk_%s_%s", table.Name, column.Name)),
		driver.quote(column.Name),
		driver.quote(column.ForeignKey.TargetTable),
		driver.quote(column.ForeignKey.TargetColumn),
		onDeleteClause(column),
	)
}

func (driver *driverMySQL) createTable(table Table) []statement {
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
		Query: fmt.Sprintf(
			"CREATE TABLE %s (%s) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
			driver.quote(table.Name),
			strings.Join(parts, ", "),
		),
	}}
}

func (driver *driverMySQL) createIndex(table Table, index TableIndex) statement {
	return statement{
		Query: renderCreateIndex(driver, table, index),
	}
}

func (driver *driverMySQL) addColumn(table Table, column TableColumn) statement {
	query := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", driver.quote(table.Name), driver.renderColumn(column))
	if column.ForeignKey.exists() {
		query += fmt.Sprintf(", ADD %s", driver.renderForeignKey(table, column))
	}

	return statement{
		Query: query,
	}
}

func (driver *driverMySQL) existingColumns(ctx context.Context, service *Service, tableName string) ([]string, error) {
	columns := []struct {
		Name string `db:"column_name"`
	}{}
	if err := service.runSelect(ctx, statement{
		Query: `
			SELECT COLUMN_NAME AS column_name
			FROM information_schema.COLUMNS
			WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = :tableName
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

func (driver *driverMySQL) translateError(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return err
	}

	switch mysqlErr.Number {
	case 1062:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case 1451, 1452:
		return fmt.Errorf("%w: %w", ErrForeignKey, err)
	}

	return err
}
