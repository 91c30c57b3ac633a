package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/lunagic/agora/agoraservices/database/internal/utils"
)

type executor interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type transactionKey struct{}

type Service struct {
	driver            Driver
	standardLibraryDB *sql.DB
	preRunFuncs       []func(ctx context.Context, statement string, args []any) error
	postRunFuncs      []func(ctx context.Context) error
}

func New(
	driver Driver,
	configFuncs ...ServiceConfigFunc,
) (*Service, error) {
	db, err := driver.Open()
	if err != nil {
		return nil, err
	}

	service := &Service{
		driver:            driver,
		standardLibraryDB: db,
		preRunFuncs:       []func(ctx context.Context, statement string, args []any) error{},
		postRunFuncs:      []func(ctx context.Context) error{},
	}

	for _, configFunc := range configFuncs {
		if err := configFunc(service); err != nil {
			return nil, err
		}
	}

	return service, nil
}

func (service *Service) Ping(ctx context.Context) error {
	return service.standardLibraryDB.PingContext(ctx)
}

func (service *Service) Close() error {
	return service.standardLibraryDB.Close()
}

func (service *Service) DriverName() string {
	return service.driver.Name()
}

// Transaction runs fn inside a database transaction carried by the context
// handed to fn. Calls made with that context join the transaction, including
// nested Transaction calls. The transaction commits when fn returns nil and
// rolls back when fn fails or panics.
func (service *Service) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, inside := ctx.Value(transactionKey{}).(*sql.Tx); inside {
		return fn(ctx)
	}

	tx, err := service.standardLibraryDB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	finished := false
	defer func() {
		// fn panicked; release the connection before the panic unwinds further
		if !finished {
			_ = tx.Rollback()
		}
	}()

	if err := fn(context.WithValue(ctx, transactionKey{}, tx)); err != nil {
		finished = true
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("%w (rollback: %s)", err, rollbackErr)
		}

		return err
	}

	finished = true

	return service.driver.translateError(tx.Commit())
}

func (service *Service) executor(ctx context.Context) executor {
	if tx, ok := ctx.Value(transactionKey{}).(*sql.Tx); ok {
		return tx
	}

	return service.standardLibraryDB
}

func (service *Service) prepare(ctx context.Context, statement statement) (string, []any, error) {
	preparedQuery, preparedArgs, err := utils.Prepare(statement.Query, statement.Parameters, service.driver.usesNumberedParameters())
	if err != nil {
		return "", nil, err
	}

	if preparedQuery == "" {
		return "", nil, ErrBlankQuery
	}

	for _, preRunFunc := range service.preRunFuncs {
		if err := preRunFunc(ctx, preparedQuery, preparedArgs); err != nil {
			return "", nil, err
		}
	}

	return preparedQuery, preparedArgs, nil
}

func (service *Service) finish(ctx context.Context) error {
	for _, postRunFunc := range service.postRunFuncs {
		if err := postRunFunc(ctx); err != nil {
			return err
		}
	}

	return nil
}

func (service *Service) runSelect(
	ctx context.Context,
	statement statement,
	targetPointer any,
) error {
	preparedQuery, preparedArgs, err := service.prepare(ctx, statement)
	if err != nil {
		return err
	}

	rows, err := service.executor(ctx).QueryContext(ctx, preparedQuery, preparedArgs...)
	if err != nil {
		return service.driver.translateError(err)
	}
	defer func() {
		_ = rows.Close()
	}()

	columns, err := rows.Columns()
	if err != nil {
		return err
	}

	target := reflect.ValueOf(targetPointer).Elem()
	targetType := target.Type().Elem()

	rowMap := map[string]int{}
	for i := range targetType.NumField() {
		fieldDefinition := targetType.Field(i)
		if !fieldDefinition.IsExported() {
			continue
		}

		tag := utils.ParseTag(fieldDefinition.Tag)
		if tag.Column == "" {
			continue
		}

		rowMap[tag.Column] = i
	}

	fieldIndexesToUse := []int{}
	for _, column := range columns {
		fieldIndex, found := rowMap[column]
		if !found {
			return fmt.Errorf("column %s not found in target", column)
		}

		fieldIndexesToUse = append(fieldIndexesToUse, fieldIndex)
	}

	for rows.Next() {
		row := reflect.New(targetType).Elem()

		scanFields := []any{}
		jsonMapping := map[int]*sql.NullString{}
		for _, fieldIndexToUse := range fieldIndexesToUse {
			if shouldBeJson(targetType.Field(fieldIndexToUse)) {
				// Scan into a string first and unmarshal once the row is read
				jsonString := &sql.NullString{}
				jsonMapping[fieldIndexToUse] = jsonString
				scanFields = append(scanFields, jsonString)
			} else {
				scanFields = append(scanFields, row.Field(fieldIndexToUse).Addr().Interface())
			}
		}

		if err := rows.Scan(scanFields...); err != nil {
			return err
		}

		for fieldIndexToUse, jsonString := range jsonMapping {
			if !jsonString.Valid || jsonString.String == "" {
				continue
			}

			if err := json.Unmarshal([]byte(jsonString.String), row.Field(fieldIndexToUse).Addr().Interface()); err != nil {
				return err
			}
		}

		target.Set(reflect.Append(target, row))
	}

	if err := rows.Err(); err != nil {
		return err
	}

	return service.finish(ctx)
}

func (service *Service) runExecute(
	ctx context.Context,
	statement statement,
) (
	sql.Result,
	error,
) {
	preparedQuery, preparedArgs, err := service.prepare(ctx, statement)
	if err != nil {
		return nil, err
	}

	result, err := service.executor(ctx).ExecContext(ctx, preparedQuery, preparedArgs...)
	if err != nil {
		return nil, service.driver.translateError(err)
	}

	if err := service.finish(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

func shouldBeJson(fieldDefinition reflect.StructField) bool {
	fieldType := fieldDefinition.Type
	if fieldType.Kind() == reflect.Pointer {
		fieldType = fieldType.Elem()
	}

	if fieldType.Kind() == reflect.Slice || fieldType.Kind() == reflect.Map {
		return true
	}

	if fieldType.Kind() == reflect.Struct {
		return fieldType != reflect.TypeFor[time.Time]()
	}

	return false
}
