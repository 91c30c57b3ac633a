package database

import (
	"encoding/json"
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/lunagic/agora/agoraservices/database/internal/utils"
)

func renderColumnReference(driver Driver, alias string, column string) string {
	if alias == "" {
		return driver.quote(column)
	}

	return driver.quote(alias) + "." + driver.quote(column)
}

func renderFrom(driver Driver, query Query) string {
	from := driver.quote(query.From)
	if query.Alias != "" && query.Alias != query.From {
		from += " AS " + driver.quote(query.Alias)
	}

	for _, join := range query.Joins {
		kind := "INNER JOIN"
		if join.Left {
			kind = "LEFT JOIN"
		}

		from += fmt.Sprintf(
			" %s %s AS %s ON %s = %s",
			kind,
			driver.quote(join.Table),
			driver.quote(join.Alias),
			renderColumnReference(driver, join.Alias, join.Column),
			renderColumnReference(driver, join.On.Alias, join.On.Name),
		)
	}

	return from
}

func renderWhere(driver Driver, query Query, parameters map[string]any) (string, error) {
	if query.Where == nil || !query.Where.hasAny() {
		return "", nil
	}

	s, err := query.Where.haveDriverRender(driver)
	if err != nil {
		return "", err
	}

	maps.Copy(parameters, s.Parameters)

	return " WHERE " + s.Query, nil
}

func generateSelect(driver Driver, query Query) (statement, error) {
	selects := []string{}
	for _, column := range query.Select {
		rendered := renderColumnReference(driver, column.Alias, column.Name)
		if column.As != "" {
			rendered += " AS " + driver.quote(column.As)
		}
		selects = append(selects, rendered)
	}

	parameters := map[string]any{}
	queryString := fmt.Sprintf("SELECT %s FROM %s", strings.Join(selects, ", "), renderFrom(driver, query))

	where, err := renderWhere(driver, query, parameters)
	if err != nil {
		return statement{}, err
	}
	queryString += where

	if len(query.OrderBy) > 0 {
		orders := []string{}
		for _, order := range query.OrderBy {
			direction := "ASC"
			if order.Descending {
				direction = "DESC"
			}
			orders = append(orders, renderColumnReference(driver, order.Alias, order.Column)+" "+direction)
		}
		queryString += " ORDER BY " + strings.Join(orders, ", ")
	}

	if query.Limit.Count > 0 {
		queryString += fmt.Sprintf(" LIMIT %d", query.Limit.Count)
		if query.Limit.Offset > 0 {
			queryString += fmt.Sprintf(" OFFSET %d", query.Limit.Offset)
		}
	}

	return statement{
		Query:      queryString,
		Parameters: parameters,
	}, nil
}

func generateCount(driver Driver, query Query) (statement, error) {
	parameters := map[string]any{}
	queryString := fmt.Sprintf("SELECT COUNT(*) AS %s FROM %s", driver.quote("total"), renderFrom(driver, query))

	where, err := renderWhere(driver, query, parameters)
	if err != nil {
		return statement{}, err
	}

	return statement{
		Query:      queryString + where,
		Parameters: parameters,
	}, nil
}

func bindValue(fieldDefinition reflect.StructField, fieldValue reflect.Value) (any, error) {
	if !shouldBeJson(fieldDefinition) {
		return fieldValue.Interface(), nil
	}

	fieldBytes, err := json.Marshal(fieldValue.Interface())
	if err != nil {
		return nil, err
	}

	return string(fieldBytes), nil
}

func generateInsert(driver Driver, e Entity) (statement, error) {
	columns := []string{}
	values := []string{}
	parameters := map[string]any{}

	if err := utils.LoopOverStructFields(reflect.ValueOf(e), func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error {
		tag := utils.ParseTag(fieldDefinition.Tag)
		if tag.Column == "" || tag.ReadOnly {
			return nil
		}

		key := ":" + tag.Column
		value, err := bindValue(fieldDefinition, fieldValue)
		if err != nil {
			return err
		}

		columns = append(columns, driver.quote(tag.Column))
		values = append(values, key)
		parameters[key] = value

		return nil
	}); err != nil {
		return statement{}, err
	}

	return statement{
		Query: fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			driver.quote(e.TableStructure().Name),
			strings.Join(columns, ", "),
			strings.Join(values, ", "),
		),
		Parameters: parameters,
	}, nil
}

func generateUpdate(driver Driver, e Entity) (statement, error) {
	sets := []string{}
	parameters := map[string]any{}
	where := ""

	if err := utils.LoopOverStructFields(reflect.ValueOf(e), func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error {
		tag := utils.ParseTag(fieldDefinition.Tag)
		if tag.Column == "" || tag.ReadOnly {
			return nil
		}

		if tag.PrimaryKey {
			where = fmt.Sprintf("%s = :pk_%s", driver.quote(tag.Column), tag.Column)
			parameters[":pk_"+tag.Column] = fieldValue.Interface()
			return nil
		}

		key := ":" + tag.Column
		value, err := bindValue(fieldDefinition, fieldValue)
		if err != nil {
			return err
		}

		sets = append(sets, fmt.Sprintf("%s = %s", driver.quote(tag.Column), key))
		parameters[key] = value

		return nil
	}); err != nil {
		return statement{}, err
	}

	if where == "" {
		return statement{}, fmt.Errorf("%s: no primary key", e.TableStructure().Name)
	}

	return statement{
		Query: fmt.Sprintf(
			"UPDATE %s SET %s WHERE %s",
			driver.quote(e.TableStructure().Name),
			strings.Join(sets, ", "),
			where,
		),
		Parameters: parameters,
	}, nil
}

func generateDelete(driver Driver, e Entity) (statement, error) {
	column, value, err := primaryKey(e)
	if err != nil {
		return statement{}, err
	}

	return statement{
		Query: fmt.Sprintf(
			"DELETE FROM %s WHERE %s = :key",
			driver.quote(e.TableStructure().Name),
			driver.quote(column),
		),
		Parameters: map[string]any{":key": value},
	}, nil
}
