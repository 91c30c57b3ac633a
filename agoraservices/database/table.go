package database

import (
	"fmt"
	"reflect"
	"time"

	"github.com/lunagic/agora/agoraservices/database/internal/utils"
)

const (
	OnDeleteCascade = "cascade"
	OnDeleteSetNull = "setNull"
)

type ErrUnsupportedType struct {
	Type string
}

func (err ErrUnsupportedType) Error() string {
	return fmt.Sprintf("unsupported type: %s", err.Type)
}

// Entity is a struct mapped onto a table through `db` tags.
type Entity interface {
	TableStructure() Table
}

type Table struct {
	Name    string
	Indexes []TableIndex
	columns []TableColumn
}

type TableColumn struct {
	Name       string
	Type       string
	Default    *string
	Nullable   bool
	PrimaryKey bool
	Unique     bool
	ForeignKey tableForeignKey
}

type TableIndex struct {
	Name    string
	Columns []string
	Unique  bool
}

type tableForeignKey struct {
	TargetTable  string
	TargetColumn string
	OnDelete     string
}

func (key tableForeignKey) exists() bool {
	return key.TargetTable != ""
}

func kindOf(t reflect.Type) (columnKind, error) {
	if t == reflect.TypeFor[time.Time]() {
		return kindDateTime, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return kindBool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return kindInt, nil
	case reflect.Float32, reflect.Float64:
		return kindFloat, nil
	case reflect.String:
		return kindString, nil
	case reflect.Slice, reflect.Struct, reflect.Map:
		return kindJSON, nil
	}

	return 0, ErrUnsupportedType{Type: t.String()}
}

func fieldToColumn(driver Driver, field reflect.StructField) (TableColumn, error) {
	tag := utils.ParseTag(field.Tag)

	column := TableColumn{
		Name:       tag.Column,
		PrimaryKey: tag.PrimaryKey,
		Unique:     tag.Unique,
		ForeignKey: tableForeignKey{
			TargetTable:  tag.ForeignKeyTargetTable,
			TargetColumn: tag.ForeignKeyTargetColumn,
			OnDelete:     tag.OnDelete,
		},
	}
	if tag.HasDefault {
		column.Default = &tag.Default
	}

	fieldType := field.Type
	if fieldType.Kind() == reflect.Pointer {
		column.Nullable = true
		fieldType = fieldType.Elem()
	}

	kind, err := kindOf(fieldType)
	if err != nil {
		return TableColumn{}, err
	}
	if kind == kindString && tag.Long {
		kind = kindText
	}

	column.Type = driver.columnType(kind)

	return column, nil
}

func (table *Table) hydrateColumns(driver Driver, entity Entity) error {
	columns := []TableColumn{}
	if err := utils.LoopOverStructFields(reflect.ValueOf(entity), func(fieldDefinition reflect.StructField, _ reflect.Value) error {
		column, err := fieldToColumn(driver, fieldDefinition)
		if err != nil {
			return err
		}
		if column.Name == "" {
			return nil
		}

		columns = append(columns, column)

		return nil
	}); err != nil {
		return err
	}

	table.columns = columns

	return nil
}

// Columns lists the column names an entity maps to, in field order.
func Columns(entity Entity) []string {
	columns := []string{}
	_ = utils.LoopOverStructFields(reflect.ValueOf(entity), func(fieldDefinition reflect.StructField, _ reflect.Value) error {
		tag := utils.ParseTag(fieldDefinition.Tag)
		if tag.Column != "" {
			columns = append(columns, tag.Column)
		}

		return nil
	})

	return columns
}

func hasColumn(entity Entity, name string) bool {
	for _, column := range Columns(entity) {
		if column == name {
			return true
		}
	}

	return false
}

func primaryKey(entity Entity) (string, any, error) {
	column := ""
	var value any
	if err := utils.LoopOverStructFields(reflect.ValueOf(entity), func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error {
		tag := utils.ParseTag(fieldDefinition.Tag)
		if tag.PrimaryKey && column == "" {
			column = tag.Column
			value = fieldValue.Interface()
		}

		return nil
	}); err != nil {
		return "", nil, err
	}

	if column == "" {
		return "", nil, fmt.Errorf("%s: no primary key", entity.TableStructure().Name)
	}

	return column, value, nil
}
