package utils

import (
	"reflect"
	"strings"
)

type DBTag struct {
	Column                 string
	ReadOnly               bool
	PrimaryKey             bool
	Unique                 bool
	Long                   bool
	ForeignKeyTargetTable  string
	ForeignKeyTargetColumn string
	OnDelete               string
	Default                string
	HasDefault             bool
}

// ParseTag reads a `db:"column,option,option=value"` struct tag.
func ParseTag(tagString reflect.StructTag) DBTag {
	parts := strings.Split(tagString.Get("db"), ",")

	tag := DBTag{}

	for i, part := range parts {
		if i == 0 {
			tag.Column = part
			continue
		}

		switch part {
		case "readOnly":
			tag.ReadOnly = true
			continue
		case "primaryKey":
			tag.PrimaryKey = true
			continue
		case "unique":
			tag.Unique = true
			continue
		case "long":
			tag.Long = true
			continue
		}

		if strings.HasPrefix(part, "default=") {
			tag.Default = strings.TrimPrefix(part, "default=")
			tag.HasDefault = true

			continue
		}

		if strings.HasPrefix(part, "onDelete=") {
			tag.OnDelete = strings.TrimPrefix(part, "onDelete=")

			continue
		}

		if strings.HasPrefix(part, "foreignKey=") {
			target := strings.Split(strings.TrimPrefix(part, "foreignKey="), ".")
			if len(target) == 2 {
				tag.ForeignKeyTargetTable = target[0]
				tag.ForeignKeyTargetColumn = target[1]
			}

			continue
		}
	}

	return tag
}
