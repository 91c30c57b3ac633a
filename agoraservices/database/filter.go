package database

import (
	"fmt"
	"strings"

	"github.com/lunagic/agora/agoraservices/database/internal/utils"
)

type Operator string

const (
	OperatorEqual              Operator = "="
	OperatorNotEqual           Operator = "!="
	OperatorLike               Operator = "LIKE"
	OperatorLessThan           Operator = "<"
	OperatorGreaterThan        Operator = ">"
	OperatorLessThanOrEqual    Operator = "<="
	OperatorGreaterThanOrEqual Operator = ">="
	operatorIsNull             Operator = "IS NULL"
)

func (o Operator) valid() bool {
	return o == OperatorNotEqual || o.filterable()
}

func (o Operator) filterable() bool {
	switch o {
	case OperatorEqual, OperatorLike, OperatorLessThan, OperatorGreaterThan, OperatorLessThanOrEqual, OperatorGreaterThanOrEqual:
		return true
	}

	return false
}

// Filter is one optional criterion of a listing. A nil Value (including a
// typed nil pointer) means the caller did not ask for it.
type Filter struct {
	Field    string
	Operator Operator
	Value    any
}

func Where(field string, operator Operator, value any) Filter {
	return Filter{
		Field:    field,
		Operator: operator,
		Value:    value,
	}
}

// ApplyFilters narrows query with one predicate per non-nil filter, all ANDed
// together and qualified by alias. Parameters are named <field>_<index> after
// the filter's position in the list.
//
// The first predicate replaces the query's WHERE unless firstIsAndWhere is
// set, in which case every predicate is ANDed onto the existing one. When all
// filter values are nil the query is returned untouched.
//
// A non-nil filter without a known operator is a programming error and fails
// with ErrUnknownOperator.
func ApplyFilters(alias string, query Query, filters []Filter, firstIsAndWhere bool) (Query, error) {
	clauses := []OperatorOfEvaluation{}

	for index, filter := range filters {
		if utils.IsNil(filter.Value) {
			continue
		}

		if !filter.Operator.filterable() {
			return query, fmt.Errorf("%w: no operator for filter %q", ErrUnknownOperator, filter.Field)
		}

		condition := Condition{
			Alias:    alias,
			Column:   filter.Field,
			Operator: filter.Operator,
			Value:    utils.Deref(filter.Value),
			Param:    fmt.Sprintf("%s_%d", filter.Field, index),
		}

		if filter.Operator == OperatorLike {
			text, ok := condition.Value.(string)
			if !ok {
				return query, fmt.Errorf("%w: LIKE on %q needs a string, got %T", ErrInvalidFilter, filter.Field, condition.Value)
			}

			condition.Lower = true
			condition.Value = "%" + text + "%"
		}

		clauses = append(clauses, condition)
	}

	if len(clauses) == 0 {
		return query, nil
	}

	if firstIsAndWhere && query.Where != nil && query.Where.hasAny() {
		query.Where = And(append([]OperatorOfEvaluation{query.Where}, clauses...)...)
	} else {
		query.Where = And(clauses...)
	}

	return query, nil
}

// ApplySort orders query by a "field.DIRECTION" directive. The direction is
// case-insensitive and must be ASC or DESC; anything else fails with
// ErrInvalidSort. A field that is not a column of entity leaves the query
// unchanged. An empty directive is a no-op.
func ApplySort(alias string, query Query, entity Entity, directive string) (Query, error) {
	if directive == "" {
		return query, nil
	}

	field, direction, _ := strings.Cut(directive, ".")

	descending := false
	switch strings.ToUpper(direction) {
	case "ASC":
	case "DESC":
		descending = true
	default:
		return query, fmt.Errorf("%w: %q", ErrInvalidSort, directive)
	}

	if !hasColumn(entity, field) {
		return query, nil
	}

	query.OrderBy = []Order{{
		Alias:      alias,
		Column:     field,
		Descending: descending,
	}}

	return query, nil
}
