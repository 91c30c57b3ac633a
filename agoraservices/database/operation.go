package database

import (
	"fmt"
	"maps"
	"strings"
)

type OperatorOfEvaluation interface {
	haveDriverRender(driver Driver) (statement, error)
}

type OperatorOfLogic interface {
	OperatorOfEvaluation
	hasAny() bool
}

type simpleOperatorOfLogic struct {
	operatorKeyword     string
	operatorsEvaluation []OperatorOfEvaluation
}

func (o simpleOperatorOfLogic) hasAny() bool {
	for _, operand := range o.operatorsEvaluation {
		if nested, ok := operand.(OperatorOfLogic); ok && !nested.hasAny() {
			continue
		}

		return true
	}

	return false
}

func (o simpleOperatorOfLogic) haveDriverRender(driver Driver) (statement, error) {
	parts := []string{}
	parameters := map[string]any{}

	for _, operand := range o.operatorsEvaluation {
		if nested, ok := operand.(OperatorOfLogic); ok && !nested.hasAny() {
			continue
		}

		subStatement, err := operand.haveDriverRender(driver)
		if err != nil {
			return statement{}, err
		}

		for key := range subStatement.Parameters {
			if _, taken := parameters[key]; taken {
				return statement{}, fmt.Errorf("duplicate parameter %s", key)
			}
		}

		parts = append(parts, subStatement.Query)
		maps.Copy(parameters, subStatement.Parameters)
	}

	return statement{
		Query:      fmt.Sprintf("(%s)", strings.Join(parts, " "+o.operatorKeyword+" ")),
		Parameters: parameters,
	}, nil
}

func And(operatorsEvaluation ...OperatorOfEvaluation) OperatorOfLogic {
	return simpleOperatorOfLogic{
		operatorKeyword:     "AND",
		operatorsEvaluation: operatorsEvaluation,
	}
}

func Or(operatorsEvaluation ...OperatorOfEvaluation) OperatorOfLogic {
	return simpleOperatorOfLogic{
		operatorKeyword:     "OR",
		operatorsEvaluation: operatorsEvaluation,
	}
}

// Condition compares one column against a bound parameter.
type Condition struct {
	Alias    string
	Column   string
	Operator Operator
	Value    any
	// Param overrides the bound parameter name, which defaults to Column.
	Param string
	// Lower wraps the column in LOWER().
	Lower bool
}

// On qualifies the condition's column with a table alias.
func (c Condition) On(alias string) Condition {
	c.Alias = alias
	return c
}

// Named binds the value under an explicit parameter name.
func (c Condition) Named(param string) Condition {
	c.Param = param
	return c
}

func (c Condition) haveDriverRender(driver Driver) (statement, error) {
	if c.Column == "" {
		return statement{}, ErrUnknownColumn
	}

	reference := driver.quote(c.Column)
	if c.Alias != "" {
		reference = driver.quote(c.Alias) + "." + reference
	}
	if c.Lower {
		reference = fmt.Sprintf("LOWER(%s)", reference)
	}

	if c.Operator == operatorIsNull {
		return statement{
			Query:      reference + " IS NULL",
			Parameters: map[string]any{},
		}, nil
	}

	if !c.Operator.valid() {
		return statement{}, fmt.Errorf("%w: %q", ErrUnknownOperator, c.Operator)
	}

	param := c.Param
	if param == "" {
		param = c.Column
	}
	key := ":" + param

	return statement{
		Query: fmt.Sprintf("%s %s %s", reference, c.Operator, key),
		Parameters: map[string]any{
			key: c.Value,
		},
	}, nil
}

func Equal(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorEqual, Value: value}
}

func NotEqual(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorNotEqual, Value: value}
}

func GreaterThan(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorGreaterThan, Value: value}
}

func GreaterThanOrEqual(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorGreaterThanOrEqual, Value: value}
}

func LessThan(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorLessThan, Value: value}
}

func LessThanOrEqual(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorLessThanOrEqual, Value: value}
}

func Like(column string, value any) Condition {
	return Condition{Column: column, Operator: OperatorLike, Value: value}
}

func IsNull(column string) Condition {
	return Condition{Column: column, Operator: operatorIsNull}
}
