package database

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/lunagic/agora/agoraservices/database/internal/utils"
)

type CounterDirection int64

const (
	Increment CounterDirection = 1
	Decrement CounterDirection = -1
)

// AdjustCounter moves a denormalized counter column on the row behind entity
// by one and mirrors the change on the struct. entity must be a pointer.
//
// The write is a single relative UPDATE so concurrent adjustments never lose
// updates. Decrements never take the column below zero, and a decrement of a
// counter that is already zero in memory does not touch the database.
func (service *Service) AdjustCounter(ctx context.Context, entity Entity, column string, direction CounterDirection) error {
	value := reflect.ValueOf(entity)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return errors.New("AdjustCounter needs a pointer to an entity")
	}

	field, found := fieldByColumn(value.Elem(), column)
	if !found || !field.CanInt() {
		return fmt.Errorf("%w: %s is not an integer column of %s", ErrUnknownColumn, column, entity.TableStructure().Name)
	}

	current := field.Int()
	if direction == Decrement && current <= 0 {
		return nil
	}

	keyColumn, keyValue, err := primaryKey(entity)
	if err != nil {
		return err
	}

	d := service.driver
	counter := d.quote(column)
	query := fmt.Sprintf(
		"UPDATE %s SET %s = %s + 1 WHERE %s = :key",
		d.quote(entity.TableStructure().Name),
		counter,
		counter,
		d.quote(keyColumn),
	)
	if direction == Decrement {
		query = fmt.Sprintf(
			"UPDATE %s SET %s = %s - 1 WHERE %s = :key AND %s > 0",
			d.quote(entity.TableStructure().Name),
			counter,
			counter,
			d.quote(keyColumn),
			counter,
		)
	}

	result, err := service.runExecute(ctx, statement{
		Query:      query,
		Parameters: map[string]any{":key": keyValue},
	})
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		if direction == Increment {
			return ErrNoRows
		}

		// The stored counter was already at the floor.
		field.SetInt(0)

		return nil
	}

	field.SetInt(current + int64(direction))

	return nil
}

func fieldByColumn(value reflect.Value, column string) (reflect.Value, bool) {
	var match reflect.Value
	_ = utils.LoopOverStructFields(value, func(fieldDefinition reflect.StructField, fieldValue reflect.Value) error {
		if utils.ParseTag(fieldDefinition.Tag).Column == column {
			match = fieldValue
		}

		return nil
	})

	return match, match.IsValid()
}

// CounterSource describes a denormalized counter: Column on Parent caches the
// number of Child rows whose ForeignKey points at the parent.
type CounterSource struct {
	Parent     Entity
	Column     string
	Child      Entity
	ForeignKey string
}

type counterDrift struct {
	ID     string `db:"id"`
	Stored int64  `db:"stored"`
	Actual int64  `db:"actual"`
}

// ReconcileCounter recomputes a counter from its child rows and rewrites the
// parents whose stored value drifted. It returns the number of repaired rows.
func (service *Service) ReconcileCounter(ctx context.Context, source CounterSource) (int, error) {
	keyColumn, _, err := primaryKey(source.Parent)
	if err != nil {
		return 0, err
	}

	d := service.driver
	parentTable := source.Parent.TableStructure().Name
	childTable := source.Child.TableStructure().Name

	rows := []counterDrift{}
	if err := service.runSelect(ctx, statement{
		Query: fmt.Sprintf(
			"SELECT p.%s AS %s, p.%s AS %s, (SELECT COUNT(*) FROM %s c WHERE c.%s = p.%s) AS %s FROM %s p",
			d.quote(keyColumn), d.quote("id"),
			d.quote(source.Column), d.quote("stored"),
			d.quote(childTable), d.quote(source.ForeignKey), d.quote(keyColumn), d.quote("actual"),
			d.quote(parentTable),
		),
	}, &rows); err != nil {
		return 0, err
	}

	repaired := 0
	for _, row := range rows {
		if row.Stored == row.Actual {
			continue
		}

		if _, err := service.runExecute(ctx, statement{
			Query: fmt.Sprintf(
				"UPDATE %s SET %s = :actual WHERE %s = :key",
				d.quote(parentTable),
				d.quote(source.Column),
				d.quote(keyColumn),
			),
			Parameters: map[string]any{
				":actual": row.Actual,
				":key":    row.ID,
			},
		}); err != nil {
			return repaired, err
		}

		repaired++
	}

	return repaired, nil
}
