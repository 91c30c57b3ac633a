package database

import (
	"context"
)

type QueryModifier func(query Query) (Query, error)

func WithLimitOverride(size int, offset int) QueryModifier {
	return func(query Query) (Query, error) {
		query.Limit.Count = size
		query.Limit.Offset = offset

		return query, nil
	}
}

func WithAdditionalWhere(where OperatorOfEvaluation) QueryModifier {
	return func(query Query) (Query, error) {
		if query.Where == nil || !query.Where.hasAny() {
			query.Where = And(where)
		} else {
			query.Where = And(query.Where, where)
		}

		return query, nil
	}
}

func WithFilters(alias string, filters []Filter, firstIsAndWhere bool) QueryModifier {
	return func(query Query) (Query, error) {
		return ApplyFilters(alias, query, filters, firstIsAndWhere)
	}
}

func WithSort(alias string, entity Entity, directive string) QueryModifier {
	return func(query Query) (Query, error) {
		return ApplySort(alias, query, entity, directive)
	}
}

// WithJoin adds a join and selects columns from it.
func WithJoin(join Join, columns ...Column) QueryModifier {
	return func(query Query) (Query, error) {
		query.Joins = append(query.Joins, join)
		for _, column := range columns {
			if column.Alias == "" {
				column.Alias = join.Alias
			}
			query.Select = append(query.Select, column)
		}

		return query, nil
	}
}

func NewSelector[T any](service *Service, baseQuery Query) Selector[T] {
	return Selector[T]{
		service:   service,
		baseQuery: baseQuery,
	}
}

// Selector reads rows of T, matching result columns to `db` tags.
type Selector[T any] struct {
	service   *Service
	baseQuery Query
}

func (selector Selector[T]) build(mods []QueryModifier) (Query, error) {
	query := selector.baseQuery
	for _, mod := range mods {
		var err error
		query, err = mod(query)
		if err != nil {
			return Query{}, err
		}
	}

	return query, nil
}

func (selector Selector[T]) SelectMultiple(ctx context.Context, mods ...QueryModifier) ([]T, error) {
	query, err := selector.build(mods)
	if err != nil {
		return nil, err
	}

	statement, err := generateSelect(selector.service.driver, query)
	if err != nil {
		return nil, err
	}

	target := []T{}
	if err := selector.service.runSelect(ctx, statement, &target); err != nil {
		return nil, err
	}

	return target, nil
}

func (selector Selector[T]) SelectSingle(ctx context.Context, mods ...QueryModifier) (T, error) {
	mods = append(mods, WithLimitOverride(1, 0))

	rows, err := selector.SelectMultiple(ctx, mods...)
	if err != nil {
		return *new(T), err
	}

	if len(rows) < 1 {
		return *new(T), ErrNoRows
	}

	return rows[0], nil
}

func (selector Selector[T]) Count(ctx context.Context, mods ...QueryModifier) (int, error) {
	query, err := selector.build(mods)
	if err != nil {
		return 0, err
	}

	statement, err := generateCount(selector.service.driver, query)
	if err != nil {
		return 0, err
	}

	result := []struct {
		Total int `db:"total"`
	}{}
	if err := selector.service.runSelect(ctx, statement, &result); err != nil {
		return 0, err
	}

	if len(result) == 0 {
		return 0, nil
	}

	return result[0].Total, nil
}

func (selector Selector[T]) Paginate(ctx context.Context, request PageRequest, mods ...QueryModifier) (Page[T], error) {
	request = request.Normalized()
	if err := request.Validate(); err != nil {
		return Page[T]{}, err
	}

	total, err := selector.Count(ctx, mods...)
	if err != nil {
		return Page[T]{}, err
	}

	items, err := selector.SelectMultiple(ctx, append(mods, WithLimitOverride(request.Limit, request.Offset()))...)
	if err != nil {
		return Page[T]{}, err
	}

	return newPage(items, total, request), nil
}

// BaseQuery selects every mapped column of entity from its table.
func BaseQuery(entity Entity) Query {
	table := entity.TableStructure().Name

	selects := []Column{}
	for _, column := range Columns(entity) {
		selects = append(selects, Column{Alias: table, Name: column})
	}

	return Query{
		Select: selects,
		From:   table,
		Alias:  table,
	}
}

func NewRepository[T Entity](service *Service) Repository[T] {
	return Repository[T]{
		Selector: NewSelector[T](service, BaseQuery(*new(T))),
	}
}

type Repository[T Entity] struct {
	Selector[T]
}

// Alias is the name the repository's table is addressed by in queries.
func (repository Repository[T]) Alias() string {
	return repository.baseQuery.Source()
}

func (repository Repository[T]) FindByID(ctx context.Context, id any) (T, error) {
	column, _, err := primaryKey(*new(T))
	if err != nil {
		return *new(T), err
	}

	return repository.SelectSingle(ctx, WithAdditionalWhere(Equal(column, id).On(repository.Alias())))
}

func (repository Repository[T]) Insert(ctx context.Context, entity T) error {
	statement, err := generateInsert(repository.service.driver, entity)
	if err != nil {
		return err
	}

	_, err = repository.service.runExecute(ctx, statement)

	return err
}

func (repository Repository[T]) Update(ctx context.Context, entity T) error {
	statement, err := generateUpdate(repository.service.driver, entity)
	if err != nil {
		return err
	}

	_, err = repository.service.runExecute(ctx, statement)

	return err
}

func (repository Repository[T]) Delete(ctx context.Context, entity T) error {
	statement, err := generateDelete(repository.service.driver, entity)
	if err != nil {
		return err
	}

	_, err = repository.service.runExecute(ctx, statement)

	return err
}
