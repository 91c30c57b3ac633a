package database

import (
	"context"
	"errors"
	"slices"
)

// AutoMigrate creates the tables of entities that do not exist yet, together
// with their indexes and foreign keys, and adds columns that are missing from
// existing tables. It never drops or alters existing columns. Entities are
// migrated in the order given so referenced tables must come first.
func (service *Service) AutoMigrate(ctx context.Context, entities []Entity) (changesExecuted int, err error) {
	statements := []statement{}

	for _, entity := range entities {
		table := entity.TableStructure()
		if err := table.hydrateColumns(service.driver, entity); err != nil {
			return 0, err
		}

		existing, err := service.driver.existingColumns(ctx, service, table.Name)
		if err != nil {
			if !errors.Is(err, ErrTableNotFound) {
				return 0, err
			}

			statements = append(statements, service.driver.createTable(table)...)
			for _, index := range table.Indexes {
				statements = append(statements, service.driver.createIndex(table, index))
			}

			continue
		}

		for _, column := range table.columns {
			if slices.Contains(existing, column.Name) {
				continue
			}

			statements = append(statements, service.driver.addColumn(table, column))
		}
	}

	for i, statement := range statements {
		if _, err := service.runExecute(ctx, statement); err != nil {
			return i, err
		}
	}

	return len(statements), nil
}
