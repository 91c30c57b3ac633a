package database_test

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lunagic/agora/agoraservices/database"
	"gotest.tools/v3/assert"
)

type Writer struct {
	ID        string    `db:"id,primaryKey"`
	Name      string    `db:"name"`
	Email     string    `db:"email,unique"`
	CreatedAt time.Time `db:"created_at"`
}

func (Writer) TableStructure() database.Table {
	return database.Table{
		Name: "writers",
		Indexes: []database.TableIndex{
			{Name: "ix_writers_name", Columns: []string{"name"}},
		},
	}
}

type NoteV1 struct {
	ID       string `db:"id,primaryKey"`
	WriterID string `db:"writer_id,foreignKey=writers.id,onDelete=cascade"`
	Title    string `db:"title"`
	Body     string `db:"body,long"`
	Stars    int64  `db:"stars_count,default=0"`
}

func (NoteV1) TableStructure() database.Table {
	return database.Table{
		Name: "notes",
		Indexes: []database.TableIndex{
			{Name: "ix_notes_writer_id", Columns: []string{"writer_id"}},
		},
	}
}

type Note struct {
	ID       string   `db:"id,primaryKey"`
	WriterID string   `db:"writer_id,foreignKey=writers.id,onDelete=cascade"`
	Title    string   `db:"title"`
	Body     string   `db:"body,long"`
	Stars    int64    `db:"stars_count,default=0"`
	Tags     []string `db:"tags"`
	Pinned   *bool    `db:"pinned"`
}

func (Note) TableStructure() database.Table {
	return NoteV1{}.TableStructure()
}

type Star struct {
	ID       string `db:"id,primaryKey"`
	NoteID   string `db:"note_id,foreignKey=notes.id,onDelete=cascade"`
	WriterID string `db:"writer_id,foreignKey=writers.id,onDelete=cascade"`
}

func (Star) TableStructure() database.Table {
	return database.Table{Name: "stars"}
}

type noteWithWriter struct {
	ID         string `db:"id"`
	Title      string `db:"title"`
	WriterName string `db:"writer_name"`
}

func testSuite(t *testing.T, driver database.Driver) {
	statements := atomic.Int64{}
	service, err := database.New(
		driver,
		database.WithLogger(slog.Default()),
		database.WithPreRunFunc(func(ctx context.Context, statement string, args []any) error {
			statements.Add(1)
			return nil
		}),
	)
	assert.NilError(t, err)
	t.Cleanup(func() {
		_ = service.Close()
	})

	ctx := t.Context()

	{ // The first migration creates everything
		changes, err := service.AutoMigrate(ctx, []database.Entity{Writer{}, NoteV1{}, Star{}})
		assert.NilError(t, err)
		assert.Assert(t, changes != 0)
	}

	{ // Running it again changes nothing
		changes, err := service.AutoMigrate(ctx, []database.Entity{Writer{}, NoteV1{}, Star{}})
		assert.NilError(t, err)
		assert.Equal(t, 0, changes)
	}

	{ // New fields become new columns
		changes, err := service.AutoMigrate(ctx, []database.Entity{Writer{}, Note{}, Star{}})
		assert.NilError(t, err)
		assert.Equal(t, 2, changes)
	}

	writers := database.NewRepository[Writer](service)
	notes := database.NewRepository[Note](service)
	stars := database.NewRepository[Star](service)

	ada := Writer{ID: uuid.NewString(), Name: "Ada", Email: "ada@example.com", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	bob := Writer{ID: uuid.NewString(), Name: "Bob", Email: "bob@example.com", CreatedAt: time.Now().UTC().Truncate(time.Second)}
	assert.NilError(t, writers.Insert(ctx, ada))
	assert.NilError(t, writers.Insert(ctx, bob))

	{ // Unique columns surface as ErrDuplicate
		err := writers.Insert(ctx, Writer{ID: uuid.NewString(), Name: "Imposter", Email: ada.Email, CreatedAt: ada.CreatedAt})
		assert.Assert(t, errors.Is(err, database.ErrDuplicate), err)
	}

	{ // Dangling references surface as ErrForeignKey
		err := notes.Insert(ctx, Note{ID: uuid.NewString(), WriterID: uuid.NewString(), Title: "orphan"})
		assert.Assert(t, errors.Is(err, database.ErrForeignKey), err)
	}

	pinned := true
	first := Note{ID: uuid.NewString(), WriterID: ada.ID, Title: "Learning Go", Body: strings.Repeat("go ", 1000), Tags: []string{"go"}}
	second := Note{ID: uuid.NewString(), WriterID: ada.ID, Title: "Go Generics", Tags: []string{}, Pinned: &pinned}
	third := Note{ID: uuid.NewString(), WriterID: bob.ID, Title: "Rust notes", Tags: []string{"rust"}}
	for _, note := range []Note{first, second, third} {
		assert.NilError(t, notes.Insert(ctx, note))
	}

	{ // Rows round trip including JSON and nullable columns
		found, err := notes.FindByID(ctx, second.ID)
		assert.NilError(t, err)
		assert.DeepEqual(t, second, found)

		found, err = notes.FindByID(ctx, first.ID)
		assert.NilError(t, err)
		assert.Assert(t, found.Pinned == nil)
	}

	{ // Missing rows are ErrNoRows
		_, err := notes.FindByID(ctx, uuid.NewString())
		assert.Assert(t, errors.Is(err, database.ErrNoRows))
	}

	{ // Filters, sort and pagination compose
		title := "go"
		page, err := notes.Paginate(
			ctx,
			database.PageRequest{Page: 1, Limit: 1},
			database.WithFilters(notes.Alias(), []database.Filter{
				database.Where("title", database.OperatorLike, title),
				database.Where("writer_id", database.OperatorEqual, &ada.ID),
			}, false),
			database.WithSort(notes.Alias(), Note{}, "title.desc"),
		)
		assert.NilError(t, err)
		assert.Equal(t, 2, page.Meta.TotalItems)
		assert.Equal(t, 2, page.Meta.TotalPages)
		assert.Equal(t, 1, page.Meta.ItemCount)
		assert.Equal(t, first.Title, page.Items[0].Title)

		page, err = notes.Paginate(
			ctx,
			database.PageRequest{Page: 2, Limit: 1},
			database.WithFilters(notes.Alias(), []database.Filter{
				database.Where("title", database.OperatorLike, title),
			}, false),
			database.WithSort(notes.Alias(), Note{}, "title.DESC"),
		)
		assert.NilError(t, err)
		assert.Equal(t, second.Title, page.Items[0].Title)
	}

	{ // Joined columns land on a plain row struct
		rows, err := database.NewSelector[noteWithWriter](service, database.Query{
			Select: []database.Column{
				{Alias: "n", Name: "id"},
				{Alias: "n", Name: "title"},
			},
			From:  "notes",
			Alias: "n",
		}).SelectMultiple(
			ctx,
			database.WithJoin(
				database.Join{Table: "writers", Alias: "w", Column: "id", On: database.Column{Alias: "n", Name: "writer_id"}},
				database.Column{Name: "name", As: "writer_name"},
			),
			database.WithAdditionalWhere(database.Equal("id", third.ID).On("n")),
		)
		assert.NilError(t, err)
		assert.DeepEqual(t, []noteWithWriter{{ID: third.ID, Title: third.Title, WriterName: "Bob"}}, rows)
	}

	{ // Increments are relative writes mirrored in memory
		note := first
		assert.NilError(t, service.AdjustCounter(ctx, &note, "stars_count", database.Increment))
		assert.NilError(t, service.AdjustCounter(ctx, &note, "stars_count", database.Increment))
		assert.Equal(t, int64(2), note.Stars)

		stored, err := notes.FindByID(ctx, first.ID)
		assert.NilError(t, err)
		assert.Equal(t, int64(2), stored.Stars)
	}

	{ // Increment then decrement from zero issues two relative writes and ends at zero
		note := third
		before := statements.Load()
		assert.NilError(t, service.AdjustCounter(ctx, &note, "stars_count", database.Increment))
		assert.NilError(t, service.AdjustCounter(ctx, &note, "stars_count", database.Decrement))
		assert.Equal(t, int64(2), statements.Load()-before)
		assert.Equal(t, int64(0), note.Stars)
	}

	{ // Decrementing a zero counter does not touch the database
		note := third
		before := statements.Load()
		assert.NilError(t, service.AdjustCounter(ctx, &note, "stars_count", database.Decrement))
		assert.Equal(t, before, statements.Load())
		assert.Equal(t, int64(0), note.Stars)
	}

	{ // A stale in-memory count never drives the column negative
		note := third
		note.Stars = 5
		assert.NilError(t, service.AdjustCounter(ctx, &note, "stars_count", database.Decrement))
		assert.Equal(t, int64(0), note.Stars)

		stored, err := notes.FindByID(ctx, third.ID)
		assert.NilError(t, err)
		assert.Equal(t, int64(0), stored.Stars)
	}

	{ // Unknown counters are rejected
		note := third
		err := service.AdjustCounter(ctx, &note, "title", database.Increment)
		assert.Assert(t, errors.Is(err, database.ErrUnknownColumn))
	}

	{ // A failed transaction leaves neither the child row nor the counter behind
		note := second
		failure := errors.New("boom")
		err := service.Transaction(ctx, func(ctx context.Context) error {
			if err := stars.Insert(ctx, Star{ID: uuid.NewString(), NoteID: note.ID, WriterID: bob.ID}); err != nil {
				return err
			}

			if err := service.AdjustCounter(ctx, &note, "stars_count", database.Increment); err != nil {
				return err
			}

			return failure
		})
		assert.Assert(t, errors.Is(err, failure))

		count, err := stars.Count(ctx, database.WithAdditionalWhere(database.Equal("note_id", second.ID).On(stars.Alias())))
		assert.NilError(t, err)
		assert.Equal(t, 0, count)

		stored, err := notes.FindByID(ctx, second.ID)
		assert.NilError(t, err)
		assert.Equal(t, int64(0), stored.Stars)
	}

	{ // A panicking transaction is rolled back and its connection released
		note := second
		func() {
			defer func() {
				assert.Equal(t, "boom", recover())
			}()

			_ = service.Transaction(ctx, func(ctx context.Context) error {
				if err := stars.Insert(ctx, Star{ID: uuid.NewString(), NoteID: note.ID, WriterID: bob.ID}); err != nil {
					return err
				}

				panic("boom")
			})
		}()

		count, err := stars.Count(ctx, database.WithAdditionalWhere(database.Equal("note_id", second.ID).On(stars.Alias())))
		assert.NilError(t, err)
		assert.Equal(t, 0, count)
	}

	{ // A committed transaction keeps both writes
		note := second
		assert.NilError(t, service.Transaction(ctx, func(ctx context.Context) error {
			if err := stars.Insert(ctx, Star{ID: uuid.NewString(), NoteID: note.ID, WriterID: bob.ID}); err != nil {
				return err
			}

			return service.AdjustCounter(ctx, &note, "stars_count", database.Increment)
		}))

		stored, err := notes.FindByID(ctx, second.ID)
		assert.NilError(t, err)
		assert.Equal(t, int64(1), stored.Stars)
	}

	{ // Reconciliation repairs drifted counters
		repaired, err := service.ReconcileCounter(ctx, database.CounterSource{
			Parent:     Note{},
			Column:     "stars_count",
			Child:      Star{},
			ForeignKey: "note_id",
		})
		assert.NilError(t, err)
		assert.Equal(t, 1, repaired)

		stored, err := notes.FindByID(ctx, first.ID)
		assert.NilError(t, err)
		assert.Equal(t, int64(0), stored.Stars)
	}

	{ // Updates rewrite every writable column
		note, err := notes.FindByID(ctx, third.ID)
		assert.NilError(t, err)
		note.Title = "Rust, revisited"
		assert.NilError(t, notes.Update(ctx, note))

		stored, err := notes.FindByID(ctx, third.ID)
		assert.NilError(t, err)
		assert.Equal(t, "Rust, revisited", stored.Title)
	}

	{ // Deleting a parent cascades to its children
		assert.NilError(t, notes.Delete(ctx, second))

		count, err := stars.Count(ctx)
		assert.NilError(t, err)
		assert.Equal(t, 0, count)
	}
}
