package database

type statement struct {
	Query      string
	Parameters map[string]any
}

// Column is a selected column, optionally qualified by a table alias and
// renamed in the result set.
type Column struct {
	Alias string
	Name  string
	As    string
}

// Join attaches Table (as Alias) where Alias.Column equals On.
type Join struct {
	Left   bool
	Table  string
	Alias  string
	Column string
	On     Column
}

type Order struct {
	Alias      string
	Column     string
	Descending bool
}

type Query struct {
	Select  []Column
	From    string
	Alias   string
	Joins   []Join
	Where   OperatorOfLogic
	OrderBy []Order
	Limit   struct {
		Count  int
		Offset int
	}
}

// Source is the alias rows of the base table are addressed by.
func (query Query) Source() string {
	if query.Alias != "" {
		return query.Alias
	}

	return query.From
}
