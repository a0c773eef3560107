// Package query describes reads without binding to a store API: filters,
// sort clauses and limits, plus the cursor page request built on top of them.
package query

// Operator is a comparison supported by every document store adapter.
type Operator string

const (
	Equal            Operator = "=="
	NotEqual         Operator = "!="
	Less             Operator = "<"
	LessOrEqual      Operator = "<="
	Greater          Operator = ">"
	GreaterOrEqual   Operator = ">="
	ArrayContains    Operator = "array-contains"
	ArrayContainsAny Operator = "array-contains-any"
	In               Operator = "in"
	NotIn            Operator = "not-in"
)

// Operators lists the closed operator set.
var Operators = []Operator{Equal, NotEqual, Less, LessOrEqual, Greater, GreaterOrEqual, ArrayContains, ArrayContainsAny, In, NotIn}

// Mode is a sort direction.
type Mode string

const (
	Asc  Mode = "asc"
	Desc Mode = "desc"
)

// Where is a single filter clause. Field may be a dotted path into nested maps.
type Where struct {
	Field    string   `json:"field" validate:"required"`
	Operator Operator `json:"operator" validate:"required,operator"`
	Value    any      `json:"value"`
}

// OrderBy is a single sort clause. An empty mode means ascending.
type OrderBy struct {
	Field string `json:"field" validate:"required"`
	Mode  Mode   `json:"mode,omitempty" validate:"omitempty,oneof=asc desc"`
}

// Descending reports whether the clause sorts in descending order.
func (o OrderBy) Descending() bool { return o.Mode == Desc }

// Query is a declarative read. Clauses are applied in the order given; the
// caller is responsible for combinations the backing store accepts.
type Query struct {
	Where   []Where   `json:"where,omitempty" validate:"dive"`
	OrderBy []OrderBy `json:"orderBy,omitempty" validate:"dive"`
	Limit   int       `json:"limit,omitempty" validate:"gte=0"`
}

// Filter is a convenience constructor for a Where clause.
func Filter(field string, op Operator, value any) Where {
	return Where{Field: field, Operator: op, Value: value}
}

// Sort is a convenience constructor for an OrderBy clause.
func Sort(field string, mode Mode) OrderBy {
	return OrderBy{Field: field, Mode: mode}
}

// HasFilters reports whether the query narrows the collection at all.
func (q Query) HasFilters() bool { return len(q.Where) > 0 }
