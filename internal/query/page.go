package query

// DefaultItemsPerPage is the page size used when a request leaves it unset.
const DefaultItemsPerPage = 8

// Direction selects which neighbour page to load.
type Direction string

const (
	Forward  Direction = "forward"
	Backward Direction = "backward"
)

// Cursor marks a row boundary. SortKey is the value of the pagination field;
// Values holds the row's value for every sort clause in order and ID is the
// document id used as the final tie-break.
type Cursor struct {
	SortKey any    `json:"sortKey"`
	Values  []any  `json:"values"`
	ID      string `json:"id"`
}

// PageRequest asks for one page of a collection ordered by a single field.
// LastDoc holds the first and last cursors of the previously loaded page;
// forward paging continues after LastDoc[1], backward paging ends before
// LastDoc[0].
type PageRequest struct {
	OrderBy      string     `json:"orderBy" validate:"required"`
	LastDoc      [2]*Cursor `json:"lastDoc"`
	ItemsPerPage int        `json:"itemsPerPage" validate:"gte=0"`
	Direction    Direction  `json:"direction" validate:"omitempty,oneof=forward backward"`
}

// WithDefaults fills the page size and direction when unset.
func (p PageRequest) WithDefaults() PageRequest {
	if p.ItemsPerPage <= 0 {
		p.ItemsPerPage = DefaultItemsPerPage
	}
	if p.Direction == "" {
		p.Direction = Forward
	}
	return p
}

// Page is one page of results. StartDoc and EndDoc are nil when the page is
// empty, meaning there is nothing more in the requested direction.
type Page[T any] struct {
	Data     []T     `json:"data"`
	StartDoc *Cursor `json:"startDoc"`
	EndDoc   *Cursor `json:"endDoc"`
}
