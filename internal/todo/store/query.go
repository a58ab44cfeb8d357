package store

// SortField names a column a todo listing may be ordered by. Only the
// values below are recognised; anything else falls back to the default.
type SortField string

const (
	SortByCreatedAt SortField = "createdAt"
	SortByUpdatedAt SortField = "updatedAt"
	SortByTitle     SortField = "title"
	SortByCompleted SortField = "completed"
)

type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// ParseSortField maps user input onto a recognised sort field, defaulting
// to createdAt for anything unrecognised (including the empty string).
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByCreatedAt, SortByUpdatedAt, SortByTitle, SortByCompleted:
		return SortField(s)
	default:
		return SortByCreatedAt
	}
}

// ParseSortOrder maps user input onto a sort order, defaulting to desc.
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(s) {
	case OrderAsc, OrderDesc:
		return SortOrder(s)
	default:
		return OrderDesc
	}
}

// TodoQuery describes a filtered, sorted, paginated todo listing. OwnerID
// is mandatory; a nil Completed means no completion filter.
type TodoQuery struct {
	OwnerID   string
	Completed *bool
	SortBy    SortField
	Order     SortOrder
	Limit     int
	Offset    int
}
