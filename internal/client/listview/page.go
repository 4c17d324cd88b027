package listview

// Page is one page of a server side listing.
type Page[T any] struct {
	Items      []T
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

// HasPrev reports whether a previous page exists.
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// HasNext reports whether a following page exists.
func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}
