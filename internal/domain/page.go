package domain

// Page is one slice of a list rendered with page links.
type Page[T any] struct {
	Items   []T
	Page    int
	Pages   int
	Total   int
	PerPage int
}

func (p Page[T]) HasPrev() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool { return p.Page < p.Pages }
func (p Page[T]) Prev() int     { return p.Page - 1 }
func (p Page[T]) Next() int     { return p.Page + 1 }

// Paginate returns page (1-based) of items. Out-of-range pages are clamped.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	if perPage <= 0 {
		perPage = 9
	}
	total := len(items)
	pages := (total + perPage - 1) / perPage
	if pages == 0 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	start := (page - 1) * perPage
	end := start + perPage
	if end > total {
		end = total
	}
	return Page[T]{
		Items:   items[start:end],
		Page:    page,
		Pages:   pages,
		Total:   total,
		PerPage: perPage,
	}
}
