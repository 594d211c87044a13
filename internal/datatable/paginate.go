package datatable

// Window is the visible slice of a paginated collection.
type Window struct {
	Start int
	End   int
	Page  int
	Pages int
}

// Paginate clamps page into [1, max(1, ceil(n/size))] and returns the
// half-open index range of that page.
func Paginate(n, page, size int) Window {
	if size <= 0 {
		size = DefaultPageSize
	}
	if n < 0 {
		n = 0
	}
	pages := (n + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	page = min(max(page, 1), pages)
	start := min((page-1)*size, n)
	end := min(start+size, n)
	return Window{Start: start, End: end, Page: page, Pages: pages}
}
