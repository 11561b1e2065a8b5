package dataset

// Page returns rows [(page-1)*size, page*size) clamped to the table. Page and
// size below 1 are treated as 1. The result is empty, never nil, when the
// window starts past the last row.
func Page(t *Table, page, size int) []Row {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 1
	}

	// Guard the multiplication against overflow on absurd page numbers.
	if page-1 > t.Len()/size {
		return []Row{}
	}
	start := (page - 1) * size
	return t.Rows(start, start+size)
}

// Head returns the first n rows.
func Head(t *Table, n int) []Row {
	return Page(t, 1, n)
}

// TotalPages returns the number of pages of the given size.
func TotalPages(t *Table, size int) int {
	if size < 1 {
		size = 1
	}
	return (t.Len() + size - 1) / size
}
