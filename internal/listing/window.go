package listing

// Window is the slice of the ordered post sequence one page covers.
type Window struct {
	Offset     int
	Limit      int
	Page       int
	TotalPages int
}

// ComputeWindow maps a requested page onto the current total. A page past
// the end is clamped to the last page; with no posts at all the window is
// page 1 and known to be empty. pageNumber and pageSize are expected to be
// at least 1; smaller values are treated as 1.
func ComputeWindow(totalCount, pageNumber, pageSize int) Window {
	if pageSize < 1 {
		pageSize = 1
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	if totalCount < 0 {
		totalCount = 0
	}

	totalPages := (totalCount + pageSize - 1) / pageSize
	if totalPages == 0 {
		return Window{Offset: 0, Limit: pageSize, Page: 1, TotalPages: 0}
	}
	if pageNumber > totalPages {
		pageNumber = totalPages
	}
	return Window{
		Offset:     (pageNumber - 1) * pageSize,
		Limit:      pageSize,
		Page:       pageNumber,
		TotalPages: totalPages,
	}
}
