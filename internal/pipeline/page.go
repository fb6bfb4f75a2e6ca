package pipeline

// PageOffset converts a page request into a query offset and a skip count.
//
// The query is paged in windows of maxSize rows: offset is the start of the
// window holding the requested page, and skip is how many rows of that
// window precede the page. With maxSize <= 0 both are zero. Page numbers
// start at 1; smaller values are treated as 1.
func PageOffset(pageNumber, pageSize, maxSize int) (offset, skip int) {
	if maxSize <= 0 {
		return 0, 0
	}
	if pageNumber < 1 {
		pageNumber = 1
	}
	start := (pageNumber - 1) * pageSize
	if start >= maxSize {
		window := maxSize * (start / maxSize)
		return window, start - window
	}
	return 0, start
}
