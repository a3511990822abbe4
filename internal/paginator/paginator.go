package paginator

import "fmt"

// DefaultPageSize is the number of entries shown per page.
const DefaultPageSize = 30

// WindowSize is the maximum number of page buttons shown at once.
const WindowSize = 5

// Config holds the paging parameters.
type Config struct {
	Page     int // 1-based page to show
	PageSize int // entries per page
}

// Validate checks the paging flags.
// Rules:
// - PageSize must be positive
// - Page must be at least 1
func (c Config) Validate() error {
	if c.PageSize <= 0 {
		return fmt.Errorf("--page-size must be positive, got %d", c.PageSize)
	}
	if c.Page < 1 {
		return fmt.Errorf("--page must be at least 1, got %d", c.Page)
	}
	return nil
}

// Page is one slice of a sequence plus the layout of the page buttons.
// WindowStart and WindowEnd are inclusive and both zero when there are no
// pages.
type Page[T any] struct {
	Items        []T
	Number       int
	TotalPages   int
	WindowStart  int
	WindowEnd    int
	PrevDisabled bool
	NextDisabled bool
}

// Window returns the page numbers to show as buttons.
func (p Page[T]) Window() []int {
	if p.WindowEnd < p.WindowStart || p.WindowStart < 1 {
		return nil
	}
	out := make([]int, 0, p.WindowEnd-p.WindowStart+1)
	for i := p.WindowStart; i <= p.WindowEnd; i++ {
		out = append(out, i)
	}
	return out
}

// Paginate slices items into pages of pageSize and returns the 1-based page.
// Pages outside [1, TotalPages] give an empty slice; callers keep page in
// range with ClampPage. A non-positive pageSize uses DefaultPageSize.
func Paginate[T any](items []T, page, pageSize int) Page[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := TotalPages(len(items), pageSize)
	p := Page[T]{
		Number:       page,
		TotalPages:   total,
		PrevDisabled: page <= 1,
		NextDisabled: total == 0 || page >= total,
	}
	p.WindowStart, p.WindowEnd = window(page, total)

	start := (page - 1) * pageSize
	if page < 1 || start >= len(items) {
		p.Items = []T{}
		return p
	}
	end := min(start+pageSize, len(items))
	p.Items = items[start:end]
	return p
}

// TotalPages returns ceil(count/pageSize).
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage keeps page within [1, total]; with no pages it returns 1.
func ClampPage(page, total int) int {
	if page > total {
		page = total
	}
	if page < 1 {
		page = 1
	}
	return page
}

func window(page, total int) (int, int) {
	if total == 0 {
		return 0, 0
	}
	start := max(1, page-2)
	end := min(total, start+WindowSize-1)
	start = max(1, end-WindowSize+1)
	return start, end
}
