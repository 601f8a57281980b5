// Package paginate slices post lists into fixed-size pages.
package paginate

import "fmt"

// PageSize is the number of posts per page.
const PageSize = 50

// RangeError reports a page or post index outside its valid bounds.
type RangeError struct {
	Kind      string // "page" or "post"
	Requested int
	Min, Max  int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d is out of range (%d-%d)", e.Kind, e.Requested, e.Min, e.Max)
}

// Page is one slice of a list.
type Page[T any] struct {
	Items      []T
	Number     int
	TotalPages int
	TotalItems int
	Offset     int // index of Items[0] within the list
}

// TotalPages returns ceil(n/size), never less than 1.
func TotalPages(n, size int) int {
	if size <= 0 {
		size = PageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// CheckPage validates page against a list of total pages.
func CheckPage(page, total int) error {
	if page < 1 || page > total {
		return &RangeError{Kind: "page", Requested: page, Min: 1, Max: total}
	}
	return nil
}

// Slice returns the given page of items. An empty list has a single empty
// page 1.
func Slice[T any](items []T, page, size int) (Page[T], error) {
	if size <= 0 {
		size = PageSize
	}
	total := TotalPages(len(items), size)
	if err := CheckPage(page, total); err != nil {
		return Page[T]{}, err
	}
	start := (page - 1) * size
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	return Page[T]{
		Items:      items[start:end],
		Number:     page,
		TotalPages: total,
		TotalItems: len(items),
		Offset:     start,
	}, nil
}

// Move is a pagination control.
type Move int

const (
	First Move = iota
	Prev
	Next
	Last
)

func (m Move) String() string {
	switch m {
	case First:
		return "first"
	case Prev:
		return "prev"
	case Next:
		return "next"
	case Last:
		return "last"
	}
	return fmt.Sprintf("Move(%d)", int(m))
}

// Navigate returns the page reached from current by m. Targets outside
// [1,total] are rejected rather than clamped.
func Navigate(current, total int, m Move) (int, error) {
	var target int
	switch m {
	case First:
		target = 1
	case Prev:
		target = current - 1
	case Next:
		target = current + 1
	case Last:
		target = total
	default:
		return current, fmt.Errorf("unknown move %v", m)
	}
	if err := CheckPage(target, total); err != nil {
		return current, err
	}
	return target, nil
}

// PageForIndex returns the page holding the post at a 1-based index of a
// list of length n.
func PageForIndex(index, n, size int) (int, error) {
	if size <= 0 {
		size = PageSize
	}
	if index < 1 || index > n {
		return 0, &RangeError{Kind: "post", Requested: index, Min: 1, Max: n}
	}
	return (index + size - 1) / size, nil
}
