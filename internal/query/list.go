package query

import (
	"fmt"
	"math"
	"strings"

	dom "taskmanager/internal/domain"
)

const (
	DefaultPage = 0
	DefaultSize = 20
	MaxSize     = 1000
)

// ListQuery is everything a store needs to produce one page.
type ListQuery struct {
	Filter Filter
	Sort   []SortField
	Page   int
	Size   int
}

// NewListQuery validates paging and resolves sort fields.
func NewListQuery(f Filter, sort string, page, size int) (ListQuery, error) {
	if page < 0 {
		return ListQuery{}, fmt.Errorf("%w: page must be >= 0", dom.ErrInvalidArgument)
	}
	if size < 1 || size > MaxSize {
		return ListQuery{}, fmt.Errorf("%w: size must be between 1 and %d", dom.ErrInvalidArgument, MaxSize)
	}
	if page > math.MaxInt32/size {
		return ListQuery{}, fmt.Errorf("%w: page %d is out of range", dom.ErrInvalidArgument, page)
	}
	fields, err := ParseSort(sort)
	if err != nil {
		return ListQuery{}, err
	}
	return ListQuery{Filter: f, Sort: fields, Page: page, Size: size}, nil
}

// Offset is the number of rows to skip.
func (q ListQuery) Offset() int { return q.Page * q.Size }

// Key is a canonical representation used for caching list pages. The search
// text is quoted so it can never be read as one of the other fields.
func (q ListQuery) Key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "s=%q", strings.ToLower(q.Filter.Search))
	if q.Filter.Category != nil {
		fmt.Fprintf(&b, "|c=%s", *q.Filter.Category)
	}
	if q.Filter.Priority != nil {
		fmt.Fprintf(&b, "|p=%s", *q.Filter.Priority)
	}
	if q.Filter.Completed != nil {
		fmt.Fprintf(&b, "|d=%t", *q.Filter.Completed)
	}
	sorts := make([]string, len(q.Sort))
	for i, f := range q.Sort {
		sorts[i] = string(f)
	}
	fmt.Fprintf(&b, "|o=%s|pg=%d|sz=%d", strings.Join(sorts, ","), q.Page, q.Size)
	return b.String()
}

// Rebind rewrites "?" placeholders to "$1", "$2", ... for Postgres.
// Placeholders inside single-quoted literals are left alone.
func Rebind(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			fmt.Fprintf(&b, "$%d", n)
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}
