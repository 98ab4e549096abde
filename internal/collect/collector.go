// Package collect drains cursor-based OCI listing endpoints into complete slices.
package collect

import (
	"context"
	"errors"
	"fmt"
)

const (
	// SortByTimeCreated is the sort key requested on every page that supports sorting.
	SortByTimeCreated = "TIMECREATED"
	// SortOrderAsc keeps pages in creation order.
	SortOrderAsc = "ASC"
	// DefaultPageSize is requested when the caller sets no limit.
	DefaultPageSize = 10
)

var (
	// ErrMissingPage is returned when a listing call reports success without a page.
	ErrMissingPage = errors.New("listing returned success without a page")
	// ErrMissingCursor is returned when a page announces more data but carries no cursor.
	ErrMissingCursor = errors.New("listing reported more pages without a cursor")
)

// PageOptions is the per-call request configuration handed to a ListFunc.
type PageOptions struct {
	Limit     int
	SortBy    string
	SortOrder string
	// Page is nil on the first call and carries the continuation token afterwards.
	Page *string
}

// DefaultOptions returns the page size and sort used when the caller has no preference.
func DefaultOptions(limit int) PageOptions {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return PageOptions{
		Limit:     limit,
		SortBy:    SortByTimeCreated,
		SortOrder: SortOrderAsc,
	}
}

// Cursor returns the continuation token or an empty string for the first page.
func (o PageOptions) Cursor() string {
	if o.Page == nil {
		return ""
	}
	return *o.Page
}

// Page is one response of a paginated listing.
type Page[T any] struct {
	Items   []T
	Next    *string
	HasNext bool
}

// NewPage builds a page whose HasNext flag follows the presence of the next cursor,
// which is how every OCI list response signals continuation.
func NewPage[T any](items []T, next *string) *Page[T] {
	return &Page[T]{
		Items:   items,
		Next:    next,
		HasNext: next != nil && *next != "",
	}
}

// ListFunc fetches one page. Transport retries happen inside the function and must
// reuse the options they were given.
type ListFunc[T any] func(ctx context.Context, opts PageOptions) (*Page[T], error)

// PageFetchError reports the page that could not be collected.
type PageFetchError struct {
	Page   int
	Cursor string
	Err    error
}

func (e *PageFetchError) Error() string {
	if e.Cursor == "" {
		return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
	}
	return fmt.Sprintf("fetch page %d (cursor %s): %v", e.Page, e.Cursor, e.Err)
}

func (e *PageFetchError) Unwrap() error {
	return e.Err
}

// All calls list until the endpoint stops reporting more pages and returns every item
// in the order the server delivered them. A single empty terminal page yields an empty,
// non-nil slice.
func All[T any](ctx context.Context, list ListFunc[T], opts PageOptions) ([]T, error) {
	items := make([]T, 0)
	opts.Page = nil

	for pageNum := 1; ; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, &PageFetchError{Page: pageNum, Cursor: opts.Cursor(), Err: err}
		}

		page, err := list(ctx, opts)
		if err != nil {
			return nil, &PageFetchError{Page: pageNum, Cursor: opts.Cursor(), Err: err}
		}
		if page == nil {
			return nil, &PageFetchError{Page: pageNum, Cursor: opts.Cursor(), Err: ErrMissingPage}
		}

		items = append(items, page.Items...)

		if !page.HasNext {
			return items, nil
		}
		if page.Next == nil || *page.Next == "" {
			return nil, &PageFetchError{Page: pageNum, Cursor: opts.Cursor(), Err: ErrMissingCursor}
		}
		next := *page.Next
		opts.Page = &next
	}
}
