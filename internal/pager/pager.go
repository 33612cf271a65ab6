// Package pager walks page-numbered remote listings lazily.
package pager

import (
	"context"
	"fmt"
	"iter"
)

// Page is one page of a listing together with the listing's total page count.
type Page[T any] struct {
	Items     []T
	PageCount int
}

// FetchFunc loads a 1-based page.
type FetchFunc[T any] func(ctx context.Context, page int) (Page[T], error)

// Pages yields the items of each page in order. The page count reported by
// the first page bounds the walk. Breaking out of the loop stops fetching;
// ranging over the sequence again starts from page 1.
func Pages[T any](ctx context.Context, fetch FetchFunc[T]) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		total := 1
		for page := 1; page <= total; page++ {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}

			p, err := fetch(ctx, page)
			if err != nil {
				yield(nil, err)
				return
			}
			if page == 1 {
				total = p.PageCount
			}
			if !yield(p.Items, nil) {
				return
			}
		}
	}
}

// Slice returns a FetchFunc serving items from memory in pages of size.
// A size below 1 makes every fetch fail.
func Slice[T any](items []T, size int) FetchFunc[T] {
	return func(_ context.Context, page int) (Page[T], error) {
		if size <= 0 {
			return Page[T]{}, fmt.Errorf("page size must be > 0, got %d", size)
		}
		count := (len(items) + size - 1) / size
		start := (page - 1) * size
		if start >= len(items) || start < 0 {
			return Page[T]{PageCount: count}, nil
		}
		end := min(start+size, len(items))
		return Page[T]{Items: items[start:end], PageCount: count}, nil
	}
}
