// Package pager fans out ranged list requests. The API caps pages at 500
// items; for larger collections the pager issues the remaining offset ranges
// concurrently, bounded by a fixed number of in-flight requests, and stitches
// the pages back together in offset order.
package pager

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/datavault/dvcli/internal/constants"
	"github.com/datavault/dvcli/internal/models"
)

// Page is one ranged slice of a collection.
type Page[T any] struct {
	Range models.Range
	Items []T
}

// FetchFunc retrieves one page at the given offset. limit never exceeds the
// API page cap.
type FetchFunc[T any] func(ctx context.Context, offset, limit int64) (Page[T], error)

// FetchAll retrieves the complete collection starting at offset 0.
//
// The first page is fetched synchronously to observe range.total; remaining
// offsets are fetched with at most MaxConcurrentRequests in flight. Pages
// are concatenated in offset order, so the overall order matches a
// sequential scan; callers needing a specific order pass a sort to the
// underlying endpoint. The first error wins and is returned once the
// outstanding fetches have drained.
func FetchAll[T any](ctx context.Context, fetch FetchFunc[T]) ([]T, error) {
	return FetchFrom(ctx, 0, fetch)
}

// FetchFrom is FetchAll with a caller-chosen starting offset.
func FetchFrom[T any](ctx context.Context, start int64, fetch FetchFunc[T]) ([]T, error) {
	first, err := fetch(ctx, start, constants.MaxPageSize)
	if err != nil {
		return nil, err
	}

	total := first.Range.Total
	fetched := start + int64(len(first.Items))
	if fetched >= total || len(first.Items) == 0 {
		return first.Items, nil
	}

	// One slot per remaining page, filled out of order, concatenated in
	// offset order.
	var offsets []int64
	for off := fetched; off < total; off += constants.MaxPageSize {
		offsets = append(offsets, off)
	}
	pages := make([][]T, len(offsets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(constants.MaxConcurrentRequests)

	for i, off := range offsets {
		g.Go(func() error {
			page, err := fetch(gctx, off, constants.MaxPageSize)
			if err != nil {
				return err
			}
			pages[i] = page.Items
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := first.Items
	for _, page := range pages {
		items = append(items, page...)
	}

	if int64(len(items)) != total-start {
		return items, fmt.Errorf("pagination mismatch: got %d items, range reported %d", len(items), total-start)
	}
	return items, nil
}
