package pager

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/datavault/dvcli/internal/models"
)

// fakeCollection serves offset/limit pages over a fixed item count and
// records the offsets requested.
type fakeCollection struct {
	total   int64
	mu      sync.Mutex
	offsets []int64

	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

func (f *fakeCollection) fetch(ctx context.Context, offset, limit int64) (Page[int64], error) {
	cur := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxInFlight.Load()
		if cur <= max || f.maxInFlight.CompareAndSwap(max, cur) {
			break
		}
	}

	f.mu.Lock()
	f.offsets = append(f.offsets, offset)
	f.mu.Unlock()

	var items []int64
	for i := offset; i < offset+limit && i < f.total; i++ {
		items = append(items, i)
	}
	return Page[int64]{
		Range: models.Range{Offset: offset, Limit: limit, Total: f.total},
		Items: items,
	}, nil
}

func TestFetchAllSinglePage(t *testing.T) {
	coll := &fakeCollection{total: 120}

	items, err := FetchAll(context.Background(), coll.fetch)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(items) != 120 {
		t.Errorf("items = %d, want 120", len(items))
	}
	if len(coll.offsets) != 1 || coll.offsets[0] != 0 {
		t.Errorf("offsets = %v, want [0]", coll.offsets)
	}
}

func TestFetchAllFansOut(t *testing.T) {
	coll := &fakeCollection{total: 1200}

	items, err := FetchAll(context.Background(), coll.fetch)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(items) != 1200 {
		t.Fatalf("items = %d, want 1200", len(items))
	}

	// Every element present exactly once and in offset order.
	for i, v := range items {
		if v != int64(i) {
			t.Fatalf("items[%d] = %d, want %d", i, v, i)
		}
	}

	wantOffsets := map[int64]bool{0: true, 500: true, 1000: true}
	if len(coll.offsets) != 3 {
		t.Fatalf("offsets = %v, want 3 requests", coll.offsets)
	}
	for _, off := range coll.offsets {
		if !wantOffsets[off] {
			t.Errorf("unexpected offset %d", off)
		}
	}
}

func TestFetchAllExactMultipleOfPageSize(t *testing.T) {
	coll := &fakeCollection{total: 1000}

	items, err := FetchAll(context.Background(), coll.fetch)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(items) != 1000 {
		t.Errorf("items = %d, want 1000", len(items))
	}
	// Last range must be exactly [500, 1000).
	if len(coll.offsets) != 2 {
		t.Errorf("offsets = %v, want exactly 2 requests", coll.offsets)
	}
}

func TestFetchAllBoundsConcurrency(t *testing.T) {
	coll := &fakeCollection{total: 20 * 500}

	if _, err := FetchAll(context.Background(), coll.fetch); err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if got := coll.maxInFlight.Load(); got > 7 {
		t.Errorf("max in flight = %d, want <= 7", got)
	}
}

func TestFetchAllPropagatesFirstError(t *testing.T) {
	boom := errors.New("page exploded")
	var calls atomic.Int64

	fetch := func(ctx context.Context, offset, limit int64) (Page[int64], error) {
		calls.Add(1)
		if offset == 1000 {
			return Page[int64]{}, boom
		}
		items := make([]int64, limit)
		return Page[int64]{
			Range: models.Range{Offset: offset, Limit: limit, Total: 2000},
			Items: items,
		}, nil
	}

	_, err := FetchAll(context.Background(), fetch)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}

func TestFetchAllEmptyCollection(t *testing.T) {
	coll := &fakeCollection{total: 0}

	items, err := FetchAll(context.Background(), coll.fetch)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %d, want 0", len(items))
	}
}
