// Package pageindex implements the ordered-key page index (spec §4.1):
// committed Number (and any other totally-ordered Key) fields are stored
// as a sequence of disk-resident pages, sorted by key, with an in-memory
// bounds list for binary-search lookup. Grounded on
// _examples/original_source/src/indexes/ordered_key.rs, adapted from its
// from_iter/load/get_items shape into Go generics and the teacher's
// gob+snappy persistence idiom (internal/persistence.SaveSnappyGob).
package pageindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/gcbaptista/docretrieval/internal/persistence"
)

// Comparable is the constraint a page index Key type must satisfy: a total
// order via Compare, returning <0, 0, >0 as the receiver is less than,
// equal to, or greater than other. model.Number implements this.
type Comparable[K any] interface {
	Compare(other K) int
}

// Item is one distinct key and the set of values stored under it (e.g. the
// document ids whose Number field equals Key).
type Item[K any, V any] struct {
	Key    K
	Values []V
}

// bound is the [Min, Max] key range covered by one page, kept resident so
// lookups never touch disk until the target page is known.
type bound[K any] struct {
	Min K
	Max K
}

// Index is a built or loaded ordered-key page index rooted at a directory.
// Pages are read from disk on every GetItems call; the index itself only
// ever holds the bounds list in memory.
type Index[K Comparable[K], V any] struct {
	dir    string
	bounds []bound[K]
}

const boundsFileName = "bounds.bin"

func pageFileName(dir string, i int) string {
	return filepath.Join(dir, fmt.Sprintf("page_%d.bin", i))
}

// Build writes entries — already sorted ascending by Key, one Item per
// distinct key — to dir as a sequence of pages. A page is flushed once its
// cumulative value count exceeds capacity (spec §4.1's PageCapacity). The
// first page's lower bound is padded to min and the last page's upper
// bound to max, so lookups below/above the observed key range still
// resolve to a real page instead of erroring.
func Build[K Comparable[K], V any](dir string, capacity int, min, max K, entries []Item[K, V]) (*Index[K, V], error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("pageindex: create data dir %s: %w", dir, err)
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("pageindex: capacity must be positive, got %d", capacity)
	}

	var bounds []bound[K]
	var page []Item[K, V]
	count := 0
	pageID := 0

	writePage := func(pageMin, pageMax K) error {
		if err := persistence.SaveSnappyGob(pageFileName(dir, pageID), page); err != nil {
			return fmt.Errorf("pageindex: write page %d: %w", pageID, err)
		}
		bounds = append(bounds, bound[K]{Min: pageMin, Max: pageMax})
		pageID++
		page = nil
		count = 0
		return nil
	}

	for _, e := range entries {
		count += len(e.Values)
		if count > capacity && len(page) > 0 {
			// e triggered the flush: it becomes the upper bound of the page
			// just closed, then opens the next page. This keeps bounds
			// contiguous with no gap between consecutive pages.
			if err := writePage(page[0].Key, e.Key); err != nil {
				return nil, err
			}
			count = len(e.Values)
		}
		page = append(page, e)
	}
	if len(page) > 0 {
		if err := writePage(page[0].Key, max); err != nil {
			return nil, err
		}
	}

	if len(bounds) == 0 {
		// Empty index: still persist an empty bounds file so Load succeeds.
	} else {
		bounds[0].Min = min
	}

	if err := persistence.SaveSnappyGob(filepath.Join(dir, boundsFileName), bounds); err != nil {
		return nil, fmt.Errorf("pageindex: write bounds: %w", err)
	}

	return &Index[K, V]{dir: dir, bounds: bounds}, nil
}

// Load reopens an index previously written by Build, reading only the
// bounds file; pages are read lazily by GetItems.
func Load[K Comparable[K], V any](dir string) (*Index[K, V], error) {
	var bounds []bound[K]
	if err := persistence.LoadSnappyGob(filepath.Join(dir, boundsFileName), &bounds); err != nil {
		return nil, fmt.Errorf("pageindex: load bounds: %w", err)
	}
	return &Index[K, V]{dir: dir, bounds: bounds}, nil
}

// findPageIndex returns the index of the page whose [Min, Max] range
// contains value, using binary search over the bounds' lower edges
// (ordered_key.rs's find_page_index).
func (idx *Index[K, V]) findPageIndex(value K) (int, bool) {
	n := len(idx.bounds)
	if n == 0 {
		return 0, false
	}

	i := sort.Search(n, func(i int) bool {
		return idx.bounds[i].Min.Compare(value) >= 0
	})
	if i < n && idx.bounds[i].Min.Compare(value) == 0 {
		return i, true
	}
	if i == 0 {
		return 0, true
	}
	if i >= n {
		return n - 1, true
	}
	return i - 1, true
}

// GetItems returns every Item whose Key falls in the inclusive [min, max]
// range, spanning as many pages as needed.
func (idx *Index[K, V]) GetItems(min, max K) ([]Item[K, V], error) {
	minIdx, ok := idx.findPageIndex(min)
	if !ok {
		return nil, nil
	}
	maxIdx, _ := idx.findPageIndex(max)

	var out []Item[K, V]
	for i := minIdx; i <= maxIdx; i++ {
		items, err := idx.loadPage(i)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if item.Key.Compare(min) < 0 {
				continue
			}
			if item.Key.Compare(max) > 0 {
				break
			}
			out = append(out, item)
		}
	}
	return out, nil
}

// All returns every item across every page, in key order. Used when
// merging a committed index forward into the next generation.
func (idx *Index[K, V]) All() ([]Item[K, V], error) {
	var out []Item[K, V]
	for i := range idx.bounds {
		items, err := idx.loadPage(i)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func (idx *Index[K, V]) loadPage(i int) ([]Item[K, V], error) {
	var items []Item[K, V]
	if err := persistence.LoadSnappyGob(pageFileName(idx.dir, i), &items); err != nil {
		return nil, fmt.Errorf("pageindex: load page %d: %w", i, err)
	}
	return items, nil
}
