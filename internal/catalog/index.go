package catalog

import "sync"

// Entry is the slice of a card the resolver needs for candidate matching.
type Entry struct {
	ProductID           int64
	GroupID             int64
	ProductName         string
	CleanName           string
	CollectorNumberNorm string
	ExtNumberNorm       string
}

// Index is a read-mostly in-memory lookup of catalog cards keyed by their
// normalized collector and ext numbers. It is loaded once per run and then
// queried concurrently by resolver workers.
type Index struct {
	mu          sync.RWMutex
	byCollector map[string][]Entry
	byExt       map[string][]Entry
	count       int
}

func NewIndex() *Index {
	return &Index{
		byCollector: make(map[string][]Entry),
		byExt:       make(map[string][]Entry),
	}
}

func (ix *Index) Put(e Entry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if e.CollectorNumberNorm != "" {
		ix.byCollector[e.CollectorNumberNorm] = append(ix.byCollector[e.CollectorNumberNorm], e)
	}
	if e.ExtNumberNorm != "" {
		ix.byExt[e.ExtNumberNorm] = append(ix.byExt[e.ExtNumberNorm], e)
	}
	ix.count++
}

// ByCollectorNumber returns all cards whose normalized collector number
// matches. The returned slice is a copy.
func (ix *Index) ByCollectorNumber(norm string) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return copyEntries(ix.byCollector[norm])
}

// ByExtNumber returns all cards whose normalized ext (promo) number matches.
func (ix *Index) ByExtNumber(norm string) []Entry {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return copyEntries(ix.byExt[norm])
}

// Len returns the number of entries added to the index.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.count
}

func copyEntries(src []Entry) []Entry {
	if src == nil {
		return nil
	}
	cp := make([]Entry, len(src))
	copy(cp, src)
	return cp
}
