package store

import (
	"sort"
	"time"

	"github.com/rcliao/synapse/internal/id"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/token"
)

// Working set defaults.
const (
	DefaultMaxSize              = 50
	DefaultCompressionThreshold = 0.8
)

// An entry earns promotion to long-term by being read often or by having
// been marked important at creation.
const (
	promoteAccessCount = 3
	promoteImportance  = 0.7
)

// WorkingSet is the bounded short-term tier. The backing slice is the sort
// order: eviction stable-sorts by relevance and keeps the top maxSize, so
// ties among equally relevant entries preserve their earlier order.
type WorkingSet struct {
	ids                  id.Generator
	maxSize              int
	compressionThreshold float64
	entries              []*model.Entry
}

// NewWorkingSet returns an empty working set. Non-positive parameters fall
// back to defaults.
func NewWorkingSet(ids id.Generator, maxSize int, compressionThreshold float64) *WorkingSet {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if compressionThreshold <= 0 {
		compressionThreshold = DefaultCompressionThreshold
	}
	return &WorkingSet{
		ids:                  ids,
		maxSize:              maxSize,
		compressionThreshold: compressionThreshold,
	}
}

// Add creates a new short-term entry, evicting the lowest-relevance entries
// when the store grows past maxSize. A brand-new entry has zero relevance
// until it is read, so at capacity the newcomer is the usual casualty.
func (w *WorkingSet) Add(content string, importance float64, tags []string) *model.Entry {
	e := model.New(w.ids.NewID(), content, importance, tags, model.TierShortTerm)
	w.entries = append(w.entries, e)
	if len(w.entries) > w.maxSize {
		w.sortByRelevance(time.Now())
		w.entries = w.entries[:w.maxSize]
	}
	return e
}

func (w *WorkingSet) sortByRelevance(now time.Time) {
	rel := make(map[string]float64, len(w.entries))
	for _, e := range w.entries {
		rel[e.ID] = e.Relevance(now)
	}
	sort.SliceStable(w.entries, func(i, j int) bool {
		return rel[w.entries[i].ID] > rel[w.entries[j].ID]
	})
}

// Get returns the entry and bumps its access bookkeeping.
func (w *WorkingSet) Get(id string) (*model.Entry, bool) {
	for _, e := range w.entries {
		if e.ID == id {
			e.Touch(time.Now())
			return e, true
		}
	}
	return nil, false
}

// Search scores entries by token overlap with the query, keeps positive
// scores and returns up to limit, best first. Returned matches count as
// reads. A limit <= 0 means no cap.
func (w *WorkingSet) Search(query string, limit int) []*model.Entry {
	type scored struct {
		entry *model.Entry
		score float64
	}
	var hits []scored
	for _, e := range w.entries {
		if s := token.Similarity(query, e.Content); s > 0 {
			hits = append(hits, scored{e, s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	now := time.Now()
	out := make([]*model.Entry, len(hits))
	for i, h := range hits {
		h.entry.Touch(now)
		out[i] = h.entry
	}
	return out
}

// Remove deletes the entry, reporting whether it existed.
func (w *WorkingSet) Remove(id string) bool {
	for i, e := range w.entries {
		if e.ID == id {
			w.entries = append(w.entries[:i], w.entries[i+1:]...)
			return true
		}
	}
	return false
}

// Compress is the promotion step of consolidation. It is a no-op until the
// store is at least compressionThreshold full; past that, every entry read
// promoteAccessCount times or marked promoteImportance important is removed
// and returned, highest relevance first, for the caller to move into
// long-term storage.
func (w *WorkingSet) Compress() []*model.Entry {
	if float64(len(w.entries))/float64(w.maxSize) < w.compressionThreshold {
		return nil
	}
	w.sortByRelevance(time.Now())
	var promoted, kept []*model.Entry
	for _, e := range w.entries {
		if e.AccessCount >= promoteAccessCount || e.Importance >= promoteImportance {
			promoted = append(promoted, e)
		} else {
			kept = append(kept, e)
		}
	}
	w.entries = kept
	return promoted
}

// Size returns the number of entries.
func (w *WorkingSet) Size() int { return len(w.entries) }

// MaxSize returns the configured capacity.
func (w *WorkingSet) MaxSize() int { return w.maxSize }

// Entries returns a copy of the backing slice without touching access
// bookkeeping.
func (w *WorkingSet) Entries() []*model.Entry {
	out := make([]*model.Entry, len(w.entries))
	copy(out, w.entries)
	return out
}
