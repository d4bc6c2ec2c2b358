// Package store implements the three memory tiers: an unbounded fleeting
// scratchpad, a bounded working set, and a persisted long-term store that
// owns the association graph.
package store

import (
	"strings"
	"time"

	"github.com/rcliao/synapse/internal/id"
	"github.com/rcliao/synapse/internal/model"
)

// Fleeting is the scratchpad tier. It is never persisted and is cleared
// wholesale at consolidation. Insertion order is preserved so search
// results come back in the order entries were added.
type Fleeting struct {
	ids     id.Generator
	entries map[string]*model.Entry
	order   []string
}

// NewFleeting returns an empty fleeting store.
func NewFleeting(ids id.Generator) *Fleeting {
	return &Fleeting{
		ids:     ids,
		entries: make(map[string]*model.Entry),
	}
}

// Add creates a new fleeting entry.
func (f *Fleeting) Add(content string, importance float64, tags []string) *model.Entry {
	e := model.New(f.ids.NewID(), content, importance, tags, model.TierFleeting)
	f.entries[e.ID] = e
	f.order = append(f.order, e.ID)
	return e
}

// Get returns the entry and bumps its access bookkeeping.
func (f *Fleeting) Get(id string) (*model.Entry, bool) {
	e, ok := f.entries[id]
	if !ok {
		return nil, false
	}
	e.Touch(time.Now())
	return e, true
}

// Search returns every entry whose content or any tag contains query as a
// case-insensitive substring, in insertion order. No ranking: the tier is
// too short-lived to bother. Matches count as reads.
func (f *Fleeting) Search(query string) []*model.Entry {
	q := strings.ToLower(query)
	now := time.Now()
	var out []*model.Entry
	for _, id := range f.order {
		e := f.entries[id]
		if matchesSubstring(e, q) {
			e.Touch(now)
			out = append(out, e)
		}
	}
	return out
}

func matchesSubstring(e *model.Entry, q string) bool {
	if strings.Contains(strings.ToLower(e.Content), q) {
		return true
	}
	for _, tag := range e.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Remove deletes the entry, reporting whether it existed.
func (f *Fleeting) Remove(id string) bool {
	if _, ok := f.entries[id]; !ok {
		return false
	}
	delete(f.entries, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true
}

// Clear drops everything.
func (f *Fleeting) Clear() {
	f.entries = make(map[string]*model.Entry)
	f.order = nil
}

// Size returns the number of entries.
func (f *Fleeting) Size() int { return len(f.entries) }

// Entries returns all entries in insertion order without touching access
// bookkeeping.
func (f *Fleeting) Entries() []*model.Entry {
	out := make([]*model.Entry, 0, len(f.entries))
	for _, id := range f.order {
		out = append(out, f.entries[id])
	}
	return out
}
