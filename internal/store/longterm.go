package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/assoc"
	"github.com/rcliao/synapse/internal/id"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/persist"
	"github.com/rcliao/synapse/internal/token"
)

// DefaultPruneThreshold is the relevance below which an already-read
// long-term entry is dropped at consolidation.
const DefaultPruneThreshold = 0.01

// associativeNeighbors is how many graph neighbors each direct search hit
// contributes to an association-expanded search.
const associativeNeighbors = 3

// LongTerm is the persisted tier: an id-keyed entry map plus the
// association graph, saved and loaded as one document.
type LongTerm struct {
	ids            id.Generator
	graph          *assoc.Graph
	store          persist.Store
	pruneThreshold float64
	maxEntries     int
	log            *zap.Logger
	entries        map[string]*model.Entry
}

// LongTermOptions configures a long-term store. Zero values fall back to
// component defaults; a nil Logger logs nowhere.
type LongTermOptions struct {
	PruneThreshold float64
	MaxEntries     int
	DecayRate      float64
	MaxStrength    float64
	Logger         *zap.Logger
}

// NewLongTerm returns an empty long-term store owning a fresh graph.
func NewLongTerm(ids id.Generator, p persist.Store, opts LongTermOptions) *LongTerm {
	if opts.PruneThreshold <= 0 {
		opts.PruneThreshold = DefaultPruneThreshold
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &LongTerm{
		ids:            ids,
		graph:          assoc.New(opts.DecayRate, opts.MaxStrength),
		store:          p,
		pruneThreshold: opts.PruneThreshold,
		maxEntries:     opts.MaxEntries,
		log:            log,
		entries:        make(map[string]*model.Entry),
	}
}

// Add creates a long-term entry directly. Capacity is advisory only: going
// past maxEntries logs a warning, nothing is evicted.
func (lt *LongTerm) Add(content string, importance float64, tags []string) *model.Entry {
	e := model.New(lt.ids.NewID(), content, importance, tags, model.TierLongTerm)
	lt.entries[e.ID] = e
	lt.warnIfOverCapacity()
	return e
}

// Promote takes ownership of an entry from a lower tier, forcing its tier
// to long_term. An existing entry with the same id is overwritten.
func (lt *LongTerm) Promote(e *model.Entry) {
	e.Tier = model.TierLongTerm
	lt.entries[e.ID] = e
	lt.warnIfOverCapacity()
}

func (lt *LongTerm) warnIfOverCapacity() {
	if lt.maxEntries > 0 && len(lt.entries) > lt.maxEntries {
		lt.log.Warn("long-term store over advisory capacity",
			zap.Int("size", len(lt.entries)),
			zap.Int("max_entries", lt.maxEntries))
	}
}

// Get returns the entry and bumps its access bookkeeping.
func (lt *LongTerm) Get(id string) (*model.Entry, bool) {
	e, ok := lt.entries[id]
	if !ok {
		return nil, false
	}
	e.Touch(time.Now())
	return e, true
}

// Remove deletes the entry and strips its node from the graph, reporting
// whether it existed.
func (lt *LongTerm) Remove(id string) bool {
	if _, ok := lt.entries[id]; !ok {
		return false
	}
	delete(lt.entries, id)
	lt.graph.RemoveNode(id)
	return true
}

// Search scores all entries by token overlap with the query, keeps positive
// scores and returns up to limit, best first. Ids are scanned in sorted
// order so equal scores rank the same way on every run. Returned entries
// count as reads. A limit <= 0 means no cap.
func (lt *LongTerm) Search(query string, limit int) []*model.Entry {
	type scored struct {
		entry *model.Entry
		score float64
	}
	ids := lt.sortedIDs()
	var hits []scored
	for _, id := range ids {
		e := lt.entries[id]
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

// SearchWithAssociations runs Search, then walks each direct hit's
// strongest graph neighbors and appends any stored entry not already in the
// result. Associative hits need not match the query at all; being pulled in
// counts as a read. Direct hits come first, then associative ones, the
// whole list truncated to limit.
func (lt *LongTerm) SearchWithAssociations(query string, limit int) []*model.Entry {
	direct := lt.Search(query, limit)
	out := make([]*model.Entry, len(direct))
	copy(out, direct)
	seen := make(map[string]bool, len(out))
	for _, e := range out {
		seen[e.ID] = true
	}
	now := time.Now()
	for _, hit := range direct {
		for _, n := range lt.graph.StrongestAssociations(hit.ID, associativeNeighbors) {
			if limit > 0 && len(out) >= limit {
				return out
			}
			if seen[n.ID] {
				continue
			}
			e, ok := lt.entries[n.ID]
			if !ok {
				continue
			}
			e.Touch(now)
			out = append(out, e)
			seen[n.ID] = true
		}
	}
	return out
}

// Prune removes every previously-read entry whose relevance has fallen
// below the threshold, stripping each from the graph. Entries that were
// never read are kept: an entry must be used and found wanting, not merely
// new. Returns the number removed.
func (lt *LongTerm) Prune() int {
	now := time.Now()
	var doomed []string
	for id, e := range lt.entries {
		if e.AccessCount == 0 {
			continue
		}
		if e.Relevance(now) < lt.pruneThreshold {
			doomed = append(doomed, id)
		}
	}
	for _, id := range doomed {
		delete(lt.entries, id)
		lt.graph.RemoveNode(id)
	}
	return len(doomed)
}

// Decay applies one round of association decay to the graph.
func (lt *LongTerm) Decay() {
	lt.graph.Decay()
}

// Snapshot builds the persistence document for the current state, entries
// ordered by id.
func (lt *LongTerm) Snapshot() *persist.Document {
	doc := persist.NewDocument()
	for _, id := range lt.sortedIDs() {
		doc.Entries = append(doc.Entries, lt.entries[id])
	}
	doc.Associations = lt.graph.Snapshot()
	return doc
}

// Restore replaces the store's state with the document's.
func (lt *LongTerm) Restore(doc *persist.Document) {
	lt.entries = make(map[string]*model.Entry, len(doc.Entries))
	for _, e := range doc.Entries {
		lt.entries[e.ID] = e
	}
	lt.graph.Restore(doc.Associations)
}

// Save persists the whole store as one document. A failed save is the one
// error in this subsystem the caller must see.
func (lt *LongTerm) Save(ctx context.Context) error {
	if err := lt.store.Save(ctx, lt.Snapshot()); err != nil {
		return fmt.Errorf("save long-term store: %w", err)
	}
	return nil
}

// Load restores the store from its persisted document. Absence means a
// first run and leaves the store empty; anything else unreadable is logged
// and also leaves the store empty, so a bad file never blocks startup.
func (lt *LongTerm) Load(ctx context.Context) {
	doc, err := lt.store.Load(ctx)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			lt.log.Warn("long-term document unreadable, starting empty", zap.Error(err))
		}
		lt.entries = make(map[string]*model.Entry)
		lt.graph.Restore(nil)
		return
	}
	lt.Restore(doc)
}

// Close releases the persistence backend.
func (lt *LongTerm) Close() error {
	return lt.store.Close()
}

// Graph exposes the association graph for co-activation and inspection.
func (lt *LongTerm) Graph() *assoc.Graph { return lt.graph }

// Size returns the number of entries.
func (lt *LongTerm) Size() int { return len(lt.entries) }

// MaxEntries returns the advisory capacity, 0 meaning none.
func (lt *LongTerm) MaxEntries() int { return lt.maxEntries }

// Entries returns all entries ordered by id without touching access
// bookkeeping.
func (lt *LongTerm) Entries() []*model.Entry {
	ids := lt.sortedIDs()
	out := make([]*model.Entry, 0, len(ids))
	for _, id := range ids {
		out = append(out, lt.entries[id])
	}
	return out
}

func (lt *LongTerm) sortedIDs() []string {
	ids := make([]string, 0, len(lt.entries))
	for id := range lt.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
