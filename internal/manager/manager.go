// Package manager ties the three memory tiers together: it routes writes by
// importance, fans reads out across every tier and runs the consolidation
// protocol at session boundaries.
package manager

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/assoc"
	"github.com/rcliao/synapse/internal/id"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/persist"
	"github.com/rcliao/synapse/internal/store"
	"github.com/rcliao/synapse/internal/token"
)

// Importance thresholds for write routing, decided once at write time.
const (
	longTermThreshold  = 0.7
	shortTermThreshold = 0.4
)

// Recall ranking boosts: durable tiers outrank volatile ones when token
// overlap ties.
const (
	boostLongTerm  = 0.2
	boostShortTerm = 0.1
)

// DefaultRecallLimit caps recall results when the caller passes no limit.
const DefaultRecallLimit = 10

// Options configures a Manager. Zero values fall back to component
// defaults; a nil IDs gets a fresh ULID generator, a nil Logger logs
// nowhere.
type Options struct {
	WorkingSetSize       int
	CompressionThreshold float64
	DecayRate            float64
	MaxStrength          float64
	PruneThreshold       float64
	MaxEntries           int
	IDs                  id.Generator
	Logger               *zap.Logger
}

// Manager owns one instance of each tier. It expects a single logical
// caller: anything driving it from concurrent goroutines must serialize
// access itself.
type Manager struct {
	fleeting *store.Fleeting
	working  *store.WorkingSet
	longTerm *store.LongTerm
	log      *zap.Logger
}

// New builds a manager stack on top of the given persistence backend.
func New(p persist.Store, opts Options) *Manager {
	ids := opts.IDs
	if ids == nil {
		ids = id.NewULID()
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		fleeting: store.NewFleeting(ids),
		working:  store.NewWorkingSet(ids, opts.WorkingSetSize, opts.CompressionThreshold),
		longTerm: store.NewLongTerm(ids, p, store.LongTermOptions{
			PruneThreshold: opts.PruneThreshold,
			MaxEntries:     opts.MaxEntries,
			DecayRate:      opts.DecayRate,
			MaxStrength:    opts.MaxStrength,
			Logger:         log,
		}),
		log: log,
	}
}

// Initialize loads the persisted long-term state. Call once at startup; a
// missing or unreadable document leaves the store empty rather than
// failing.
func (m *Manager) Initialize(ctx context.Context) {
	m.longTerm.Load(ctx)
	m.log.Debug("initialized", zap.Int("long_term", m.longTerm.Size()))
}

// Remember stores content in the tier chosen by importance alone:
// >= 0.7 long-term, >= 0.4 working set, anything below that fleeting.
func (m *Manager) Remember(content string, importance float64, tags []string) *model.Entry {
	var e *model.Entry
	switch {
	case importance >= longTermThreshold:
		e = m.longTerm.Add(content, importance, tags)
	case importance >= shortTermThreshold:
		e = m.working.Add(content, importance, tags)
	default:
		e = m.fleeting.Add(content, importance, tags)
	}
	m.log.Debug("remembered",
		zap.String("id", e.ID),
		zap.String("tier", string(e.Tier)),
		zap.Float64("importance", e.Importance))
	return e
}

type scoredEntry struct {
	entry *model.Entry
	score float64
}

// Recall searches every tier, merges by id with long-term results taking
// precedence over working set over fleeting, then ranks by token overlap
// with the query plus a tier boost. When more than one entry comes back the
// whole result set is co-activated in the association graph: memories
// recalled together become linked.
func (m *Manager) Recall(query string, limit int) []*model.Entry {
	if limit <= 0 {
		limit = DefaultRecallLimit
	}

	seen := make(map[string]bool)
	var merged []scoredEntry
	collect := func(entries []*model.Entry, boost float64) {
		for _, e := range entries {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			merged = append(merged, scoredEntry{e, token.Similarity(query, e.Content) + boost})
		}
	}
	collect(m.longTerm.SearchWithAssociations(query, limit), boostLongTerm)
	collect(m.working.Search(query, limit), boostShortTerm)
	collect(m.fleeting.Search(query), 0)

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].score > merged[j].score })
	if len(merged) > limit {
		merged = merged[:limit]
	}

	out := make([]*model.Entry, len(merged))
	ids := make([]string, len(merged))
	for i, s := range merged {
		out[i] = s.entry
		ids[i] = s.entry.ID
	}
	if len(ids) > 1 {
		m.longTerm.Graph().CoActivate(ids)
	}
	m.log.Debug("recalled", zap.String("query", query), zap.Int("results", len(out)))
	return out
}

// Get looks the id up tier by tier, long-term first.
func (m *Manager) Get(id string) (*model.Entry, bool) {
	if e, ok := m.longTerm.Get(id); ok {
		return e, true
	}
	if e, ok := m.working.Get(id); ok {
		return e, true
	}
	return m.fleeting.Get(id)
}

// Forget removes the id from whichever tier holds it and strips it from
// the association graph, reporting whether anything was removed.
func (m *Manager) Forget(id string) bool {
	if m.longTerm.Remove(id) { // strips the graph itself
		return true
	}
	if m.working.Remove(id) || m.fleeting.Remove(id) {
		m.longTerm.Graph().RemoveNode(id)
		return true
	}
	return false
}

// List returns the entries of one tier, or of every tier for an empty tier
// argument, without touching access bookkeeping.
func (m *Manager) List(tier model.Tier) []*model.Entry {
	switch tier {
	case model.TierFleeting:
		return m.fleeting.Entries()
	case model.TierShortTerm:
		return m.working.Entries()
	case model.TierLongTerm:
		return m.longTerm.Entries()
	}
	out := m.longTerm.Entries()
	out = append(out, m.working.Entries()...)
	return append(out, m.fleeting.Entries()...)
}

// Consolidate runs the session-boundary protocol in its fixed order:
// promote what the working set compresses out, decay the graph, prune
// long-term, clear fleeting, save. Returns the number of entries promoted.
// A failed save is the only error; everything before it is unconditional.
func (m *Manager) Consolidate(ctx context.Context) (int, error) {
	promoted := m.working.Compress()
	for _, e := range promoted {
		m.longTerm.Promote(e)
	}
	m.longTerm.Decay()
	pruned := m.longTerm.Prune()
	m.fleeting.Clear()
	if err := m.longTerm.Save(ctx); err != nil {
		return len(promoted), fmt.Errorf("consolidate: %w", err)
	}
	m.log.Info("consolidated",
		zap.Int("promoted", len(promoted)),
		zap.Int("pruned", pruned),
		zap.Int("long_term", m.longTerm.Size()))
	return len(promoted), nil
}

// Save persists the long-term store without running consolidation.
func (m *Manager) Save(ctx context.Context) error {
	return m.longTerm.Save(ctx)
}

// Close releases the persistence backend.
func (m *Manager) Close() error {
	return m.longTerm.Close()
}

// Stats is a read-only snapshot of tier and graph sizes.
type Stats struct {
	Fleeting      int `json:"fleeting"`
	ShortTerm     int `json:"short_term"`
	LongTerm      int `json:"long_term"`
	Total         int `json:"total"`
	GraphNodes    int `json:"graph_nodes"`
	GraphEdges    int `json:"graph_edges"`
	WorkingSetMax int `json:"working_set_max"`
	MaxEntries    int `json:"max_entries,omitempty"`
}

// Stats reports counts without mutating anything.
func (m *Manager) Stats() Stats {
	g := m.longTerm.Graph()
	return Stats{
		Fleeting:      m.fleeting.Size(),
		ShortTerm:     m.working.Size(),
		LongTerm:      m.longTerm.Size(),
		Total:         m.fleeting.Size() + m.working.Size() + m.longTerm.Size(),
		GraphNodes:    g.Nodes(),
		GraphEdges:    g.Edges(),
		WorkingSetMax: m.working.MaxSize(),
		MaxEntries:    m.longTerm.MaxEntries(),
	}
}

// Network exposes the association graph.
func (m *Manager) Network() *assoc.Graph {
	return m.longTerm.Graph()
}

// Associations returns the strongest neighbors of an entry, strongest
// first. A limit <= 0 returns them all.
func (m *Manager) Associations(id string, limit int) []assoc.Association {
	return m.longTerm.Graph().StrongestAssociations(id, limit)
}

// Snapshot builds the current long-term document for export.
func (m *Manager) Snapshot() *persist.Document {
	return m.longTerm.Snapshot()
}

// Restore replaces long-term state with an imported document, rejecting
// versions this build does not understand and documents too damaged to
// hold. A rejected document leaves the current state untouched.
func (m *Manager) Restore(doc *persist.Document) error {
	if doc.Version != persist.Version {
		return fmt.Errorf("document version %d: %w", doc.Version, persist.ErrUnknownVersion)
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	m.longTerm.Restore(doc)
	return nil
}
