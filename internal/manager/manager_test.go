package manager

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rcliao/synapse/internal/id"
	"github.com/rcliao/synapse/internal/model"
	"github.com/rcliao/synapse/internal/persist"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, _ := newTestManagerAt(t, filepath.Join(t.TempDir(), "memory.json"), Options{})
	return m
}

func newTestManagerAt(t *testing.T, path string, opts Options) (*Manager, string) {
	t.Helper()
	p, err := persist.NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if opts.IDs == nil {
		opts.IDs = id.NewSequential("mem")
	}
	m := New(p, opts)
	t.Cleanup(func() { m.Close() })
	return m, path
}

func TestRememberRouting(t *testing.T) {
	m := newTestManager(t)
	tests := []struct {
		importance float64
		want       model.Tier
	}{
		{0.9, model.TierLongTerm},
		{0.7, model.TierLongTerm},
		{0.69, model.TierShortTerm},
		{0.4, model.TierShortTerm},
		{0.39, model.TierFleeting},
		{0.1, model.TierFleeting},
		{0, model.TierFleeting},
	}
	for _, tt := range tests {
		e := m.Remember("note", tt.importance, nil)
		if e.Tier != tt.want {
			t.Errorf("importance %v routed to %s, want %s", tt.importance, e.Tier, tt.want)
		}
	}

	stats := m.Stats()
	if stats.LongTerm != 2 || stats.ShortTerm != 2 || stats.Fleeting != 3 {
		t.Errorf("unexpected tier sizes: %+v", stats)
	}
	if stats.Total != 7 {
		t.Errorf("expected total 7, got %d", stats.Total)
	}
}

func TestRememberClampsImportance(t *testing.T) {
	m := newTestManager(t)
	if e := m.Remember("over", 1.7, nil); e.Importance != 1 || e.Tier != model.TierLongTerm {
		t.Errorf("got importance %v tier %s", e.Importance, e.Tier)
	}
	if e := m.Remember("under", -0.3, nil); e.Importance != 0 || e.Tier != model.TierFleeting {
		t.Errorf("got importance %v tier %s", e.Importance, e.Tier)
	}
}

func TestRecallRanksAcrossTiers(t *testing.T) {
	m := newTestManager(t)
	lt := m.Remember("kernel panic alpha", 0.9, nil)
	ws := m.Remember("kernel panic beta", 0.5, nil)
	fl := m.Remember("kernel panic gamma", 0.1, nil)
	m.Remember("grocery list", 0.5, nil)

	got := m.Recall("kernel panic", 10)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	// All three share two of three tokens with the query; the tier boosts
	// (+0.2 long-term, +0.1 working set) decide the order.
	if got[0].ID != lt.ID || got[1].ID != ws.ID || got[2].ID != fl.ID {
		t.Errorf("expected tier-boosted order, got %s, %s, %s",
			got[0].ID, got[1].ID, got[2].ID)
	}
}

func TestRecallCoActivatesResults(t *testing.T) {
	m := newTestManager(t)
	a := m.Remember("shared topic alpha", 0.9, nil)
	b := m.Remember("shared topic beta", 0.9, nil)

	got := m.Recall("shared topic", 10)
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if s := m.Network().Strength(a.ID, b.ID); math.Abs(s-0.1) > 1e-9 {
		t.Errorf("recalling entries together should link them, strength %v", s)
	}

	solo := m.Remember("unique snowflake phrase", 0.9, nil)
	m.Recall("snowflake", 10)
	if n := m.Associations(solo.ID, 0); n != nil {
		t.Errorf("a single result must not create associations, got %v", n)
	}
}

func TestRecallIncludesAssociatedEntries(t *testing.T) {
	m := newTestManager(t)
	report := m.Remember("quarterly report numbers", 0.9, nil)
	zebra := m.Remember("zebra migration patterns", 0.9, nil)
	m.Network().Strengthen(report.ID, zebra.ID, 0.5)

	got := m.Recall("quarterly report", 10)
	found := false
	for _, e := range got {
		if e.ID == zebra.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected associated entry with no token overlap to be recalled")
	}
}

func TestRecallDefaultLimit(t *testing.T) {
	m := newTestManager(t)
	for i := 0; i < 15; i++ {
		m.Remember("repeated topic entry", 0.1, nil)
	}
	if got := m.Recall("repeated topic", 0); len(got) != DefaultRecallLimit {
		t.Errorf("expected default limit %d, got %d", DefaultRecallLimit, len(got))
	}
}

func TestGetChecksEveryTier(t *testing.T) {
	m := newTestManager(t)
	ids := []string{
		m.Remember("long", 0.9, nil).ID,
		m.Remember("short", 0.5, nil).ID,
		m.Remember("scratch", 0.1, nil).ID,
	}
	for _, id := range ids {
		e, ok := m.Get(id)
		if !ok {
			t.Fatalf("expected hit for %s", id)
		}
		if e.AccessCount != 1 {
			t.Errorf("get should bump %s, got %d", id, e.AccessCount)
		}
	}
	if _, ok := m.Get("mem-999999"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestForget(t *testing.T) {
	m := newTestManager(t)
	lt := m.Remember("long", 0.9, nil)
	ws := m.Remember("short", 0.5, nil)
	fl := m.Remember("scratch", 0.1, nil)
	other := m.Remember("other", 0.9, nil)
	m.Network().Strengthen(ws.ID, other.ID, 0.5)

	for _, id := range []string{lt.ID, ws.ID, fl.ID} {
		if !m.Forget(id) {
			t.Errorf("forget %s should report found", id)
		}
		if _, ok := m.Get(id); ok {
			t.Errorf("%s still retrievable after forget", id)
		}
	}
	if m.Forget("mem-999999") {
		t.Error("forget unknown id should report not found")
	}
	if s := m.Network().Strength(other.ID, ws.ID); s != 0 {
		t.Errorf("forget must strip graph edges, strength %v", s)
	}
}

func TestConsolidate(t *testing.T) {
	m, path := newTestManagerAt(t, filepath.Join(t.TempDir(), "memory.json"), Options{
		WorkingSetSize:       5,
		CompressionThreshold: 0.8,
	})

	hot := m.Remember("connection pooling notes", 0.5, nil)
	m.Get(hot.ID)
	m.Get(hot.ID)
	m.Get(hot.ID)
	m.Remember("scratch one", 0.5, nil)
	m.Remember("scratch two", 0.5, nil)
	m.Remember("scratch three", 0.5, nil) // 4 of 5 slots, compression triggers
	m.Remember("throwaway", 0.1, nil)

	a := m.Remember("alpha", 0.9, nil)
	b := m.Remember("beta", 0.9, nil)
	m.Network().Strengthen(a.ID, b.ID, 0.4)

	promoted, err := m.Consolidate(context.Background())
	if err != nil {
		t.Fatalf("consolidate: %v", err)
	}
	if promoted != 1 {
		t.Fatalf("expected 1 promoted, got %d", promoted)
	}

	stats := m.Stats()
	if stats.Fleeting != 0 {
		t.Error("fleeting tier should be cleared")
	}
	if stats.ShortTerm != 3 {
		t.Errorf("expected 3 left in working set, got %d", stats.ShortTerm)
	}

	e, ok := m.Get(hot.ID)
	if !ok {
		t.Fatal("promoted entry should be retrievable")
	}
	if e.Tier != model.TierLongTerm {
		t.Errorf("promoted entry tier %s, want long_term", e.Tier)
	}

	// One decay round: 0.4 * 0.95.
	if s := m.Network().Strength(a.ID, b.ID); math.Abs(s-0.38) > 1e-9 {
		t.Errorf("decay should run during consolidation, strength %v", s)
	}

	if _, err := os.Stat(path); err != nil {
		t.Errorf("consolidate should save the document: %v", err)
	}
}

func TestInitializeRestoresSavedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "memory.json")
	m1, _ := newTestManagerAt(t, path, Options{})
	a := m1.Remember("persistent fact alpha", 0.9, nil)
	b := m1.Remember("persistent fact beta", 0.8, nil)
	m1.Network().Strengthen(a.ID, b.ID, 0.6)
	if err := m1.Save(context.Background()); err != nil {
		t.Fatalf("save: %v", err)
	}

	m2, _ := newTestManagerAt(t, path, Options{})
	m2.Initialize(context.Background())

	e, ok := m2.Get(a.ID)
	if !ok {
		t.Fatal("expected entry after reload")
	}
	if e.Content != "persistent fact alpha" {
		t.Errorf("content after reload: %q", e.Content)
	}
	if s := m2.Network().Strength(a.ID, b.ID); s != 0.6 {
		t.Errorf("graph strength after reload: %v", s)
	}
}

func TestRestoreRejectsUnknownVersion(t *testing.T) {
	m := newTestManager(t)
	doc := persist.NewDocument()
	doc.Version = 99
	if err := m.Restore(doc); !errors.Is(err, persist.ErrUnknownVersion) {
		t.Fatalf("expected ErrUnknownVersion, got %v", err)
	}
}

func TestRestoreRejectsNullEntries(t *testing.T) {
	m := newTestManager(t)
	kept := m.Remember("survives the bad import", 0.9, nil)

	// `{"entries":[null],...}` is valid JSON and decodes to a nil entry.
	doc := persist.NewDocument()
	doc.Entries = append(doc.Entries, nil)

	if err := m.Restore(doc); !errors.Is(err, persist.ErrMalformedDocument) {
		t.Fatalf("expected ErrMalformedDocument, got %v", err)
	}
	if _, ok := m.Get(kept.ID); !ok {
		t.Error("a rejected document must leave existing state untouched")
	}
}

func TestList(t *testing.T) {
	m := newTestManager(t)
	m.Remember("long", 0.9, nil)
	m.Remember("short", 0.5, nil)
	m.Remember("scratch", 0.1, nil)

	if got := m.List(model.TierLongTerm); len(got) != 1 {
		t.Errorf("expected 1 long-term entry, got %d", len(got))
	}
	if got := m.List(""); len(got) != 3 {
		t.Errorf("expected 3 entries across tiers, got %d", len(got))
	}
	// Listing never counts as a read.
	for _, e := range m.List("") {
		if e.AccessCount != 0 {
			t.Errorf("list should not bump %s", e.ID)
		}
	}
}
