package assoc

import (
	"math"
	"testing"
)

func TestStrengthenSymmetric(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("a", "b", 0.3)

	if got := g.Strength("a", "b"); got != 0.3 {
		t.Errorf("forward: got %v, want 0.3", got)
	}
	if g.Strength("a", "b") != g.Strength("b", "a") {
		t.Error("strengthen must write both directions")
	}
}

func TestStrengthenAccumulatesAndClamps(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("a", "b", 0.8)
	g.Strengthen("a", "b", 0.8)

	if got := g.Strength("a", "b"); got != 1.0 {
		t.Errorf("expected clamp at 1.0, got %v", got)
	}
	if got := g.Strength("b", "a"); got != 1.0 {
		t.Errorf("reverse direction: expected 1.0, got %v", got)
	}
}

func TestStrengthSelfAndAbsent(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("a", "a", 0.5)

	if got := g.Strength("a", "a"); got != 0 {
		t.Errorf("self edge should be ignored, got %v", got)
	}
	if got := g.Strength("x", "y"); got != 0 {
		t.Errorf("absent edge should be 0, got %v", got)
	}
}

func TestStrongestAssociations(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("hub", "w1", 0.2)
	g.Strengthen("hub", "w2", 0.6)
	g.Strengthen("hub", "w3", 0.4)

	top := g.StrongestAssociations("hub", 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 neighbors, got %d", len(top))
	}
	if top[0].ID != "w2" || top[1].ID != "w3" {
		t.Errorf("unexpected order: %v", top)
	}

	if got := g.StrongestAssociations("missing", 5); got != nil {
		t.Errorf("expected nil for unknown node, got %v", got)
	}
}

func TestStrongestAssociationsTieOrder(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("hub", "b", 0.3)
	g.Strengthen("hub", "a", 0.3)

	top := g.StrongestAssociations("hub", 0)
	if len(top) != 2 || top[0].ID != "a" || top[1].ID != "b" {
		t.Errorf("ties should order by id: %v", top)
	}
}

func TestDecay(t *testing.T) {
	g := New(0.5, 0)
	g.Strengthen("a", "b", 0.8)
	g.Decay()

	if got := g.Strength("a", "b"); math.Abs(got-0.4) > 1e-9 {
		t.Errorf("got %v, want 0.4", got)
	}
	if g.Strength("a", "b") != g.Strength("b", "a") {
		t.Error("decay broke symmetry")
	}
}

func TestDecayRemovesWeakEdges(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("a", "b", 0.005)
	g.Decay()

	if got := g.Strength("a", "b"); got != 0 {
		t.Errorf("weak edge should be gone, got %v", got)
	}
	if g.Nodes() != 0 {
		t.Errorf("edgeless nodes should be dropped, have %d", g.Nodes())
	}
}

func TestCoActivate(t *testing.T) {
	g := New(0, 0)
	g.CoActivate([]string{"a", "b", "c"})

	for _, p := range [][2]string{{"a", "b"}, {"a", "c"}, {"b", "c"}} {
		if got := g.Strength(p[0], p[1]); math.Abs(got-DefaultAmount) > 1e-9 {
			t.Errorf("edge %v: got %v, want %v", p, got, DefaultAmount)
		}
	}
	if g.Edges() != 3 {
		t.Errorf("expected 3 edges, got %d", g.Edges())
	}

	g.CoActivate([]string{"solo"})
	if g.Nodes() != 3 {
		t.Errorf("single-id co-activation should be a no-op, nodes %d", g.Nodes())
	}
}

func TestRemoveNode(t *testing.T) {
	g := New(0, 0)
	g.CoActivate([]string{"a", "b", "c"})
	g.RemoveNode("a")

	if g.Strength("a", "b") != 0 || g.Strength("b", "a") != 0 {
		t.Error("edges to removed node must be gone in both directions")
	}
	if g.Strength("b", "c") == 0 {
		t.Error("unrelated edge should survive")
	}
	for _, n := range g.StrongestAssociations("b", 0) {
		if n.ID == "a" {
			t.Error("removed node still listed as a neighbor")
		}
	}
}

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	g := New(0, 0)
	g.Strengthen("a", "b", 0.42)
	g.Strengthen("b", "c", 0.1)
	g.Strengthen("a", "c", 0.9)

	snap := g.Snapshot()

	restored := New(0, 0)
	restored.Restore(snap)
	pairs := [][2]string{{"a", "b"}, {"b", "c"}, {"a", "c"}, {"b", "a"}, {"c", "b"}, {"c", "a"}}
	for _, p := range pairs {
		if restored.Strength(p[0], p[1]) != g.Strength(p[0], p[1]) {
			t.Errorf("edge %v: got %v, want %v", p, restored.Strength(p[0], p[1]), g.Strength(p[0], p[1]))
		}
	}
	if restored.Edges() != g.Edges() || restored.Nodes() != g.Nodes() {
		t.Error("round trip changed graph size")
	}

	// Mutating the snapshot must not reach the restored graph.
	snap["a"]["b"] = 99
	if restored.Strength("a", "b") != 0.42 {
		t.Error("restore must copy, not alias")
	}
}

func TestRestoreSymmetrizesOneSidedEdges(t *testing.T) {
	g := New(0, 0)
	g.Restore(map[string]map[string]float64{
		"a": {"b": 0.5},
	})

	if g.Strength("a", "b") != 0.5 || g.Strength("b", "a") != 0.5 {
		t.Errorf("one-sided edge should be mirrored, got %v and %v",
			g.Strength("a", "b"), g.Strength("b", "a"))
	}

	// The mirror is a real edge: removing its far end strips both sides.
	g.RemoveNode("b")
	if g.Strength("a", "b") != 0 {
		t.Errorf("edge survived RemoveNode, strength %v", g.Strength("a", "b"))
	}
	if g.Nodes() != 0 {
		t.Errorf("expected empty graph, have %d nodes", g.Nodes())
	}
}

func TestRestoreResolvesDisagreeingDirections(t *testing.T) {
	g := New(0, 0)
	g.Restore(map[string]map[string]float64{
		"a": {"b": 0.2},
		"b": {"a": 0.6},
	})

	if g.Strength("a", "b") != 0.6 || g.Strength("b", "a") != 0.6 {
		t.Errorf("stronger direction should win both ways, got %v and %v",
			g.Strength("a", "b"), g.Strength("b", "a"))
	}
	if g.Edges() != 1 {
		t.Errorf("expected 1 edge, got %d", g.Edges())
	}
}

func TestRestoreDropsDegenerateEdges(t *testing.T) {
	g := New(0, 0)
	g.Restore(map[string]map[string]float64{
		"a": {"a": 0.9, "b": 1.7, "c": 0, "d": -0.3},
	})

	if g.Strength("a", "a") != 0 {
		t.Errorf("self edge should be dropped, got %v", g.Strength("a", "a"))
	}
	if g.Strength("a", "b") != 1.0 {
		t.Errorf("overweight edge should clamp to max strength, got %v", g.Strength("a", "b"))
	}
	if g.Strength("a", "c") != 0 || g.Strength("a", "d") != 0 {
		t.Errorf("non-positive edges should be dropped, got %v and %v",
			g.Strength("a", "c"), g.Strength("a", "d"))
	}
	if g.Edges() != 1 || g.Nodes() != 2 {
		t.Errorf("expected 1 edge between 2 nodes, got %d and %d", g.Edges(), g.Nodes())
	}
}
