package model

import (
	"math"
	"testing"
	"time"
)

func TestNewClampsImportance(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.5, 0.5},
		{1.7, 1.0},
		{-0.3, 0},
		{0, 0},
		{1, 1},
	}
	for _, tt := range tests {
		e := New("id-1", "content", tt.in, nil, TierFleeting)
		if e.Importance != tt.want {
			t.Errorf("importance %v: got %v, want %v", tt.in, e.Importance, tt.want)
		}
	}
}

func TestNewDefaults(t *testing.T) {
	e := New("id-1", "note", 0.5, []string{"a"}, TierShortTerm)
	if e.AccessCount != 0 {
		t.Errorf("expected 0 accesses, got %d", e.AccessCount)
	}
	if !e.CreatedAt.Equal(e.LastAccessed) {
		t.Error("created and last accessed should match at creation")
	}
	if e.Tier != TierShortTerm {
		t.Errorf("expected short_term, got %s", e.Tier)
	}
}

func TestTouch(t *testing.T) {
	e := New("id-1", "note", 0.5, nil, TierFleeting)
	now := time.Now().Add(time.Hour)
	e.Touch(now)
	if e.AccessCount != 1 {
		t.Errorf("expected 1 access, got %d", e.AccessCount)
	}
	if !e.LastAccessed.Equal(now) {
		t.Error("last accessed not updated")
	}
}

func TestRelevance(t *testing.T) {
	now := time.Now()
	e := New("id-1", "note", 0.8, nil, TierLongTerm)

	// Never accessed: zero no matter the age.
	e.LastAccessed = now.Add(-100 * 24 * time.Hour)
	if got := e.Relevance(now); got != 0 {
		t.Errorf("unaccessed relevance: got %v, want 0", got)
	}

	// Accessed just now: importance * sqrt(count).
	e.AccessCount = 4
	e.LastAccessed = now
	want := 0.8 * 2
	if got := e.Relevance(now); math.Abs(got-want) > 1e-9 {
		t.Errorf("fresh relevance: got %v, want %v", got, want)
	}

	// A day since last access halves the ratio under the sqrt.
	e.LastAccessed = now.Add(-24 * time.Hour)
	want = 0.8 * math.Sqrt(4.0/2.0)
	if got := e.Relevance(now); math.Abs(got-want) > 1e-9 {
		t.Errorf("aged relevance: got %v, want %v", got, want)
	}
}

func TestRelevanceClockSkew(t *testing.T) {
	now := time.Now()
	e := New("id-1", "note", 0.5, nil, TierFleeting)
	e.AccessCount = 1
	e.LastAccessed = now.Add(48 * time.Hour)

	got := e.Relevance(now)
	if math.IsNaN(got) {
		t.Fatal("relevance must not be NaN when last access is in the future")
	}
	if got != 0.5 {
		t.Errorf("expected days floored to 0 giving 0.5, got %v", got)
	}
}
