// Package model defines the core memory data types.
package model

import (
	"math"
	"time"
)

// Tier identifies which store currently owns an entry. It changes when the
// entry is promoted, so it is a location, not a permanent property.
type Tier string

// Memory tiers, most ephemeral first.
const (
	TierFleeting  Tier = "fleeting"
	TierShortTerm Tier = "short_term"
	TierLongTerm  Tier = "long_term"
)

// ValidTiers are the allowed tier names.
var ValidTiers = map[Tier]bool{
	TierFleeting:  true,
	TierShortTerm: true,
	TierLongTerm:  true,
}

// Entry represents a single stored memory.
type Entry struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	Importance   float64   `json:"importance"`
	AccessCount  int       `json:"access_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
	Tags         []string  `json:"tags,omitempty"`
	Tier         Tier      `json:"tier"`
}

// New creates an entry in the given tier. Importance is clamped to [0,1];
// inputs are sanitized, never rejected.
func New(id, content string, importance float64, tags []string, tier Tier) *Entry {
	now := time.Now()
	return &Entry{
		ID:           id,
		Content:      content,
		Importance:   clamp01(importance),
		CreatedAt:    now,
		LastAccessed: now,
		Tags:         tags,
		Tier:         tier,
	}
}

// Touch records a successful read.
func (e *Entry) Touch(now time.Time) {
	e.AccessCount++
	e.LastAccessed = now
}

// Relevance is the decay-adjusted importance used for eviction and pruning:
// importance * sqrt(accessCount / (1 + days since last access)). An entry
// that has never been read has relevance 0. Days are floored at zero so a
// backward clock cannot produce NaN.
func (e *Entry) Relevance(now time.Time) float64 {
	days := now.Sub(e.LastAccessed).Hours() / 24
	if days < 0 {
		days = 0
	}
	return e.Importance * math.Sqrt(float64(e.AccessCount)/(1+days))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
