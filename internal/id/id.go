// Package id generates entry identifiers.
package id

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces unique entry ids. A manager shares one generator across
// all of its tiers so ids never collide between stores.
type Generator interface {
	NewID() string
}

// ULID generates lexicographically sortable unique ids.
type ULID struct {
	entropy *rand.Rand
}

// NewULID returns the production generator, seeded from the clock.
func NewULID() *ULID {
	return &ULID{entropy: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewID implements Generator.
func (g *ULID) NewID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

// Sequential generates deterministic ids (prefix-000001, prefix-000002, ...)
// so tests can assert on exact values.
type Sequential struct {
	prefix string
	n      int
}

// NewSequential returns a deterministic generator.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// NewID implements Generator.
func (g *Sequential) NewID() string {
	g.n++
	return fmt.Sprintf("%s-%06d", g.prefix, g.n)
}
