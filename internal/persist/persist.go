// Package persist stores and restores the long-term memory document.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/synapse/internal/model"
)

// Version is the document schema version this build reads and writes.
const Version = 1

// ErrUnknownVersion reports a document written by an incompatible version.
var ErrUnknownVersion = errors.New("persist: unknown document version")

// ErrMalformedDocument reports a document that parsed but cannot be
// restored, such as one carrying a null entry.
var ErrMalformedDocument = errors.New("persist: malformed document")

// Document is the single persisted unit: all long-term entries plus the
// serialized association graph.
type Document struct {
	Entries      []*model.Entry                `json:"entries"`
	Associations map[string]map[string]float64 `json:"associations"`
	Version      int                           `json:"version"`
}

// NewDocument returns an empty document at the current version.
func NewDocument() *Document {
	return &Document{
		Entries:      []*model.Entry{},
		Associations: map[string]map[string]float64{},
		Version:      Version,
	}
}

// Validate checks the entry list for damage JSON decoding lets through:
// `[null]` is valid JSON and decodes to a nil entry that no store can hold.
func (d *Document) Validate() error {
	for i, e := range d.Entries {
		if e == nil {
			return fmt.Errorf("entry %d is null: %w", i, ErrMalformedDocument)
		}
	}
	return nil
}

// Store reads and writes whole documents. Load reports a document that was
// never saved with an error matching fs.ErrNotExist; callers treat that as
// an empty store.
type Store interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Close() error
}
