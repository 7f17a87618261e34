// Package model holds the data types shared across the retrieval engine:
// identifiers, field kinds, write operations, and query/response shapes.
package model

import "fmt"

// CollectionId names a collection. Opaque from the engine's point of view.
type CollectionId string

// DocumentId is a monotonic identifier, unique within a process run.
// Kept as uint32 (rather than a wider integer) so it can be used directly
// as a key into roaring bitmaps, which is how doc-id sets are represented
// throughout the committed and uncommitted tiers.
type DocumentId uint32

// FieldId is small and unique within a collection; never reused.
type FieldId uint32

// Offset is the per-collection logical clock, advanced once per applied
// write operation.
type Offset uint64

// FieldKind tags the four supported field types. A FieldId is bound to
// exactly one kind for the lifetime of the collection.
type FieldKind int

const (
	FieldKindText FieldKind = iota
	FieldKindNumber
	FieldKindBool
	FieldKindEmbedding
)

func (k FieldKind) String() string {
	switch k {
	case FieldKindText:
		return "text"
	case FieldKindNumber:
		return "number"
	case FieldKindBool:
		return "bool"
	case FieldKindEmbedding:
		return "embedding"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// FieldMeta describes one field of a collection.
type FieldMeta struct {
	ID   FieldId
	Name string
	Kind FieldKind

	// Locale applies only to FieldKindText.
	Locale string

	// Model and SourceFields apply only to FieldKindEmbedding: the
	// embedding model that produced the vectors, and which text fields
	// were used to compute them (informational, not enforced here).
	Model        string
	SourceFields []string
	Dimensions   int
}
