package model

// ManifestVersion is the tagged schema version written into every
// info-offset-{N}.info manifest file (spec §6: "manifest JSON tagged with
// version:\"1\"").
const ManifestVersion = "1"

// FieldInfo points at the on-disk directory holding one field's committed
// generation.
type FieldInfo struct {
	FieldID FieldId
	Path    string // directory containing the field's offset-{N} generation
}

// ModelFields records which field ids hold embeddings for a given model
// name, so vector search can bucket query embeddings by model.
type ModelFields struct {
	Model    string
	FieldIDs []FieldId
}

// Manifest is the full description of one committed generation of a
// collection (spec §6 on-disk layout, info-offset-{N}.info).
type Manifest struct {
	Version string
	Offset  Offset

	Fields []FieldMeta

	StringFields    []FieldInfo
	NumberFields    []FieldInfo
	BoolFields      []FieldInfo
	VectorFields    []FieldInfo
	ModelToFieldIDs []ModelFields
}
