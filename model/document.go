package model

// RawDocument is the opaque JSON blob carried by an InsertDocument
// operation. The retrieval engine forwards it to the external document
// store (out of scope here, per spec §1) and never inspects its fields;
// indexing happens exclusively through the typed Index operations that
// follow an InsertDocument for the same doc id.
type RawDocument []byte
