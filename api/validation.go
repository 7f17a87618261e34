package api

import (
	"strings"

	"github.com/gcbaptista/docretrieval/model"
)

// ValidationError is one field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

// ValidationResult accumulates the validation failures for one request.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// AddError records a validation failure and marks the result invalid.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// HasErrors reports whether any validation failure was recorded.
func (vr *ValidationResult) HasErrors() bool { return len(vr.Errors) > 0 }

// ValidateCollectionID validates a collection id path/body parameter.
func ValidateCollectionID(id string) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if id == "" {
		result.AddError("id", "collection id is required")
		return result
	}
	if strings.TrimSpace(id) != id {
		result.AddError("id", "collection id cannot have leading or trailing whitespace")
	}
	return result
}

// ValidateFieldMeta validates a field-creation request body.
func ValidateFieldMeta(req *CreateFieldRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}
	if req.Name == "" {
		result.AddError("name", "field name is required")
	}
	switch req.Kind {
	case "text", "number", "bool", "embedding":
	default:
		result.AddError("kind", "kind must be one of text, number, bool, embedding")
	}
	if req.Kind == "embedding" {
		if req.Model == "" {
			result.AddError("model", "embedding fields require a model name")
		}
		if req.Dimensions <= 0 {
			result.AddError("dimensions", "embedding fields require positive dimensions")
		}
	}
	return result
}

// ValidateSearchRequest validates a search request body.
func ValidateSearchRequest(req *SearchRequest) *ValidationResult {
	result := &ValidationResult{Valid: true}
	switch req.Mode {
	case "", "fulltext", "vector", "hybrid":
	default:
		result.AddError("mode", "mode must be one of fulltext, vector, hybrid")
	}
	if req.Term == "" {
		result.AddError("term", "term is required")
	}
	return result
}

func fieldKindFromString(s string) (model.FieldKind, bool) {
	switch s {
	case "text":
		return model.FieldKindText, true
	case "number":
		return model.FieldKindNumber, true
	case "bool":
		return model.FieldKindBool, true
	case "embedding":
		return model.FieldKindEmbedding, true
	default:
		return 0, false
	}
}

func searchModeFromString(s string) model.SearchMode {
	switch s {
	case "vector":
		return model.ModeVector
	case "hybrid":
		return model.ModeHybrid
	default:
		return model.ModeFullText
	}
}
