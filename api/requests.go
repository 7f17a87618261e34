package api

import "github.com/gcbaptista/docretrieval/model"

// CreateCollectionRequest is the body of POST /collections.
type CreateCollectionRequest struct {
	ID string `json:"id" binding:"required"`
}

// CreateFieldRequest is the body of POST /collections/:id/fields.
type CreateFieldRequest struct {
	ID           uint32   `json:"id" binding:"required"`
	Name         string   `json:"name" binding:"required"`
	Kind         string   `json:"kind" binding:"required"`
	Locale       string   `json:"locale,omitempty"`
	Model        string   `json:"model,omitempty"`
	SourceFields []string `json:"source_fields,omitempty"`
	Dimensions   int      `json:"dimensions,omitempty"`
}

func (r CreateFieldRequest) toFieldMeta() model.FieldMeta {
	kind, _ := fieldKindFromString(r.Kind)
	return model.FieldMeta{
		ID:           model.FieldId(r.ID),
		Name:         r.Name,
		Kind:         kind,
		Locale:       r.Locale,
		Model:        r.Model,
		SourceFields: r.SourceFields,
		Dimensions:   r.Dimensions,
	}
}

// StringTermsRequest is the tokenized-text payload of an index operation
// against a text field: the caller has already tokenized the field value,
// matching the engine's expectation that the write-operation log carries
// pre-tokenized terms rather than raw text (spec §6).
type StringTermsRequest struct {
	FieldLength int              `json:"field_length"`
	Terms       map[string][]int `json:"terms"`
}

// ApplyOperationRequest is the body of POST /collections/:id/operations: one
// write-operation log entry to apply against a document/field pair. Exactly
// one of the Kind-selected payload fields is populated.
type ApplyOperationRequest struct {
	Kind    string `json:"kind" binding:"required"` // insert_document | index
	DocID   uint32 `json:"doc_id" binding:"required"`
	FieldID uint32 `json:"field_id,omitempty"`

	StringTerms *StringTermsRequest `json:"string_terms,omitempty"`
	NumberValue *float64            `json:"number_value,omitempty"`
	BoolValue   *bool               `json:"bool_value,omitempty"`
	Vector      []float32           `json:"vector,omitempty"`
}

func (r ApplyOperationRequest) toFieldOp() model.FieldOp {
	switch {
	case r.StringTerms != nil:
		terms := make(map[string]model.Positions, len(r.StringTerms.Terms))
		for term, positions := range r.StringTerms.Terms {
			terms[term] = model.Positions(positions)
		}
		return model.FieldOp{
			Kind: model.IndexString,
			StringTerms: model.IndexStringTerms{
				FieldLength: r.StringTerms.FieldLength,
				Terms:       terms,
			},
		}
	case r.NumberValue != nil:
		n, _ := model.NewNumber(*r.NumberValue)
		return model.FieldOp{Kind: model.IndexNumberOp, NumberValue: n}
	case r.BoolValue != nil:
		return model.FieldOp{Kind: model.IndexBooleanOp, BoolValue: *r.BoolValue}
	case r.Vector != nil:
		return model.FieldOp{Kind: model.IndexEmbeddingOp, Vector: r.Vector}
	default:
		return model.FieldOp{}
	}
}

// NumberFilterSpec is the JSON form of a model.NumberPred.
type NumberFilterSpec struct {
	Op string  `json:"op"` // eq | between | gt | gte | lt | lte
	A  float64 `json:"a"`
	B  float64 `json:"b,omitempty"`
}

func (s NumberFilterSpec) toPred() model.NumberPred {
	a, _ := model.NewNumber(s.A)
	b, _ := model.NewNumber(s.B)
	kind := map[string]model.NumberPredKind{
		"eq":      model.NumberEqual,
		"between": model.NumberBetween,
		"gt":      model.NumberGreaterThan,
		"gte":     model.NumberGreaterOrEqual,
		"lt":      model.NumberLessThan,
		"lte":     model.NumberLessOrEqual,
	}[s.Op]
	return model.NumberPred{Kind: kind, A: a, B: b}
}

// FilterSpec is the JSON form of a model.FieldFilter: exactly one of
// Number/Bool is populated, selecting the filter kind for that field.
type FilterSpec struct {
	Number *NumberFilterSpec `json:"number,omitempty"`
	Bool   *bool             `json:"bool,omitempty"`
}

func (s FilterSpec) toFieldFilter() model.FieldFilter {
	var f model.FieldFilter
	if s.Number != nil {
		pred := s.Number.toPred()
		f.Number = &pred
	}
	if s.Bool != nil {
		f.Bool = &model.BoolPred{Value: *s.Bool}
	}
	return f
}

// NumberRangeSpec is one bucket of a NumberFacetSpec.
type NumberRangeSpec struct {
	From float64 `json:"from"`
	To   float64 `json:"to"`
}

// NumberFacetSpec is the JSON form of a model.NumberFacet.
type NumberFacetSpec struct {
	Ranges []NumberRangeSpec `json:"ranges"`
}

// FacetSpec is the JSON form of a model.FacetRequest.
type FacetSpec struct {
	Number *NumberFacetSpec `json:"number,omitempty"`
	Bool   bool             `json:"bool,omitempty"`
}

func (s FacetSpec) toFacetRequest() model.FacetRequest {
	var f model.FacetRequest
	if s.Number != nil {
		ranges := make([]model.NumberFacetRange, len(s.Number.Ranges))
		for i, r := range s.Number.Ranges {
			from, _ := model.NewNumber(r.From)
			to, _ := model.NewNumber(r.To)
			ranges[i] = model.NumberFacetRange{From: from, To: to}
		}
		f.Number = &model.NumberFacet{Ranges: ranges}
	}
	if s.Bool {
		f.Bool = &model.BoolFacet{}
	}
	return f
}

// SearchRequest is the body of POST /collections/:id/_search.
type SearchRequest struct {
	Mode       string                `json:"mode,omitempty"` // fulltext (default) | vector | hybrid
	Term       string                `json:"term" binding:"required"`
	Properties *PropertiesSpec       `json:"properties,omitempty"`
	Boost      float32               `json:"boost,omitempty"`
	Limit      int                   `json:"limit,omitempty"`
	Filter     map[string]FilterSpec `json:"filter,omitempty"`
	Facets     map[string]FacetSpec  `json:"facets,omitempty"`
}

// PropertiesSpec selects which text fields a fulltext/hybrid query reads.
type PropertiesSpec struct {
	Star   bool     `json:"star,omitempty"`
	Fields []string `json:"fields,omitempty"`
}

func (r SearchRequest) toSearchParams() model.SearchParams {
	params := model.SearchParams{
		Mode:  searchModeFromString(r.Mode),
		Term:  r.Term,
		Boost: r.Boost,
		Limit: r.Limit,
	}
	if r.Properties != nil {
		params.Properties = model.PropertiesSelector{Star: r.Properties.Star, Fields: r.Properties.Fields}
	} else {
		params.Properties = model.PropertiesSelector{Star: true}
	}
	if len(r.Filter) > 0 {
		params.Filter = make(map[string]model.FieldFilter, len(r.Filter))
		for name, spec := range r.Filter {
			params.Filter[name] = spec.toFieldFilter()
		}
	}
	if len(r.Facets) > 0 {
		params.Facets = make(map[string]model.FacetRequest, len(r.Facets))
		for name, spec := range r.Facets {
			params.Facets[name] = spec.toFacetRequest()
		}
	}
	return params
}
