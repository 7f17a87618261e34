// Package fusion implements the hybrid-search score combination (spec
// §2 component 12, §4.7 step 3c): independent min-max normalization of the
// full-text and vector branches, then a per-document sum.
package fusion

import "github.com/gcbaptista/docretrieval/model"

// MinMax normalizes scores into [0, 1] using the map's own min and max. A
// map with a single distinct value (including the empty map) normalizes to
// all zeros, since there is no spread to scale against.
func MinMax(scores map[model.DocumentId]float32) map[model.DocumentId]float32 {
	out := make(map[model.DocumentId]float32, len(scores))
	if len(scores) == 0 {
		return out
	}

	min, max := jointMinMax(scores)
	spread := max - min
	for id, score := range scores {
		if spread == 0 {
			out[id] = 0
			continue
		}
		out[id] = (score - min) / spread
	}
	return out
}

// jointMinMax returns the min and max value across scores, per spec §4.7
// ("min–max normalize each map independently (using the joint min and
// max)").
func jointMinMax(scores map[model.DocumentId]float32) (min, max float32) {
	first := true
	for _, score := range scores {
		if first {
			min, max = score, score
			first = false
			continue
		}
		if score < min {
			min = score
		}
		if score > max {
			max = score
		}
	}
	return min, max
}

// Sum adds two normalized score maps per document, keeping every document
// that appears in either. This is the hybrid fusion rule from spec §4.7:
// "sum of vector+fulltext scores" after independent normalization, so a
// document scored on both branches lands in [0, 2].
func Sum(a, b map[model.DocumentId]float32) map[model.DocumentId]float32 {
	out := make(map[model.DocumentId]float32, len(a)+len(b))
	for id, score := range a {
		out[id] += score
	}
	for id, score := range b {
		out[id] += score
	}
	return out
}

// Hybrid runs MinMax on both branches independently and sums the results,
// matching spec §4.7's Hybrid dispatch step.
func Hybrid(fullText, vector map[model.DocumentId]float32) map[model.DocumentId]float32 {
	return Sum(MinMax(fullText), MinMax(vector))
}
