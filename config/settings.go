// Package config provides the tunables for the retrieval engine: data
// directory layout, page sizing, BM25 parameters, commit concurrency, and
// embedding batching. Modeled on the teacher's IndexSettings: a flat struct with
// json tags and a Validate method, loaded once at startup.
package config

import "fmt"

// EngineSettings holds the engine-wide configuration for a registry of
// collections.
type EngineSettings struct {
	// DataDir is the root directory under which every collection's
	// `collections/{collection_id}/...` tree lives (spec §6).
	DataDir string `json:"data_dir"`

	// PageCapacity is the cumulative value count at which the ordered-key
	// page index closes a page (spec §4.1, default 1000).
	PageCapacity int `json:"page_capacity"`

	// PhraseGap bounds phrase sequences: adjacent, sorted query-token
	// positions whose delta is strictly less than PhraseGap count as a
	// contiguous phrase sequence, so with 1 no pair of distinct positions
	// counts
	// (spec §4.2; Open Question in spec §9 resolved in SPEC_FULL.md as an
	// engine-level constant rather than a per-query parameter).
	PhraseGap int `json:"phrase_gap"`

	// BM25K1 and BM25B are the standard BM25 term-frequency saturation and
	// length-normalization parameters (spec §4.3).
	BM25K1 float64 `json:"bm25_k1"`
	BM25B  float64 `json:"bm25_b"`

	// UncommittedDownWeight divides the uncommitted tier's contribution to
	// global BM25 statistics (document count, total length) when summed
	// with the committed tier's, per spec §9's ad-hoc fairness heuristic.
	UncommittedDownWeight float64 `json:"uncommitted_down_weight"`

	// CommitWorkers bounds how many collections may run a commit
	// concurrently (commits across collections are independent, spec §5).
	CommitWorkers int `json:"commit_workers"`

	// EmbedBatchSize and EmbedLingerMillis bound the external embedding
	// collaborator's batching (spec §5 backpressure): a batch is flushed
	// once it reaches EmbedBatchSize items or EmbedLingerMillis have
	// elapsed, whichever comes first.
	EmbedBatchSize    int `json:"embed_batch_size"`
	EmbedLingerMillis int `json:"embed_linger_millis"`
}

// DefaultSettings returns the documented defaults from spec.md.
func DefaultSettings(dataDir string) EngineSettings {
	return EngineSettings{
		DataDir:               dataDir,
		PageCapacity:          1000,
		PhraseGap:             1,
		BM25K1:                1.2,
		BM25B:                 0.75,
		UncommittedDownWeight: 10,
		CommitWorkers:         4,
		EmbedBatchSize:        64,
		EmbedLingerMillis:     50,
	}
}

// Validate checks the settings for internally-consistent values.
func (s EngineSettings) Validate() error {
	if s.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if s.PageCapacity <= 0 {
		return fmt.Errorf("config: page_capacity must be positive, got %d", s.PageCapacity)
	}
	if s.PhraseGap < 0 {
		return fmt.Errorf("config: phrase_gap must not be negative, got %d", s.PhraseGap)
	}
	if s.BM25K1 <= 0 || s.BM25B < 0 || s.BM25B > 1 {
		return fmt.Errorf("config: bm25_k1 must be positive and bm25_b in [0,1], got k1=%v b=%v", s.BM25K1, s.BM25B)
	}
	if s.UncommittedDownWeight <= 0 {
		return fmt.Errorf("config: uncommitted_down_weight must be positive, got %v", s.UncommittedDownWeight)
	}
	if s.CommitWorkers <= 0 {
		return fmt.Errorf("config: commit_workers must be positive, got %d", s.CommitWorkers)
	}
	if s.EmbedBatchSize <= 0 {
		return fmt.Errorf("config: embed_batch_size must be positive, got %d", s.EmbedBatchSize)
	}
	if s.EmbedLingerMillis < 0 {
		return fmt.Errorf("config: embed_linger_millis must not be negative, got %d", s.EmbedLingerMillis)
	}
	return nil
}
