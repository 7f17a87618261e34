package committed

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/golang/snappy"
)

const (
	trueSetFileName  = "true_set.bin"
	falseSetFileName = "false_set.bin"
)

// BoolField is a committed Bool field's on-disk index: two roaring
// bitmaps, per spec §4.4.
type BoolField struct {
	trueDocs  *roaring.Bitmap
	falseDocs *roaring.Bitmap
}

// BuildBoolField writes a brand-new committed generation from the
// uncommitted tier's true/false sets.
func BuildBoolField(dir string, trueDocs, falseDocs *roaring.Bitmap) (*BoolField, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("committed: create bool field dir %s: %w", dir, err)
	}
	if err := saveBitmap(filepath.Join(dir, trueSetFileName), trueDocs); err != nil {
		return nil, err
	}
	if err := saveBitmap(filepath.Join(dir, falseSetFileName), falseDocs); err != nil {
		return nil, err
	}
	return &BoolField{trueDocs: trueDocs.Clone(), falseDocs: falseDocs.Clone()}, nil
}

// MergeBoolField unions newTrue/newFalse on top of prev's sets (new
// documents reindexing an existing document's value are moved the same
// way the uncommitted tier moves them, so P5 holds across commits too),
// writing the result as a new generation.
func MergeBoolField(dir string, prev *BoolField, newTrue, newFalse *roaring.Bitmap) (*BoolField, error) {
	mergedTrue := prev.trueDocs.Clone()
	mergedFalse := prev.falseDocs.Clone()

	mergedFalse.AndNot(newTrue)
	mergedTrue.Or(newTrue)
	mergedTrue.AndNot(newFalse)
	mergedFalse.Or(newFalse)

	return BuildBoolField(dir, mergedTrue, mergedFalse)
}

// LoadBoolField reopens a committed generation from dir.
func LoadBoolField(dir string) (*BoolField, error) {
	trueDocs, err := loadBitmap(filepath.Join(dir, trueSetFileName))
	if err != nil {
		return nil, err
	}
	falseDocs, err := loadBitmap(filepath.Join(dir, falseSetFileName))
	if err != nil {
		return nil, err
	}
	return &BoolField{trueDocs: trueDocs, falseDocs: falseDocs}, nil
}

// Filter returns the matching set for value.
func (f *BoolField) Filter(value bool) *roaring.Bitmap {
	if value {
		return f.trueDocs.Clone()
	}
	return f.falseDocs.Clone()
}

func saveBitmap(path string, bitmap *roaring.Bitmap) error {
	raw, err := bitmap.ToBytes()
	if err != nil {
		return fmt.Errorf("committed: serialize bitmap %s: %w", path, err)
	}
	compressed := snappy.Encode(nil, raw)
	if err := os.WriteFile(path, compressed, 0640); err != nil { // #nosec G306 -- data dir is application-controlled
		return fmt.Errorf("committed: write bitmap %s: %w", path, err)
	}
	return nil
}

func loadBitmap(path string) (*roaring.Bitmap, error) {
	compressed, err := os.ReadFile(path) // #nosec G304 -- path is application-controlled
	if err != nil {
		return nil, fmt.Errorf("committed: read bitmap %s: %w", path, err)
	}
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("committed: decompress bitmap %s: %w", path, err)
	}
	bitmap := roaring.New()
	if _, err := bitmap.FromBuffer(raw); err != nil {
		return nil, fmt.Errorf("committed: decode bitmap %s: %w", path, err)
	}
	return bitmap, nil
}
