package persistence

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/golang/snappy"
)

// SaveSnappyGob gob-encodes object, snappy-compresses the result, and
// writes it to filePath. Used for the page and posting-list binary files,
// which are written once and read many times by range scans.
func SaveSnappyGob(filePath string, object interface{}) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(object); err != nil {
		return fmt.Errorf("failed to gob encode for %s: %w", filePath, err)
	}

	compressed := snappy.Encode(nil, buf.Bytes())
	if err := os.WriteFile(filePath, compressed, 0640); err != nil { // #nosec G306 -- data dir is application-controlled
		return fmt.Errorf("failed to write file %s: %w", filePath, err)
	}
	return nil
}

// LoadSnappyGob reads, snappy-decompresses, and gob-decodes filePath into
// objectPointer. Returns os.ErrNotExist if the file is missing.
func LoadSnappyGob(filePath string, objectPointer interface{}) error {
	raw, err := os.ReadFile(filePath) // #nosec G304 -- filePath is controlled by application, not user input
	if err != nil {
		if os.IsNotExist(err) {
			return os.ErrNotExist
		}
		return fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	decompressed, err := snappy.Decode(nil, raw)
	if err != nil {
		return fmt.Errorf("failed to snappy-decode file %s: %w", filePath, err)
	}

	decoder := gob.NewDecoder(bytes.NewReader(decompressed))
	if err := decoder.Decode(objectPointer); err != nil && err != io.EOF {
		return fmt.Errorf("failed to gob decode file %s: %w", filePath, err)
	}
	return nil
}
