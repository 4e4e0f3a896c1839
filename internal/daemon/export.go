package daemon

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fakeyudi/tomatod/internal/render"
)

// writeExport overwrites the status-bar payload file with one JSON
// object. Plain overwrite is enough here: the consumer re-reads the
// whole file and there is exactly one writer.
func writeExport(path string, payload render.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling export payload: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing export file: %w", err)
	}
	return nil
}
