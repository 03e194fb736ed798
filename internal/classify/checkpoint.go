// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// checkpointState is the on-disk shape of the progress marker: a single
// non-negative integer counting source-list positions already attempted.
// Per prd002-classification R3.1.
type checkpointState struct {
	Checkpoint int `json:"checkpoint"`
}

// LoadCheckpoint reads the progress marker from path. A missing file means
// no prior run and returns 0. A file that exists but cannot be parsed, or
// that holds a negative value, is corrupt state and aborts the run rather
// than silently reclassifying from zero (R3.4).
func LoadCheckpoint(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading checkpoint %s: %w", path, err)
	}

	var state checkpointState
	if err := json.Unmarshal(data, &state); err != nil {
		return 0, fmt.Errorf("corrupt checkpoint %s: %w", path, err)
	}
	if state.Checkpoint < 0 {
		return 0, fmt.Errorf("corrupt checkpoint %s: negative value %d", path, state.Checkpoint)
	}
	return state.Checkpoint, nil
}

// SaveCheckpoint overwrites the progress marker with n. The file is
// written to a temporary path and renamed so a crash mid-save leaves the
// previous marker intact; last save wins (R3.2, R3.3).
func SaveCheckpoint(path string, n int) error {
	data, err := json.Marshal(checkpointState{Checkpoint: n})
	if err != nil {
		return fmt.Errorf("marshaling checkpoint: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating checkpoint directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, writeErr := tmpFile.Write(data)
	closeErr := tmpFile.Close()
	if writeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing checkpoint: %w", writeErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
