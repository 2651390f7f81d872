package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/tuidosync/internal/filex"
)

// syncState remembers the server time of the last push or pull. It lives
// next to the data file as "<data file>.sync".
type syncState struct {
	LastSync string `json:"last_sync"`
}

func statePath(dataFile string) string {
	return dataFile + ".sync"
}

// loadLastSync returns the zero time when the data file was never synced.
func loadLastSync(dataFile string) (time.Time, error) {
	raw, err := os.ReadFile(statePath(dataFile))
	if errors.Is(err, os.ErrNotExist) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, err
	}

	var st syncState
	if err := json.Unmarshal(raw, &st); err != nil {
		return time.Time{}, fmt.Errorf("read sync state: %w", err)
	}
	if st.LastSync == "" {
		return time.Time{}, nil
	}
	return parseServerTime(st.LastSync)
}

func saveLastSync(dataFile, lastSync string) error {
	raw, err := json.Marshal(syncState{LastSync: lastSync})
	if err != nil {
		return err
	}
	return writeAtomic(statePath(dataFile), raw)
}

func parseServerTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("unable to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// writeAtomic replaces path through a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	if err := filex.EnsureParentDir(path); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tuidosync-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
