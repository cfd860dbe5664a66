// Package file persists the routing state as a single JSON document,
// replaced atomically on every save.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/natefinch/atomic"

	"github.com/Kumatsegayie/nunersupportbot/internal/models"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load reads the snapshot document. A missing file is normal first-run state
// and yields an empty snapshot with no error. An unparsable file also yields
// an empty snapshot, with a non-nil error the caller may log: startup faults
// are never fatal.
func (s *Store) Load(_ context.Context) (*models.Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewSnapshot(), nil
		}
		return models.NewSnapshot(), fmt.Errorf("read state file: %w", err)
	}

	snap := models.NewSnapshot()
	if err := json.Unmarshal(b, snap); err != nil {
		return models.NewSnapshot(), fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return snap, nil
}

func (s *Store) Save(_ context.Context, snap *models.Snapshot) error {
	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(b)); err != nil {
		return fmt.Errorf("write state file %s: %w", s.path, err)
	}
	return nil
}
