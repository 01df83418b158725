// Package storage persists the portfolio state as pretty-printed JSON.
// Saves use a write-sync-rename sequence so a crash mid-write can never
// leave a truncated state file behind.
package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/RJDCTM/autotrader/internal/models"
)

// SchemaVersion is the current state-file schema.
const SchemaVersion = "2.0"

// Load reads the portfolio state from path. A missing file is not an
// error: a fresh default state is created and saved so the next load
// finds it.
func Load(path string) (models.PortfolioState, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("state file missing, creating default", "path", path)
		s := defaultState()
		if err := Save(path, s); err != nil {
			return s, err
		}
		return s, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return models.PortfolioState{}, err
	}

	var s models.PortfolioState
	if err := json.Unmarshal(b, &s); err != nil {
		return models.PortfolioState{}, fmt.Errorf("corrupt state file %s: %w", path, err)
	}

	if migrate(&s) {
		slog.Info("state schema migrated", "version", s.Version)
		if err := Save(path, s); err != nil {
			return s, err
		}
	}
	return s, nil
}

func defaultState() models.PortfolioState {
	return models.PortfolioState{
		Version:   SchemaVersion,
		Positions: make(map[string]*models.Position),
	}
}

// migrate backfills fields older schema versions did not carry. Returns
// true when the state changed and needs a save.
func migrate(s *models.PortfolioState) bool {
	updated := false

	if s.Positions == nil {
		s.Positions = make(map[string]*models.Position)
		updated = true
	}

	// 1.x files predate peak tracking; seed peaks from entry so the
	// ratchet starts from a sane floor instead of zero.
	if s.Version < SchemaVersion {
		for _, p := range s.Positions {
			if p.PeakPrice.IsZero() {
				p.PeakPrice = p.EntryPrice
			}
		}
		s.Version = SchemaVersion
		updated = true
	}
	return updated
}

// Save writes the state atomically: temp file in the same directory,
// sync, then rename over the destination.
func Save(path string, s models.PortfolioState) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	if _, err := f.Write(b); err != nil {
		f.Close()
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("sync temp state file: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
