// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/vgccalc/vgccalc/pkg/core"
)

const exportVersion = 1

// CacheExport is the root JSON structure of a memory backend export
type CacheExport struct {
	Version    int                  `json:"version"`
	ExportedAt time.Time            `json:"exportedAt"`
	Species    []core.Species       `json:"species"`
	Moves      []core.MoveData      `json:"moves"`
	Usage      []core.UsageSnapshot `json:"usage"`
	Teams      []core.Team          `json:"teams"`
}

func (b *Backend) exportPath() string {
	if b.cfg.CompressOutput {
		return filepath.Join(b.cfg.OutputDir, "vgccalc-cache.json.gz")
	}
	return filepath.Join(b.cfg.OutputDir, "vgccalc-cache.json")
}

// exportJSON writes the cache to OutputDir. Callers hold the lock.
func (b *Backend) exportJSON() error {
	export := b.buildExport()
	outputPath := b.exportPath()

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() CacheExport {
	export := CacheExport{
		Version:    exportVersion,
		ExportedAt: time.Now().UTC(),
		Species:    make([]core.Species, 0, len(b.species)),
		Moves:      make([]core.MoveData, 0, len(b.moves)),
		Usage:      make([]core.UsageSnapshot, 0, len(b.snapshots)),
		Teams:      make([]core.Team, 0, len(b.teams)),
	}
	for _, s := range b.species {
		export.Species = append(export.Species, s)
	}
	for _, m := range b.moves {
		export.Moves = append(export.Moves, m)
	}
	for _, s := range b.snapshots {
		export.Usage = append(export.Usage, s)
	}
	for _, t := range b.teams {
		export.Teams = append(export.Teams, t)
	}
	return export
}

// importJSON loads a previous export. A missing file is not an error.
func (b *Backend) importJSON() error {
	path := b.exportPath()
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open export: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if b.cfg.CompressOutput {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to read gzip export: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	var export CacheExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return fmt.Errorf("failed to decode export %s: %w", path, err)
	}
	if export.Version != exportVersion {
		return fmt.Errorf("export %s has version %d, want %d", path, export.Version, exportVersion)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, s := range export.Species {
		b.species[s.ID] = s
	}
	for _, m := range export.Moves {
		b.moves[m.ID] = m
	}
	for _, s := range export.Usage {
		b.snapshots[usageKey{s.Format, s.Month, s.Elo}] = s
		b.idCounter = max(b.idCounter, s.ID)
	}
	for _, t := range export.Teams {
		b.teams[t.TeamID] = t
		b.idCounter = max(b.idCounter, t.ID)
	}
	return nil
}

func writeJSON(path string, data CacheExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	return encoder.Encode(data)
}

func writeGzipJSON(path string, data CacheExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	gzWriter := gzip.NewWriter(f)
	defer gzWriter.Close()

	encoder := json.NewEncoder(gzWriter)
	return encoder.Encode(data)
}
