// Package snapshot writes the per-run output files: the full fetched set and
// the selected top articles, as newline-delimited JSON named by run
// timestamp. Embeddings are always stripped before writing.
package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const (
	rawDirName   = "raw"
	cleanDirName = "clean"

	// run timestamp at minute granularity
	stampLayout = "2006-01-02-1504"
)

// Writer persists run snapshots under <dir>/raw and <dir>/clean.
type Writer struct {
	dir string
}

var _ ports.SnapshotWriter = (*Writer)(nil)

// NewWriter creates the snapshot directories rooted at dir.
func NewWriter(dir string) (*Writer, error) {
	for _, sub := range []string{rawDirName, cleanDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir %s: %w", sub, err)
		}
	}
	return &Writer{dir: dir}, nil
}

// WriteRaw stores the full pre-cap, pre-score fetched set.
func (w *Writer) WriteRaw(stamp time.Time, articles []domain.CleanArticle) (string, error) {
	return w.write(rawDirName, stamp, articles)
}

// WriteClean stores the selected top-N set.
func (w *Writer) WriteClean(stamp time.Time, articles []domain.CleanArticle) (string, error) {
	return w.write(cleanDirName, stamp, articles)
}

func (w *Writer) write(sub string, stamp time.Time, articles []domain.CleanArticle) (string, error) {
	var buf bytes.Buffer
	for _, art := range articles {
		line, err := json.Marshal(art.StripEmbedding())
		if err != nil {
			return "", fmt.Errorf("marshal article %s: %w", art.ID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}

	path := filepath.Join(w.dir, sub, stamp.Format(stampLayout)+".jsonl")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return path, nil
}
