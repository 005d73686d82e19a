package ledger

import (
	"bufio"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"NewsRadar/internal/domain"
	"NewsRadar/internal/ports"
)

const (
	seenDirName = "seen"
	sentDirName = "sent"

	// Ledger lines carrying embeddings run to tens of kilobytes; the scanner
	// buffer must accommodate them.
	maxLineBytes = 4 * 1024 * 1024
)

// ComputeIdentifier derives the dedup key for an article from its URL:
// an md5 digest, hex encoded. Same URL, same identifier, always.
func ComputeIdentifier(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Store keeps the append-only per-source JSONL logs under
// <dir>/seen/<sourceId>.jsonl and <dir>/sent/<sourceId>.jsonl.
// Files are opened and closed per operation; a missing file is normal empty
// state and a corrupt line is skipped, never fatal.
type Store struct {
	dir    string
	logger *slog.Logger
	now    func() time.Time
}

var _ ports.Ledger = (*Store)(nil)

// New creates the ledger directories and returns a store rooted at dir.
func New(dir string, logger *slog.Logger) (*Store, error) {
	for _, sub := range []string{seenDirName, sentDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir %s: %w", sub, err)
		}
	}
	return &Store{dir: dir, logger: logger, now: time.Now}, nil
}

func (s *Store) seenPath(sourceID string) string {
	return filepath.Join(s.dir, seenDirName, sourceID+".jsonl")
}

func (s *Store) sentPath(sourceID string) string {
	return filepath.Join(s.dir, sentDirName, sourceID+".jsonl")
}

// RecordSeen appends the article, embedding included if present, to the
// source's seen log.
func (s *Store) RecordSeen(article domain.CleanArticle) error {
	return s.append(s.seenPath(article.SourceID), domain.LedgerEntry{CleanArticle: article})
}

// RecordSent appends the article to the source's sent log, stamped with the
// delivery time.
func (s *Store) RecordSent(article domain.CleanArticle) error {
	entry := domain.LedgerEntry{
		CleanArticle: article,
		SentAt:       s.now().UTC().Format(time.RFC3339),
	}
	return s.append(s.sentPath(article.SourceID), entry)
}

func (s *Store) append(path string, entry domain.LedgerEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal ledger entry %s: %w", entry.ID, err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger %s: %w", path, err)
	}

	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return fmt.Errorf("append ledger %s: %w", path, err)
	}
	return f.Close()
}

// WasSeen reports whether any entry in the source's seen log carries the
// identifier. Seen state never expires.
func (s *Store) WasSeen(sourceID, id string) bool {
	found := false
	s.scan(s.seenPath(sourceID), func(entry domain.LedgerEntry) bool {
		if entry.ID == id {
			found = true
			return false
		}
		return true
	})
	return found
}

// WasSentRecently reports whether the source's sent log holds an entry with
// the identifier delivered within the last maxAgeDays. The boundary at
// exactly maxAgeDays is inclusive.
func (s *Store) WasSentRecently(sourceID, id string, maxAgeDays int) bool {
	cutoff := s.now().UTC().AddDate(0, 0, -maxAgeDays)
	found := false
	s.scan(s.sentPath(sourceID), func(entry domain.LedgerEntry) bool {
		if entry.ID != id || entry.SentAt == "" {
			return true
		}
		sentAt, err := time.Parse(time.RFC3339, entry.SentAt)
		if err != nil {
			return true
		}
		if !sentAt.Before(cutoff) {
			found = true
			return false
		}
		return true
	})
	return found
}

// LoadEmbeddingsForSource returns every embedding present in the source's
// sent log, in log order. A missing file yields an empty result.
func (s *Store) LoadEmbeddingsForSource(sourceID string) [][]float32 {
	var vectors [][]float32
	s.scan(s.sentPath(sourceID), func(entry domain.LedgerEntry) bool {
		if len(entry.Embedding) > 0 {
			vectors = append(vectors, entry.Embedding)
		}
		return true
	})
	return vectors
}

// scan streams well-formed entries from one log file to visit, stopping early
// when visit returns false. Malformed lines are logged and skipped so one
// corrupt line never hides the rest of the file.
func (s *Store) scan(path string, visit func(domain.LedgerEntry) bool) {
	f, err := os.Open(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) && s.logger != nil {
			s.logger.Warn("ledger open failed", "path", path, "error", err)
		}
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var entry domain.LedgerEntry
		if err := json.Unmarshal(line, &entry); err != nil {
			if s.logger != nil {
				s.logger.Warn("skipping corrupt ledger line", "path", path, "error", err)
			}
			continue
		}
		if !visit(entry) {
			return
		}
	}
	if err := scanner.Err(); err != nil && s.logger != nil {
		s.logger.Warn("ledger scan aborted", "path", path, "error", err)
	}
}
