package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"

	applog "brainvoice/internal/log"
)

// fileData is the on-disk document: {"summaries": [...]}.
type fileData struct {
	Summaries []Record `json:"summaries"`
}

// FileStore keeps summaries in memory and mirrors them to a JSON file.
// Persistence is best effort: a failed write is logged and the record
// stays in memory.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records []Record
	logger  zerolog.Logger
}

// NewFileStore loads path if it exists. A missing or unreadable file
// starts an empty store.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path:   path,
		logger: applog.WithComponent("summary"),
	}
	s.load()
	return s
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error().Err(err).Str("path", s.path).Msg("failed to load user data")
		}
		return
	}
	var doc fileData
	if err := json.Unmarshal(data, &doc); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to load user data")
		return
	}
	s.records = doc.Summaries
}

func (s *FileStore) List(_ context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *FileStore) Append(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	if err := s.save(); err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("failed to save user data")
	}
	return nil
}

// save must be called with mu held.
func (s *FileStore) save() error {
	doc := fileData{Summaries: s.records}
	if doc.Summaries == nil {
		doc.Summaries = []Record{}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	pending, err := renameio.NewPendingFile(s.path, renameio.WithPermissions(0o600))
	if err != nil {
		return fmt.Errorf("create pending file: %w", err)
	}
	defer func() {
		if err := pending.Cleanup(); err != nil {
			s.logger.Debug().Err(err).Msg("cleanup pending file")
		}
	}()

	if _, err := pending.Write(data); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("replace summaries file: %w", err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }
