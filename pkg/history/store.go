// Package history keeps a persistent log of successful scans.
package history

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-scan/pkg/decode"
	"github.com/teslashibe/go-scan/pkg/scanner"
)

// Record is one stored scan.
type Record struct {
	ID        string         `json:"id"`
	Text      string         `json:"text"`
	Format    decode.Format  `json:"format"`
	Points    []decode.Point `json:"points,omitempty"`
	ScannedAt time.Time      `json:"scanned_at"`
}

// clone returns a copy sharing nothing with r.
func (r *Record) clone() *Record {
	c := *r
	c.Points = append([]decode.Point(nil), r.Points...)
	return &c
}

// cloneAll copies each record in recs.
func cloneAll(recs []*Record) []*Record {
	out := make([]*Record, len(recs))
	for i, r := range recs {
		out[i] = r.clone()
	}
	return out
}

// Store defines the interface for scan history storage.
type Store interface {
	// Save creates or replaces a record
	Save(rec *Record) error

	// Get retrieves a record by ID
	Get(id string) (*Record, error)

	// List returns all records, newest first
	List() ([]*Record, error)

	// Search finds records whose text contains query (case-insensitive)
	Search(query string) ([]*Record, error)

	// Delete removes a record by ID
	Delete(id string) error

	// Count returns the total number of records
	Count() int
}

// DefaultLimit is how many records a store keeps unless told otherwise.
const DefaultLimit = 500

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path    string
	limit   int
	records map[string]*Record
	mu      sync.RWMutex
	logger  *slog.Logger
}

// storeData is the JSON structure for the store file.
type storeData struct {
	Version   int       `json:"version"`
	UpdatedAt string    `json:"updated_at"`
	Records   []*Record `json:"records"`
}

const currentVersion = 1

// NewJSONStore creates a new JSON-based store at the given path.
// If the file doesn't exist, it will be created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	store := &JSONStore{
		path:    path,
		limit:   DefaultLimit,
		records: make(map[string]*Record),
		logger:  slog.Default().With("component", "history.store"),
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if err := store.load(); err != nil {
			return nil, fmt.Errorf("failed to load store: %w", err)
		}
	}

	return store, nil
}

// SetLimit caps the number of records kept; the oldest are dropped on the
// next save. Zero or less means unlimited.
func (s *JSONStore) SetLimit(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.limit = n
}

// Path returns the backing file.
func (s *JSONStore) Path() string {
	return s.path
}

func (s *JSONStore) load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var stored storeData
	if err := json.Unmarshal(data, &stored); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	s.records = make(map[string]*Record)
	for _, rec := range stored.Records {
		s.records[rec.ID] = rec
	}
	return nil
}

// save writes the store to disk. Callers hold the write lock.
func (s *JSONStore) save() error {
	records := s.sortedLocked()
	if s.limit > 0 && len(records) > s.limit {
		for _, rec := range records[s.limit:] {
			delete(s.records, rec.ID)
		}
		records = records[:s.limit]
	}

	stored := storeData{
		Version:   currentVersion,
		UpdatedAt: time.Now().Format(time.RFC3339),
		Records:   records,
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// sortedLocked returns records newest first.
func (s *JSONStore) sortedLocked() []*Record {
	records := make([]*Record, 0, len(s.records))
	for _, rec := range s.records {
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].ScannedAt.Equal(records[j].ScannedAt) {
			return records[i].ID < records[j].ID
		}
		return records[i].ScannedAt.After(records[j].ScannedAt)
	})
	return records
}

// Save creates or replaces a record.
func (s *JSONStore) Save(rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now()
	}

	s.records[rec.ID] = rec.clone()
	return s.save()
}

// Get retrieves a copy of the record with id.
func (s *JSONStore) Get(id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("record not found: %s", id)
	}
	return rec.clone(), nil
}

// List returns all records, newest first.
func (s *JSONStore) List() ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.sortedLocked()), nil
}

// Search finds records whose text contains query (case-insensitive).
func (s *JSONStore) Search(query string) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var out []*Record
	for _, rec := range s.sortedLocked() {
		if strings.Contains(strings.ToLower(rec.Text), q) {
			out = append(out, rec.clone())
		}
	}
	return out, nil
}

// Delete removes a record by ID.
func (s *JSONStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("record not found: %s", id)
	}
	delete(s.records, id)
	return s.save()
}

// Count returns the total number of records.
func (s *JSONStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// HandleResult stores a scan. It implements scanner.ResultConsumer.
func (s *JSONStore) HandleResult(scan scanner.Scan) {
	rec := &Record{
		ID:        scan.ID,
		Text:      scan.Result.Text,
		Format:    scan.Result.Format,
		Points:    scan.Result.Points,
		ScannedAt: scan.Result.DecodedAt,
	}
	if err := s.Save(rec); err != nil {
		s.logger.Error("failed to save scan", "id", scan.ID, "error", err)
	}
}
