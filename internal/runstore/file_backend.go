package runstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []Record
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			row = normalizeRecord(row)
			if row.ID == "" {
				continue
			}
			s.byID[row.ID] = row
		}
	})
}

// flushFile writes the whole record set atomically: temp file in the
// same directory, then rename.
func (s *Store) flushFile() error {
	if s.path == "" {
		return fmt.Errorf("run store path is required")
	}
	s.mu.RLock()
	rows := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		rows = append(rows, rec)
	}
	s.mu.RUnlock()
	sortRecords(rows)

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".runs-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *Store) putFile(rec Record) error {
	s.ensureLoadedFile()
	rec.UpdatedAt = time.Now().UTC()
	s.mu.Lock()
	s.byID[rec.ID] = rec
	s.mu.Unlock()
	return s.flushFile()
}

func (s *Store) getFile(id string) (Record, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	rec, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

func (s *Store) listFile() ([]Record, error) {
	s.ensureLoadedFile()
	s.mu.RLock()
	rows := make([]Record, 0, len(s.byID))
	for _, rec := range s.byID {
		rows = append(rows, rec)
	}
	s.mu.RUnlock()
	sortRecords(rows)
	return rows, nil
}

func (s *Store) updateFile(id string, mutate func(*Record)) (Record, error) {
	s.ensureLoadedFile()
	s.mu.Lock()
	rec, ok := s.byID[id]
	if !ok {
		s.mu.Unlock()
		return Record{}, ErrNotFound
	}
	mutate(&rec)
	rec.ID = id
	rec = normalizeRecord(rec)
	rec.UpdatedAt = time.Now().UTC()
	s.byID[id] = rec
	s.mu.Unlock()
	if err := s.flushFile(); err != nil {
		return Record{}, err
	}
	return rec, nil
}
