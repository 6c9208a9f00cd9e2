package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var ErrNotFound = errors.New("run not found")

const readCacheSize = 512

// Store dispatches to a JSON file or a Postgres database depending on
// how it was constructed. The DB path keeps a small LRU of records,
// invalidated on write.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]Record

	schemaOnce sync.Once
	schemaErr  error

	recordCache *lru.Cache[string, Record]
}

// New opens a file-backed store at path. The file is created on first
// write.
func New(path string) *Store {
	return &Store{
		path: strings.TrimSpace(path),
		byID: make(map[string]Record),
	}
}

// NewPostgres connects to the given DSN and verifies the connection.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, Record](readCacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, recordCache: cache}, nil
}

// NewFromEnv prefers Postgres when RUN_STORE_PG_DSN is set and
// reachable, falling back to the file store at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("RUN_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the backend is reachable. The file backend is always
// considered reachable once its directory exists.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("run store is not configured")
	}
	if s.db != nil {
		return s.db.PingContext(ctx)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, rec Record) error {
	if s == nil {
		return fmt.Errorf("run store is not configured")
	}
	rec = normalizeRecord(rec)
	if rec.ID == "" {
		return fmt.Errorf("run id is required")
	}
	if s.db != nil {
		if err := s.putDB(ctx, rec); err != nil {
			return err
		}
		if s.recordCache != nil {
			s.recordCache.Remove(rec.ID)
		}
		return nil
	}
	return s.putFile(rec)
}

func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("run store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, fmt.Errorf("run id is required")
	}
	if s.db != nil {
		if s.recordCache != nil {
			if cached, ok := s.recordCache.Get(id); ok {
				return cached, nil
			}
		}
		rec, err := s.getDB(ctx, id)
		if err != nil {
			return Record{}, err
		}
		if s.recordCache != nil {
			s.recordCache.Add(id, rec)
		}
		return rec, nil
	}
	return s.getFile(id)
}

// List returns all records, newest first.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("run store is not configured")
	}
	if s.db != nil {
		return s.listDB(ctx)
	}
	return s.listFile()
}

// Update applies a mutation to an existing record under the store's
// write lock (file) or a row lock (Postgres).
func (s *Store) Update(ctx context.Context, id string, mutate func(*Record)) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("run store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, fmt.Errorf("run id is required")
	}
	if s.db != nil {
		rec, err := s.updateDB(ctx, id, mutate)
		if err != nil {
			return Record{}, err
		}
		if s.recordCache != nil {
			s.recordCache.Remove(id)
		}
		return rec, nil
	}
	return s.updateFile(id, mutate)
}
