package artifact

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileStore keeps artifacts under root/<runID>/<path> on the local
// filesystem. The default backend for CLI runs.
type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: strings.TrimSpace(root)}
}

func (s *FileStore) Put(_ context.Context, runID, path string, content []byte) error {
	full, err := s.pathFor(runID, path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	if content == nil {
		content = []byte{}
	}
	return os.WriteFile(full, content, 0o644)
}

func (s *FileStore) Get(_ context.Context, runID, path string) ([]byte, error) {
	full, err := s.pathFor(runID, path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(full)
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return b, err
}

// GetURL is unsupported for local files; callers fall back to Get.
func (s *FileStore) GetURL(context.Context, string, string) (string, error) {
	return "", nil
}

func (s *FileStore) List(_ context.Context, runID string) ([]string, error) {
	if s == nil {
		return nil, fmt.Errorf("artifact store is not configured")
	}
	root := strings.TrimSpace(s.root)
	if root == "" {
		return nil, fmt.Errorf("artifact root is required")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	if strings.Contains(runID, "..") || filepath.IsAbs(runID) {
		return nil, fmt.Errorf("invalid run id: %s", runID)
	}
	dir := filepath.Join(root, runID)
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if os.IsNotExist(err) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// pathFor resolves a run-relative key to a filesystem path, rejecting
// anything that could escape the store root.
func (s *FileStore) pathFor(runID, path string) (string, error) {
	if s == nil {
		return "", fmt.Errorf("artifact store is not configured")
	}
	root := strings.TrimSpace(s.root)
	if root == "" {
		return "", fmt.Errorf("artifact root is required")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return "", fmt.Errorf("run_id is required")
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return "", fmt.Errorf("path is required")
	}
	for _, part := range []string{runID, path} {
		if strings.Contains(part, "..") || filepath.IsAbs(part) {
			return "", fmt.Errorf("invalid artifact name: %s", part)
		}
	}
	return filepath.Join(root, runID, filepath.FromSlash(path)), nil
}
