package analysis

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"refinery/internal/safeio"
)

// previewBytes bounds how much of each data file is surfaced to the
// analyzer collaborator.
const previewBytes = 1000

var dataExtensions = map[string]bool{
	".csv":  true,
	".json": true,
	".txt":  true,
	".xlsx": true,
}

// DataFile is one work-area data file with its bounded head preview.
type DataFile struct {
	Name    string
	Preview string
}

// CollectPreviews scans the root of the confined work area for data files
// and reads a head preview of each. Unreadable files are skipped; an
// empty work area yields an empty slice, not an error.
func CollectPreviews(fsys *safeio.SafeFS) ([]DataFile, error) {
	entries, err := fsys.SafeReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("scan data dir: %w", err)
	}
	var files []DataFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !dataExtensions[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		f, err := fsys.SafeOpen(name)
		if err != nil {
			continue
		}
		head := make([]byte, previewBytes)
		n, _ := io.ReadFull(f, head)
		f.Close()
		files = append(files, DataFile{Name: name, Preview: string(head[:n])})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// RenderDescriptions joins per-file analyzer descriptions into the single
// immutable data-description text carried by the analysis loop.
func RenderDescriptions(described map[string]string) string {
	names := make([]string, 0, len(described))
	for name := range described {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "File: %s\n%s", name, described[name])
	}
	return b.String()
}
