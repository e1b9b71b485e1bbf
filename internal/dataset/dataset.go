// Package dataset builds batch reference lists from a dataset file or a directory.
package dataset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Lllllllleong/pdfdigest/internal/models"
)

// Load reads a JSON object mapping entry names to document URLs, e.g.
//
//	{"pdf1": "https://example.com/a.pdf", "pdf2": "gs://bucket/b.pdf"}
//
// References are returned sorted by entry name. Blank URLs are skipped and
// repeated URLs are kept once.
func Load(path string) ([]models.Reference, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	var entries map[string]string
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse dataset %s: %w", path, err)
	}

	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	seen := make(map[string]struct{}, len(entries))
	refs := make([]models.Reference, 0, len(entries))
	for _, k := range keys {
		u := strings.TrimSpace(entries[k])
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		refs = append(refs, models.Reference{Name: u, Origin: models.OriginRemote})
	}
	return refs, nil
}

// ScanDir returns a local reference for every .pdf file directly inside dir.
func ScanDir(dir string) ([]models.Reference, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	var refs []models.Reference
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".pdf") {
			continue
		}
		refs = append(refs, models.Reference{Name: filepath.Join(dir, e.Name()), Origin: models.OriginLocal})
	}
	return refs, nil
}
