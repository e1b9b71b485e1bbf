package dataset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Lllllllleong/pdfdigest/internal/dataset"
	"github.com/Lllllllleong/pdfdigest/internal/models"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Dataset.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"pdf2": "https://example.com/b.pdf",
		"pdf1": "https://example.com/a.pdf",
		"pdf3": " ",
		"pdf4": "https://example.com/a.pdf"
	}`), 0o600))

	refs, err := dataset.Load(path)
	require.NoError(t, err)
	require.Equal(t, []models.Reference{
		{Name: "https://example.com/a.pdf", Origin: models.OriginRemote},
		{Name: "https://example.com/b.pdf", Origin: models.OriginRemote},
	}, refs)
}

func TestLoadErrors(t *testing.T) {
	_, err := dataset.Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o600))
	_, err = dataset.Load(path)
	require.Error(t, err)
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "B.PDF", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755))

	refs, err := dataset.ScanDir(dir)
	require.NoError(t, err)
	require.Len(t, refs, 2)
	for _, ref := range refs {
		require.Equal(t, models.OriginLocal, ref.Origin)
	}
	require.Equal(t, filepath.Join(dir, "B.PDF"), refs[0].Name)
	require.Equal(t, filepath.Join(dir, "a.pdf"), refs[1].Name)
}
