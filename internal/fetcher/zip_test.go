package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestListZIP(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"00.csv":    "a",
		"01.csv":    "b",
		"nested/":   "",
		"CHECKSUMS": "c",
	})

	names, err := ListZIP(zipPath)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"00.csv", "01.csv", "CHECKSUMS"}, names)
}

func TestOpenZIPMember(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{
		"01.csv": "one",
		"02.csv": "two",
	})

	rc, err := OpenZIPMember(zipPath, "02.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "two", string(data))
}

func TestOpenZIPMember_NotFound(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"01.csv": "one"})

	_, err := OpenZIPMember(zipPath, "07.csv")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestOpenZIPMember_ExactNameOnly(t *testing.T) {
	zipPath := createTestZIP(t, map[string]string{"dir/01.csv": "one"})

	_, err := OpenZIPMember(zipPath, "01.csv")
	assert.ErrorIs(t, err, ErrMemberNotFound)
}

func TestOpenZIPMember_CorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	require.NoError(t, writeTestFile(path, "this is not a zip file"))

	_, err := OpenZIPMember(path, "01.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip: open archive")

	_, err = ListZIP(path)
	require.Error(t, err)
}
