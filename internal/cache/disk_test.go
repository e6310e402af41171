package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/izv-data/internal/accident"
)

func sampleDataset() *accident.Dataset {
	ds := accident.NewDataset()
	ds.Columns["p1"] = accident.TextColumn{"a", "b"}
	ds.Columns["p36"] = accident.Int32Column{1, -1}
	ds.Columns["d"] = accident.Float32Column{3.14, -1}
	ds.Columns["p2a"] = accident.DateColumn{
		time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2021, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	ds.Columns["p37"] = accident.TextColumn{"1", "x"}
	ds.Failed["p37"] = "parse int32"
	ds.Columns[accident.RegionField] = accident.TextColumn{"PHA", "PHA"}
	return ds
}

func TestDiskPath(t *testing.T) {
	d := NewDisk("/tmp/izv", "data_{region}.gob.gz")
	assert.Equal(t, filepath.Join("/tmp/izv", "data_JHM.gob.gz"), d.Path("JHM"))
}

func TestDiskLoad_Missing(t *testing.T) {
	d := NewDisk(t.TempDir(), "data_{region}.gob.gz")

	ds, ok, err := d.Load("PHA")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, ds)
	assert.False(t, d.Exists("PHA"))
}

func TestDiskSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")
	d := NewDisk(dir, "data_{region}.gob.gz")

	in := sampleDataset()
	require.NoError(t, d.Save("PHA", in))
	assert.True(t, d.Exists("PHA"))

	out, ok, err := d.Load("PHA")
	require.NoError(t, err)
	require.True(t, ok)

	assert.Equal(t, in.Columns, out.Columns)
	assert.Equal(t, in.Failed, out.Failed)
	assert.Equal(t, 2, out.Len())
	require.NoError(t, out.Validate())

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "data_PHA.gob.gz", entries[0].Name())
}

func TestDiskSave_Overwrites(t *testing.T) {
	d := NewDisk(t.TempDir(), "data_{region}.gob.gz")
	require.NoError(t, d.Save("STC", sampleDataset()))

	small := accident.NewDataset()
	small.Columns[accident.RegionField] = accident.TextColumn{"STC"}
	require.NoError(t, d.Save("STC", small))

	out, ok, err := d.Load("STC")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, out.Len())
	assert.NotNil(t, out.Failed)
}

func TestDiskLoad_Corrupt(t *testing.T) {
	dir := t.TempDir()
	d := NewDisk(dir, "data_{region}.gob.gz")
	require.NoError(t, os.WriteFile(d.Path("KVK"), []byte("not gzip"), 0o644))

	_, ok, err := d.Load("KVK")
	require.Error(t, err)
	assert.False(t, ok)
	assert.Contains(t, err.Error(), "cache: gzip reader KVK")
}
