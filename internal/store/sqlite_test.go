package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/izv-data/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

var _ Manifest = (*SQLiteStore)(nil)

func TestNewSQLite_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "manifest.db")
	st, err := NewSQLite(path)
	require.NoError(t, err)
	defer st.Close() //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
}

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Migrate(context.Background()))
}

// --- Archives ---

func TestSQLite_RecordAndGetArchive(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	err := st.RecordArchive(ctx, model.Archive{
		Name:         "datagis-01-2023.zip",
		URL:          "https://example.com/data/datagis-01-2023.zip",
		Month:        "01",
		Year:         "2023",
		Bytes:        1024,
		SHA256:       "abc",
		DownloadedAt: at,
	})
	require.NoError(t, err)

	a, err := st.GetArchive(ctx, "datagis-01-2023.zip")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "01", a.Month)
	assert.Equal(t, "2023", a.Year)
	assert.Equal(t, int64(1024), a.Bytes)
	assert.Equal(t, "abc", a.SHA256)
	assert.True(t, at.Equal(a.DownloadedAt))
}

func TestSQLite_GetArchive_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	a, err := st.GetArchive(context.Background(), "nope.zip")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestSQLite_RecordArchive_Upsert(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.RecordArchive(ctx, model.Archive{Name: "x.zip", URL: "u1", Bytes: 1, SHA256: "h1"}))
	require.NoError(t, st.RecordArchive(ctx, model.Archive{Name: "x.zip", URL: "u2", Bytes: 2, SHA256: "h2"}))

	all, err := st.ListArchives(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "u2", all[0].URL)
	assert.Equal(t, "h2", all[0].SHA256)
	assert.Empty(t, all[0].Month)
	assert.False(t, all[0].DownloadedAt.IsZero())
}

func TestSQLite_ListArchives_Ordered(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	for _, a := range []model.Archive{
		{Name: "datagis-rok-2022.zip", Month: "12", Year: "2022"},
		{Name: "datagis-03-2023.zip", Month: "03", Year: "2023"},
		{Name: "datagis-01-2023.zip", Month: "01", Year: "2023"},
	} {
		a.URL = "u"
		a.SHA256 = "h"
		require.NoError(t, st.RecordArchive(ctx, a))
	}

	all, err := st.ListArchives(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "datagis-rok-2022.zip", all[0].Name)
	assert.Equal(t, "datagis-01-2023.zip", all[1].Name)
	assert.Equal(t, "datagis-03-2023.zip", all[2].Name)
}

// --- Builds ---

func TestSQLite_RecordBuild_AssignsID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	b, err := st.RecordBuild(ctx, model.Build{
		Region:       "JHM",
		Source:       model.BuildSourceParse,
		Rows:         42,
		Skipped:      1,
		Archives:     3,
		FailedFields: map[string]string{"p37": "parse int32"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, b.ID)
	assert.False(t, b.BuiltAt.IsZero())

	builds, err := st.ListBuilds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, builds, 1)
	got := builds[0]
	assert.Equal(t, b.ID, got.ID)
	assert.Equal(t, "JHM", got.Region)
	assert.Equal(t, model.BuildSourceParse, got.Source)
	assert.Equal(t, 42, got.Rows)
	assert.Equal(t, 1, got.Skipped)
	assert.Equal(t, 3, got.Archives)
	assert.Equal(t, map[string]string{"p37": "parse int32"}, got.FailedFields)
}

func TestSQLite_ListBuilds_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, region := range []string{"PHA", "STC", "ULK"} {
		_, err := st.RecordBuild(ctx, model.Build{
			Region:  region,
			Source:  model.BuildSourceDisk,
			BuiltAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	builds, err := st.ListBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, builds, 2)
	assert.Equal(t, "ULK", builds[0].Region)
	assert.Equal(t, "STC", builds[1].Region)
	assert.Nil(t, builds[0].FailedFields)
}

func TestNop(t *testing.T) {
	var m Manifest = Nop{}
	ctx := context.Background()

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.RecordArchive(ctx, model.Archive{Name: "a"}))
	a, err := m.GetArchive(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, a)

	b, err := m.RecordBuild(ctx, model.Build{Region: "PHA"})
	require.NoError(t, err)
	assert.Equal(t, "PHA", b.Region)

	all, err := m.ListArchives(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
	require.NoError(t, m.Close())
}
