package downloader

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/fetcher"
	"github.com/sells-group/izv-data/internal/model"
	"github.com/sells-group/izv-data/internal/resilience"
	"github.com/sells-group/izv-data/internal/store"
)

// testRow returns a well-formed record with p1 set to id and the given
// fields overridden.
func testRow(id string, set map[string]string) []string {
	row := make([]string, len(accident.Schema))
	for i, f := range accident.Schema {
		switch f.Kind {
		case accident.KindInt32:
			row[i] = "1"
		case accident.KindFloat32:
			row[i] = "2,5"
		case accident.KindDate:
			row[i] = "2020-01-05"
		default:
			row[i] = "x"
		}
		if v, ok := set[f.Name]; ok {
			row[i] = v
		}
	}
	row[0] = id
	return row
}

// encodeCSV renders rows the way the source publishes them: quoted,
// semicolon separated, CRLF terminated, Windows-1250 encoded.
func encodeCSV(t *testing.T, rows ...[]string) []byte {
	t.Helper()
	var sb strings.Builder
	for _, row := range rows {
		for i, v := range row {
			if i > 0 {
				sb.WriteByte(';')
			}
			sb.WriteString(`"` + v + `"`)
		}
		sb.WriteString("\r\n")
	}
	out, err := charmap.Windows1250.NewEncoder().String(sb.String())
	require.NoError(t, err)
	return []byte(out)
}

// buildZip returns a ZIP archive holding the given members.
func buildZip(t *testing.T, members map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range members {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// sourceServer serves an index page at /izv/ and archives under /izv/data/.
type sourceServer struct {
	*httptest.Server

	mu          sync.Mutex
	indexStatus int
	archives    map[string][]byte
	failing     map[string]int
	order       []string
	hits        map[string]int
}

func newSourceServer(t *testing.T) *sourceServer {
	t.Helper()
	s := &sourceServer{
		indexStatus: http.StatusOK,
		archives:    make(map[string][]byte),
		failing:     make(map[string]int),
		hits:        make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

func (s *sourceServer) addArchive(name string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.archives[name] = data
	s.order = append(s.order, name)
}

// failArchive makes a listed archive answer with code.
func (s *sourceServer) failArchive(name string, code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[name] = code
}

func (s *sourceServer) setIndexStatus(code int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.indexStatus = code
}

func (s *sourceServer) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *sourceServer) totalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, v := range s.hits {
		n += v
	}
	return n
}

func (s *sourceServer) baseURL() string {
	return s.URL + "/izv/"
}

func (s *sourceServer) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits[r.URL.Path]++

	if r.URL.Path == "/izv/" {
		if s.indexStatus != http.StatusOK {
			w.WriteHeader(s.indexStatus)
			return
		}
		var sb strings.Builder
		sb.WriteString("<html><body><table>")
		for _, name := range s.order {
			sb.WriteString(`<tr><td>` + name + `</td><td><button onclick="download('data/` + name + `')">ZIP</button></td></tr>`)
		}
		sb.WriteString("</table></body></html>")
		_, _ = w.Write([]byte(sb.String()))
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/izv/data/")
	if code, ok := s.failing[name]; ok {
		w.WriteHeader(code)
		return
	}
	data, ok := s.archives[name]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	_, _ = w.Write(data)
}

// recordingManifest keeps manifest writes in memory.
type recordingManifest struct {
	store.Nop

	mu       sync.Mutex
	archives []model.Archive
	builds   []model.Build
}

func (m *recordingManifest) RecordArchive(_ context.Context, a model.Archive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives = append(m.archives, a)
	return nil
}

func (m *recordingManifest) RecordBuild(_ context.Context, b model.Build) (*model.Build, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.builds = append(m.builds, b)
	return &b, nil
}

func testFetcher() fetcher.Fetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:     5 * time.Second,
		RatePerHost: 1000,
		BaseBackoff: time.Millisecond,
	})
}

func newTestDownloader(t *testing.T, baseURL, folder string, m store.Manifest) *Downloader {
	t.Helper()
	return newRetryingDownloader(t, baseURL, folder, m, resilience.RetryConfig{MaxAttempts: 1})
}

func newRetryingDownloader(t *testing.T, baseURL, folder string, m store.Manifest, retry resilience.RetryConfig) *Downloader {
	t.Helper()
	d, err := New(Options{
		BaseURL:       baseURL,
		Folder:        folder,
		CacheFilename: "data_{region}.gob.gz",
		Retry:         retry,
	}, testFetcher(), m)
	require.NoError(t, err)
	return d
}
