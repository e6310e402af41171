// Package downloader fetches the accident archives, parses region extracts
// into typed datasets and caches the results in memory and on disk.
package downloader

import (
	"net/url"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/cache"
	"github.com/sells-group/izv-data/internal/fetcher"
	"github.com/sells-group/izv-data/internal/resilience"
	"github.com/sells-group/izv-data/internal/store"
)

// Options configures a Downloader.
type Options struct {
	// BaseURL serves the HTML index; archive locations resolve against it.
	BaseURL string
	// Folder holds downloaded archives and cache snapshots.
	Folder string
	// CacheFilename is the snapshot name template, containing "{region}".
	CacheFilename string
	// Concurrency bounds parallel archive downloads. Values below 1 mean 1.
	Concurrency int
	// Retry wraps each archive transfer.
	Retry resilience.RetryConfig
}

// Downloader is the entry point to the dataset. It is not safe for
// concurrent use; callers sharing one must serialise access.
type Downloader struct {
	opts     Options
	base     *url.URL
	fetcher  fetcher.Fetcher
	manifest store.Manifest
	disk     *cache.Disk
	log      *zap.Logger

	// fileList is nil until the index has been fetched successfully.
	fileList []string
	mem      map[string]*accident.Dataset
}

// New returns a Downloader. A nil manifest records nothing.
func New(opts Options, f fetcher.Fetcher, m store.Manifest) (*Downloader, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "downloader: parse base url")
	}
	if opts.Folder == "" {
		return nil, eris.New("downloader: folder is required")
	}
	if opts.CacheFilename == "" {
		opts.CacheFilename = "data_" + cache.Placeholder + ".gob.gz"
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if m == nil {
		m = store.Nop{}
	}
	return &Downloader{
		opts:     opts,
		base:     base,
		fetcher:  f,
		manifest: m,
		disk:     cache.NewDisk(opts.Folder, opts.CacheFilename),
		log:      zap.L().With(zap.String("component", "downloader")),
		mem:      make(map[string]*accident.Dataset),
	}, nil
}

// Folder returns the directory holding archives and snapshots.
func (d *Downloader) Folder() string {
	return d.opts.Folder
}

// SnapshotPath returns the disk cache path for a region.
func (d *Downloader) SnapshotPath(region string) string {
	return d.disk.Path(region)
}

// CacheState reports which tiers hold a region.
func (d *Downloader) CacheState(region string) (memory, disk bool) {
	_, memory = d.mem[region]
	return memory, d.disk.Exists(region)
}

func (d *Downloader) archivePath(name string) string {
	return filepath.Join(d.opts.Folder, name)
}
