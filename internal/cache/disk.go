// Package cache persists parsed region datasets as compressed snapshots.
package cache

import (
	"compress/gzip"
	"encoding/gob"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/izv-data/internal/accident"
)

// Placeholder is substituted with the region abbreviation in file templates.
const Placeholder = "{region}"

// compressionLevel is the gzip level snapshots are written with.
const compressionLevel = 3

// Disk stores one gzip-compressed gob snapshot per region. Entries are never
// invalidated; delete the file to force a rebuild.
type Disk struct {
	dir      string
	template string
}

// NewDisk returns a disk cache rooted at dir naming entries by template.
func NewDisk(dir, template string) *Disk {
	return &Disk{dir: dir, template: template}
}

// Path returns the snapshot path for a region.
func (d *Disk) Path(region string) string {
	return filepath.Join(d.dir, strings.ReplaceAll(d.template, Placeholder, region))
}

// Exists reports whether a snapshot for region is present.
func (d *Disk) Exists(region string) bool {
	_, err := os.Stat(d.Path(region))
	return err == nil
}

// Load reads the snapshot for region. The boolean is false when none exists.
func (d *Disk) Load(region string) (*accident.Dataset, bool, error) {
	f, err := os.Open(d.Path(region))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: open %s", region)
	}
	defer f.Close() //nolint:errcheck

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, false, eris.Wrapf(err, "cache: gzip reader %s", region)
	}
	defer zr.Close() //nolint:errcheck

	ds := accident.NewDataset()
	if err := gob.NewDecoder(zr).Decode(ds); err != nil {
		return nil, false, eris.Wrapf(err, "cache: decode %s", region)
	}
	if ds.Columns == nil {
		ds.Columns = make(map[string]accident.Column)
	}
	if ds.Failed == nil {
		ds.Failed = make(map[string]string)
	}
	return ds, true, nil
}

// Save writes the snapshot for region, replacing any existing one. The file
// is written under a temporary name and renamed into place.
func (d *Disk) Save(region string, ds *accident.Dataset) error {
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return eris.Wrap(err, "cache: create dir")
	}

	path := d.Path(region)
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return eris.Wrapf(err, "cache: create temp for %s", region)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	zw, err := gzip.NewWriterLevel(tmp, compressionLevel)
	if err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrap(err, "cache: gzip writer")
	}
	if err := gob.NewEncoder(zw).Encode(ds); err != nil {
		_ = zw.Close()
		_ = tmp.Close()
		cleanup()
		return eris.Wrapf(err, "cache: encode %s", region)
	}
	if err := zw.Close(); err != nil {
		_ = tmp.Close()
		cleanup()
		return eris.Wrapf(err, "cache: flush %s", region)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return eris.Wrapf(err, "cache: close %s", region)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return eris.Wrapf(err, "cache: rename %s", region)
	}
	return nil
}
