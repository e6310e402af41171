package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/fetcher"
	"github.com/sells-group/izv-data/internal/model"
	"github.com/sells-group/izv-data/internal/resilience"
)

// LocalArchive is a downloaded archive whose name decodes to a period.
type LocalArchive struct {
	Name   string
	Path   string
	Period accident.Period
}

// EnsureArchives makes sure every archive on the index is present locally.
// The index is fetched on first use; afterwards only missing archives are
// downloaded. An unavailable index is logged and the local archives are used
// as they are.
func (d *Downloader) EnsureArchives(ctx context.Context) error {
	if err := os.MkdirAll(d.opts.Folder, 0o755); err != nil {
		return eris.Wrap(err, "downloader: create folder")
	}

	list, err := d.FileList(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		d.log.Warn("index unavailable, using local archives", zap.Error(err))
		return nil
	}

	_, err = d.DownloadArchives(ctx, list)
	return err
}

// DownloadArchives fetches each location not already present in the folder.
// A failed transfer is logged and the rest continue. It returns how many
// archives were downloaded; the error is non-nil only when ctx ends.
func (d *Downloader) DownloadArchives(ctx context.Context, locations []string) (int, error) {
	if err := os.MkdirAll(d.opts.Folder, 0o755); err != nil {
		return 0, eris.Wrap(err, "downloader: create folder")
	}

	var downloaded atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Concurrency)

	for _, loc := range locations {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			ok, err := d.downloadArchive(gctx, loc)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				d.log.Warn("archive download failed", zap.String("location", loc), zap.Error(err))
				return nil
			}
			if ok {
				downloaded.Add(1)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(downloaded.Load()), eris.Wrap(err, "downloader: download archives")
	}
	return int(downloaded.Load()), nil
}

// downloadArchive fetches one location. It reports false when the archive
// was already present.
func (d *Downloader) downloadArchive(ctx context.Context, location string) (bool, error) {
	ref, err := url.Parse(location)
	if err != nil {
		return false, eris.Wrapf(err, "downloader: parse location %q", location)
	}
	name := path.Base(ref.Path)
	if name == "." || name == "/" || name == "" {
		return false, eris.Errorf("downloader: location %q has no file name", location)
	}

	dest := d.archivePath(name)
	if _, err := os.Stat(dest); err == nil {
		return false, nil
	}

	src := d.base.ResolveReference(ref).String()
	log := d.log.With(zap.String("archive", name), zap.String("url", src))
	log.Info("downloading archive")

	retry := d.opts.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("archive", name)
	}
	n, err := resilience.DoVal(ctx, retry, func(ctx context.Context) (int64, error) {
		return d.fetcher.DownloadToFile(ctx, src, dest)
	})
	if err != nil {
		return false, eris.Wrapf(err, "downloader: fetch %s", name)
	}

	sum, err := fileSHA256(dest)
	if err != nil {
		return true, eris.Wrapf(err, "downloader: hash %s", name)
	}

	a := model.Archive{Name: name, URL: src, Bytes: n, SHA256: sum, DownloadedAt: time.Now().UTC()}
	if p, ok := accident.DecodeFilename(name); ok {
		a.Month, a.Year = p.Month, p.Year
	}
	if err := d.manifest.RecordArchive(ctx, a); err != nil {
		log.Warn("manifest record failed", zap.Error(err))
	}
	log.Info("archive downloaded", zap.Int64("bytes", n))
	return true, nil
}

// LocalArchives lists the ".zip" archives in the folder in chronological
// order of their decoded period, then by name. Archives whose name does not
// decode are left out.
func (d *Downloader) LocalArchives() ([]LocalArchive, error) {
	entries, err := os.ReadDir(d.opts.Folder)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "downloader: read folder")
	}

	var out []LocalArchive
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		p, ok := accident.DecodeFilename(e.Name())
		if !ok {
			d.log.Debug("skipping archive with undecodable name", zap.String("archive", e.Name()))
			continue
		}
		out = append(out, LocalArchive{Name: e.Name(), Path: d.archivePath(e.Name()), Period: p})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if c := out[i].Period.Compare(out[j].Period); c != 0 {
			return c < 0
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// Regions returns the abbreviations of the regions the archive has an
// extract for, in region table order.
func (a LocalArchive) Regions() ([]string, error) {
	names, err := fetcher.ListZIP(a.Path)
	if err != nil {
		return nil, eris.Wrapf(err, "downloader: list %s", a.Name)
	}
	have := make(map[string]bool, len(names))
	for _, n := range names {
		have[n] = true
	}
	var out []string
	for _, r := range accident.Regions {
		if have[accident.MemberName(r.Code)] {
			out = append(out, r.Abbr)
		}
	}
	return out, nil
}

func fileSHA256(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
