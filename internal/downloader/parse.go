package downloader

import (
	"context"
	"errors"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/fetcher"
)

// extractCSV is the format of the per-region members inside each archive.
// Stray quotes inside unquoted fields are kept as text.
var extractCSV = fetcher.CSVOptions{
	Delimiter:  ';',
	Encoding:   charmap.Windows1250,
	LazyQuotes: true,
}

// parseResult carries the counters of one region parse.
type parseResult struct {
	ds       *accident.Dataset
	rows     int
	skipped  int
	archives int
}

// ParseRegion builds the dataset for a region abbreviation from the local
// archives, downloading missing ones first. The boolean is false for an
// unknown abbreviation.
func (d *Downloader) ParseRegion(ctx context.Context, abbr string) (*accident.Dataset, bool, error) {
	res, ok, err := d.parseRegion(ctx, abbr)
	if err != nil || !ok {
		return nil, ok, err
	}
	return res.ds, true, nil
}

func (d *Downloader) parseRegion(ctx context.Context, abbr string) (*parseResult, bool, error) {
	if err := d.EnsureArchives(ctx); err != nil {
		return nil, false, err
	}

	code, ok := accident.RegionCode(abbr)
	if !ok {
		return nil, false, nil
	}

	archives, err := d.LocalArchives()
	if err != nil {
		return nil, false, err
	}

	log := d.log.With(zap.String("region", abbr))
	member := accident.MemberName(code)
	b := accident.NewBuilder()
	res := &parseResult{}

	for _, a := range archives {
		if err := d.readMember(ctx, a, member, b); err != nil {
			if ctx.Err() != nil {
				return nil, false, eris.Wrap(ctx.Err(), "downloader: parse region")
			}
			log.Warn("skipping archive", zap.String("archive", a.Name), zap.Error(err))
			continue
		}
		res.archives++
	}

	res.ds = b.Build(abbr)
	res.rows = b.Rows()
	res.skipped = b.Skipped()
	if res.skipped > 0 {
		log.Warn("rows with unexpected field count skipped", zap.Int("skipped", res.skipped))
	}
	log.Info("region parsed",
		zap.Int("rows", res.rows),
		zap.Int("archives", res.archives),
		zap.Int("failed_fields", len(res.ds.Failed)),
	)
	return res, true, nil
}

// readMember feeds one archive's region extract into b. Malformed rows are
// counted by b and do not stop the read. The member is added only once it
// was read to the end, so an archive that fails partway contributes nothing.
func (d *Downloader) readMember(ctx context.Context, a LocalArchive, member string, b *accident.Builder) error {
	rc, err := fetcher.OpenZIPMember(a.Path, member)
	if errors.Is(err, fetcher.ErrMemberNotFound) {
		return eris.Errorf("downloader: %s has no member %s", a.Name, member)
	}
	if err != nil {
		return err
	}
	defer rc.Close() //nolint:errcheck

	var records [][]string
	_, err = fetcher.ReadCSV(ctx, rc, extractCSV, func(record []string) error {
		records = append(records, slices.Clone(record))
		return nil
	})
	if err != nil {
		return eris.Wrapf(err, "downloader: read %s from %s", member, a.Name)
	}

	for _, record := range records {
		if err := b.Add(record); err != nil {
			d.log.Debug("row skipped", zap.String("archive", a.Name), zap.Error(err))
		}
	}
	return nil
}
