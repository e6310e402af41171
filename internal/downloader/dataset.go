package downloader

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/accident"
	"github.com/sells-group/izv-data/internal/model"
)

// GetDataset returns the merged dataset for the given region abbreviations,
// or for every region when none are given. Each region is taken from memory,
// then the disk snapshot, and is parsed only when neither holds it. Unknown
// abbreviations are skipped with a warning.
//
// With a single region the cached dataset itself is returned; callers must
// not modify it.
func (d *Downloader) GetDataset(ctx context.Context, regions ...string) (*accident.Dataset, error) {
	if len(regions) == 0 {
		regions = accident.RegionAbbrs()
	}

	merged := accident.NewDataset()
	for _, abbr := range regions {
		ds, err := d.Region(ctx, abbr)
		if err != nil {
			return nil, err
		}
		if ds == nil {
			d.log.Warn("unknown region skipped", zap.String("region", abbr))
			continue
		}
		merged = accident.Merge(merged, ds)
	}
	return merged, nil
}

// Region returns one region's dataset through the cache tiers. It returns
// nil without error for an unknown abbreviation.
func (d *Downloader) Region(ctx context.Context, abbr string) (*accident.Dataset, error) {
	if ds, ok := d.mem[abbr]; ok {
		return ds, nil
	}
	if _, ok := accident.RegionCode(abbr); !ok {
		return nil, nil
	}

	log := d.log.With(zap.String("region", abbr))

	ds, ok, err := d.disk.Load(abbr)
	switch {
	case err != nil:
		log.Warn("snapshot unreadable, rebuilding", zap.String("path", d.disk.Path(abbr)), zap.Error(err))
	case ok:
		log.Debug("loaded snapshot", zap.String("path", d.disk.Path(abbr)))
		d.mem[abbr] = ds
		d.recordBuild(ctx, model.Build{
			Region:       abbr,
			Source:       model.BuildSourceDisk,
			Rows:         ds.Len(),
			FailedFields: ds.Failed,
		})
		return ds, nil
	}

	res, ok, err := d.parseRegion(ctx, abbr)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	d.mem[abbr] = res.ds

	if res.rows > 0 {
		if err := d.disk.Save(abbr, res.ds); err != nil {
			log.Warn("snapshot save failed", zap.Error(err))
		}
	} else {
		log.Warn("region has no rows, snapshot not written")
	}

	d.recordBuild(ctx, model.Build{
		Region:       abbr,
		Source:       model.BuildSourceParse,
		Rows:         res.rows,
		Skipped:      res.skipped,
		Archives:     res.archives,
		FailedFields: res.ds.Failed,
	})
	return res.ds, nil
}

func (d *Downloader) recordBuild(ctx context.Context, b model.Build) {
	b.BuiltAt = time.Now().UTC()
	if len(b.FailedFields) == 0 {
		b.FailedFields = nil
	}
	if _, err := d.manifest.RecordBuild(ctx, b); err != nil {
		d.log.Warn("build log write failed", zap.String("region", b.Region), zap.Error(err))
	}
}
