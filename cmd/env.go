package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/izv-data/internal/downloader"
	"github.com/sells-group/izv-data/internal/fetcher"
	"github.com/sells-group/izv-data/internal/resilience"
	"github.com/sells-group/izv-data/internal/store"
)

// dataEnv holds the downloader and the manifest it records into.
type dataEnv struct {
	Manifest   store.Manifest
	Downloader *downloader.Downloader
}

// Close releases the manifest.
func (e *dataEnv) Close() {
	if e.Manifest != nil {
		_ = e.Manifest.Close()
	}
}

// initManifest opens the SQLite manifest, or a no-op one when manifest.path
// is empty.
func initManifest(ctx context.Context) (store.Manifest, error) {
	if cfg.Manifest.Path == "" {
		return store.Nop{}, nil
	}
	st, err := store.NewSQLite(cfg.Manifest.Path)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate manifest")
	}
	return st, nil
}

// initDownloader wires fetchers, retry policy and manifest into a
// Downloader. Callers should defer env.Close().
func initDownloader(ctx context.Context) (*dataEnv, error) {
	if err := cfg.Validate("load"); err != nil {
		return nil, err
	}

	m, err := initManifest(ctx)
	if err != nil {
		return nil, err
	}

	// The fetcher makes single requests: the index is fetched once per
	// attempt and archive transfers retry through the downloader's policy.
	f := fetcher.NewSchemeFetcher(
		fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			UserAgent: cfg.Source.UserAgent,
			Timeout:   cfg.Source.Timeout(),
		}),
		fetcher.NewFTPFetcher(fetcher.FTPOptions{Timeout: cfg.Source.Timeout()}),
	)

	d, err := downloader.New(downloader.Options{
		BaseURL:       cfg.Source.BaseURL,
		Folder:        cfg.Source.Folder,
		CacheFilename: cfg.Source.CacheFilename,
		Concurrency:   cfg.Source.Concurrency,
		Retry:         resilience.FromSourceConfig(cfg.Source.MaxRetries, 0),
	}, f, m)
	if err != nil {
		_ = m.Close()
		return nil, err
	}

	zap.L().Debug("downloader ready",
		zap.String("base_url", cfg.Source.BaseURL),
		zap.String("folder", cfg.Source.Folder),
	)
	return &dataEnv{Manifest: m, Downloader: d}, nil
}

// parseRegions splits --region values on commas and upper-cases them.
func parseRegions(values []string) []string {
	var out []string
	for _, v := range values {
		for _, abbr := range strings.Split(v, ",") {
			abbr = strings.ToUpper(strings.TrimSpace(abbr))
			if abbr != "" {
				out = append(out, abbr)
			}
		}
	}
	return out
}
