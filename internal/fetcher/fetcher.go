// Package fetcher downloads remote archives over HTTP or FTP and reads ZIP
// members and delimited text from them.
package fetcher

import (
	"context"
	"io"
	"net/url"

	"github.com/rotisserie/eris"
)

// Fetcher defines the interface for downloading remote data.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	// The file appears at path only once the transfer completed.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// SchemeFetcher dispatches to a Fetcher by URL scheme.
type SchemeFetcher struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewSchemeFetcher returns a fetcher serving http, https and ftp URLs.
func NewSchemeFetcher(h *HTTPFetcher, f *FTPFetcher) *SchemeFetcher {
	return &SchemeFetcher{HTTP: h, FTP: f}
}

func (s *SchemeFetcher) pick(rawURL string) (Fetcher, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: parse url")
	}
	switch u.Scheme {
	case "http", "https":
		if s.HTTP != nil {
			return s.HTTP, nil
		}
	case "ftp":
		if s.FTP != nil {
			return s.FTP, nil
		}
	}
	return nil, eris.Errorf("fetcher: unsupported scheme %q", u.Scheme)
}

// Download fetches the URL with the fetcher registered for its scheme.
func (s *SchemeFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	f, err := s.pick(rawURL)
	if err != nil {
		return nil, err
	}
	return f.Download(ctx, rawURL)
}

// DownloadToFile fetches the URL into path with the fetcher registered for its scheme.
func (s *SchemeFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	f, err := s.pick(rawURL)
	if err != nil {
		return 0, err
	}
	return f.DownloadToFile(ctx, rawURL, path)
}
