package fetcher

import (
	"archive/zip"
	"io"

	"github.com/rotisserie/eris"
)

// ErrMemberNotFound is returned when a ZIP archive has no member of the requested name.
var ErrMemberNotFound = eris.New("zip: member not found")

// ListZIP returns the names of the file members of a ZIP archive.
func ListZIP(zipPath string) ([]string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

// zipMember closes both the member stream and its archive.
type zipMember struct {
	io.ReadCloser
	archive *zip.ReadCloser
}

func (m *zipMember) Close() error {
	err := m.ReadCloser.Close()
	if aerr := m.archive.Close(); err == nil {
		err = aerr
	}
	return err
}

// OpenZIPMember opens the member named exactly name. Closing the returned
// reader also closes the archive. A missing member yields ErrMemberNotFound.
func OpenZIPMember(zipPath, name string) (io.ReadCloser, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, eris.Wrap(err, "zip: open archive")
	}

	for _, f := range r.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = r.Close()
			return nil, eris.Wrapf(err, "zip: open member %s", name)
		}
		return &zipMember{ReadCloser: rc, archive: r}, nil
	}

	_ = r.Close()
	return nil, ErrMemberNotFound
}
