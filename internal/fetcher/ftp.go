package fetcher

import (
	"context"
	"errors"
	"io"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// FTPOptions configures the FTP fetcher. Credentials in the URL take
// precedence over User and Password; both default to anonymous login.
type FTPOptions struct {
	Timeout  time.Duration
	User     string
	Password string
}

// FTPFetcher downloads archives from FTP mirrors of the index.
type FTPFetcher struct {
	opts FTPOptions
}

// NewFTPFetcher creates a new FTPFetcher with the given options.
func NewFTPFetcher(opts FTPOptions) *FTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User, opts.Password = "anonymous", "anonymous@"
	}
	return &FTPFetcher{opts: opts}
}

// ftpTarget is a parsed ftp:// location.
type ftpTarget struct {
	addr     string
	path     string
	user     string
	password string
}

func (f *FTPFetcher) target(rawURL string) (ftpTarget, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ftpTarget{}, eris.Wrap(err, "ftp: parse url")
	}
	if u.Scheme != "ftp" {
		return ftpTarget{}, eris.Errorf("ftp: expected ftp scheme, got %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		return ftpTarget{}, eris.Errorf("ftp: no file in %q", rawURL)
	}

	t := ftpTarget{addr: u.Host, path: u.Path, user: f.opts.User, password: f.opts.Password}
	if _, _, err := net.SplitHostPort(t.addr); err != nil {
		t.addr = net.JoinHostPort(u.Hostname(), "21")
	}
	if u.User != nil {
		t.user = u.User.Username()
		t.password, _ = u.User.Password()
	}
	return t, nil
}

// ftpBody is a RETR stream that ends the session when closed.
type ftpBody struct {
	*ftp.Response
	conn *ftp.ServerConn
	size int64
}

func (b *ftpBody) Close() error {
	return errors.Join(b.Response.Close(), b.conn.Quit())
}

// Download logs in, retrieves the file and returns its stream. Closing the
// stream releases the connection.
func (f *FTPFetcher) Download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	t, err := f.target(rawURL)
	if err != nil {
		return nil, err
	}
	return f.retrieve(ctx, t)
}

func (f *FTPFetcher) retrieve(ctx context.Context, t ftpTarget) (*ftpBody, error) {
	zap.L().Debug("ftp: retrieve", zap.String("addr", t.addr), zap.String("path", t.path))

	conn, err := ftp.Dial(t.addr, ftp.DialWithTimeout(f.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return nil, eris.Wrapf(err, "ftp: dial %s", t.addr)
	}
	if err := conn.Login(t.user, t.password); err != nil {
		_ = conn.Quit()
		return nil, eris.Wrap(err, "ftp: login")
	}

	// Servers without SIZE support leave the length unchecked.
	size, err := conn.FileSize(t.path)
	if err != nil {
		size = -1
	}

	resp, err := conn.Retr(t.path)
	if err != nil {
		_ = conn.Quit()
		return nil, eris.Wrapf(err, "ftp: retr %s", t.path)
	}
	return &ftpBody{Response: resp, conn: conn, size: size}, nil
}

// DownloadToFile retrieves rawURL into path through a ".part" file, checking
// the server-reported size when there is one.
func (f *FTPFetcher) DownloadToFile(ctx context.Context, rawURL string, path string) (int64, error) {
	t, err := f.target(rawURL)
	if err != nil {
		return 0, err
	}
	body, err := f.retrieve(ctx, t)
	if err != nil {
		return 0, err
	}
	defer body.Close() //nolint:errcheck

	return writeAtomic(path, body, body.size)
}
