package downloader

import (
	"context"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/net/html"
)

// FileList returns the archive locations listed on the index page. The list
// is fetched once per Downloader; a failed fetch is not remembered, so the
// next call tries again.
func (d *Downloader) FileList(ctx context.Context) ([]string, error) {
	if d.fileList != nil {
		return d.fileList, nil
	}

	body, err := d.fetcher.Download(ctx, d.base.String())
	if err != nil {
		d.log.Error("index fetch failed", zap.String("url", d.base.String()), zap.Error(err))
		return nil, eris.Wrap(err, "downloader: fetch index")
	}
	defer body.Close() //nolint:errcheck

	list, err := parseIndex(body)
	if err != nil {
		return nil, err
	}
	d.log.Info("index fetched", zap.Int("archives", len(list)))
	d.fileList = list
	return list, nil
}

// parseIndex collects the first single-quoted token of every button's
// onclick attribute, in document order. Buttons without one are ignored.
func parseIndex(r io.Reader) ([]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, eris.Wrap(err, "downloader: parse index")
	}

	list := []string{}
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "button" {
			if loc, ok := onclickTarget(n); ok {
				list = append(list, loc)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return list, nil
}

func onclickTarget(n *html.Node) (string, bool) {
	for _, a := range n.Attr {
		if a.Key != "onclick" {
			continue
		}
		parts := strings.Split(a.Val, "'")
		if len(parts) < 3 {
			return "", false
		}
		return parts[1], true
	}
	return "", false
}
