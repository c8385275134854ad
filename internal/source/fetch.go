// Package source loads field-boundary tables from their native
// encodings. Every loader returns the same in-memory shape: a table of
// native columns plus a designated "geometry" column holding decoded
// geometries.
package source

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/untillpro/goutils/logger"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// Fetcher materializes a source locator as a local file, going through
// the cache file when one is configured so repeated conversions do not
// re-download the source.
type Fetcher struct {
	fs afs.Service
}

// NewFetcher creates a fetcher backed by the default afs service,
// which handles file, http and https locators alike.
func NewFetcher() *Fetcher {
	return &Fetcher{fs: afs.New()}
}

// Fetch returns a local path holding the source bytes. Local locators
// are returned as-is; remote ones are downloaded to cachePath (or a
// temporary file when no cache is configured).
func (f *Fetcher) Fetch(ctx context.Context, locator, cachePath string) (string, error) {
	if local, ok := localPath(locator); ok {
		return local, nil
	}

	if cachePath != "" {
		if ok, _ := f.fs.Exists(ctx, cachePath); ok {
			logger.Verbose("using cached source:", cachePath)
			return cachePath, nil
		}
	}

	logger.Info("downloading", locator)
	data, err := f.fs.DownloadWithURL(ctx, locator)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", locator, err)
	}

	if cachePath != "" {
		if err := f.fs.Upload(ctx, cachePath, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
			return "", fmt.Errorf("failed to write cache file %s: %w", cachePath, err)
		}
		return cachePath, nil
	}

	tmp, err := os.CreateTemp("", "fiboa-source-*"+filepath.Ext(locator))
	if err != nil {
		return "", err
	}
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		return "", err
	}
	return tmp.Name(), nil
}

// Download returns the raw bytes of a locator, using the same cache
// strategy as Fetch.
func (f *Fetcher) Download(ctx context.Context, locator, cachePath string) ([]byte, error) {
	path, err := f.Fetch(ctx, locator, cachePath)
	if err != nil {
		return nil, err
	}
	return f.fs.DownloadWithURL(ctx, path)
}

// localPath reports whether the locator already names a local file.
func localPath(locator string) (string, bool) {
	if strings.HasPrefix(locator, "file://") {
		return strings.TrimPrefix(locator, "file://"), true
	}
	u, err := url.Parse(locator)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// No scheme (or a Windows drive letter): a plain path.
		return locator, true
	}
	return "", false
}
