package schema

import (
	"bytes"
	"context"
	"crypto/sha256"
	_ "embed"
	"fmt"
	"path"

	"github.com/untillpro/goutils/logger"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"gopkg.in/yaml.v3"
)

// FiboaVersion is the version of the fiboa specification the embedded
// core schema implements.
const FiboaVersion = "0.2.0"

//go:embed fiboa.yaml
var coreSchema []byte

// Core returns the embedded base fiboa schema. The document is parsed
// once per call so callers can never mutate shared state.
func Core() (*Document, error) {
	doc, err := Parse(coreSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded core schema: %w", err)
	}
	return doc, nil
}

// Parse decodes a schema document from YAML.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Properties) == 0 {
		return nil, fmt.Errorf("schema document declares no properties")
	}
	return &doc, nil
}

// Loader fetches extension schema documents by URL. Fetched documents
// are cached on disk when a cache directory is configured, so repeated
// runs do not re-download unchanged extension schemas.
type Loader struct {
	fs       afs.Service
	cacheDir string
}

// NewLoader creates a schema loader. cacheDir may be empty to disable
// caching.
func NewLoader(cacheDir string) *Loader {
	return &Loader{fs: afs.New(), cacheDir: cacheDir}
}

// LoadExtension fetches and parses the extension schema at the given
// URL, preferring the local cache when present.
func (l *Loader) LoadExtension(ctx context.Context, url string) (*Document, error) {
	data, err := l.fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to load extension schema %s: %w", url, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extension schema %s: %w", url, err)
	}
	return doc, nil
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	cacheURL := l.cacheLocation(url)
	if cacheURL != "" {
		if ok, _ := l.fs.Exists(ctx, cacheURL); ok {
			logger.Verbose("using cached extension schema:", cacheURL)
			return l.fs.DownloadWithURL(ctx, cacheURL)
		}
	}
	data, err := l.fs.DownloadWithURL(ctx, url)
	if err != nil {
		return nil, err
	}
	if cacheURL != "" {
		if err := l.fs.Upload(ctx, cacheURL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
			logger.Warning("failed to cache extension schema:", err)
		}
	}
	return data, nil
}

// cacheLocation derives a stable cache file name from the schema URL.
func (l *Loader) cacheLocation(url string) string {
	if l.cacheDir == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(url))
	return path.Join(l.cacheDir, fmt.Sprintf("%x-%s", sum[:6], path.Base(url)))
}
