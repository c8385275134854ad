package source

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/untillpro/goutils/logger"

	"github.com/fiboa/converter/internal/table"
)

// loadArchive loads a zip-packaged source. The archive must contain
// exactly one entry in a supported encoding; that entry is extracted
// next to the archive and loaded as usual.
func loadArchive(ctx context.Context, fetcher *Fetcher, locator, cachePath string) (*table.Table, error) {
	archivePath, err := fetcher.Fetch(ctx, locator, cachePath)
	if err != nil {
		return nil, err
	}

	entry, err := findDataEntry(archivePath)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", locator, err)
	}

	extracted, err := extractEntry(archivePath, entry)
	if err != nil {
		return nil, fmt.Errorf("archive %s: %w", locator, err)
	}
	logger.Verbose("extracted", entry, "from", archivePath)

	switch strings.ToLower(filepath.Ext(entry)) {
	case ".gpkg":
		return LoadGeoPackage(ctx, extracted)
	default:
		return LoadGeoJSON(ctx, fetcher, extracted, "")
	}
}

// findDataEntry picks the single loadable entry of the archive.
func findDataEntry(archivePath string) (string, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	var candidates []string
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(f.Name)) {
		case ".gpkg", ".json", ".geojson":
			candidates = append(candidates, f.Name)
		}
	}
	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("no supported data file found")
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("ambiguous archive, found %d data files", len(candidates))
	}
}

// extractEntry writes one archive entry next to the archive file and
// returns its path. An already-extracted entry is reused.
func extractEntry(archivePath, entry string) (string, error) {
	target := filepath.Join(filepath.Dir(archivePath), filepath.Base(entry))
	if _, err := os.Stat(target); err == nil {
		return target, nil
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	src, err := r.Open(entry)
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return "", err
	}
	return target, dst.Close()
}
