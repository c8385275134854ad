// Package converter turns country-specific agricultural field-boundary
// datasets into fiboa-conformant GeoParquet.
//
// Every dataset is described by a declarative descriptor (see the
// datasets package): where to fetch the source, how source columns map
// to fiboa properties, which rows to drop, and how to migrate values
// that need reshaping. The conversion itself is one fixed pipeline
// executed against that descriptor.
//
// # Quick Start
//
//	err := converter.Convert(context.Background(), "de_th", &converter.RunOptions{
//		Output:          "de_th.parquet",
//		Cache:           "cache/de_th.gpkg",
//		StoreCollection: true,
//	})
//
// The run downloads the source (or reuses the cache file), applies the
// dataset's transforms, validates every value against the resolved
// fiboa schema, and writes the GeoParquet artifact. With
// StoreCollection set, the collection document is additionally written
// next to the output file.
package converter

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/fiboa/converter/datasets"
	"github.com/fiboa/converter/internal/convert"
	"github.com/fiboa/converter/internal/dataset"
	"github.com/fiboa/converter/internal/schema"
	"github.com/fiboa/converter/internal/sink"
	"github.com/fiboa/converter/internal/source"
)

// Policy controls how coercion failures on optional properties are
// handled. Required properties always abort the run.
type Policy = convert.Policy

const (
	// PolicyWarn nulls offending optional values and logs a warning.
	PolicyWarn = convert.PolicyWarn
	// PolicyFail aborts the run on any coercion failure.
	PolicyFail = convert.PolicyFail
)

// RunOptions configures a single conversion run.
type RunOptions struct {
	// Output is the path of the GeoParquet file to write.
	Output string

	// Cache optionally points at a local copy of the source data.
	// When the file exists it is used instead of downloading; when it
	// does not, the download is stored there for the next run.
	Cache string

	// StoreCollection additionally writes the collection document as
	// JSON next to the output file.
	StoreCollection bool

	// SourceCoopURL optionally records the dataset's Source
	// Cooperative repository in the collection.
	SourceCoopURL string

	// OnCoercionError selects the Policy for optional properties.
	// Defaults to PolicyWarn.
	OnCoercionError Policy
}

// Convert runs the full conversion for one registered dataset: load,
// transform, validate, write. The run is a single-pass batch job; any
// stage failure aborts it and the caller must discard partial output.
func Convert(ctx context.Context, datasetID string, opts *RunOptions) error {
	if opts == nil || opts.Output == "" {
		return fmt.Errorf("an output path is required")
	}

	desc, err := dataset.Get(datasetID)
	if err != nil {
		return err
	}
	if opts.SourceCoopURL != "" {
		// Descriptors are shared and read-only; run-level overrides
		// work on a copy.
		clone := *desc
		clone.SourceCoopURL = opts.SourceCoopURL
		desc = &clone
	}

	base, err := schema.Core()
	if err != nil {
		return err
	}

	schemaCache := ""
	if opts.Cache != "" {
		schemaCache = filepath.Dir(opts.Cache)
	}
	loader := schema.NewLoader(schemaCache)
	extensions := make([]*schema.Document, 0, len(desc.Extensions))
	for _, url := range desc.Extensions {
		ext, err := loader.LoadExtension(ctx, url)
		if err != nil {
			return err
		}
		extensions = append(extensions, ext)
	}

	tbl, err := source.Load(ctx, desc.Sources, opts.Cache)
	if err != nil {
		return fmt.Errorf("failed to load dataset %s: %w", desc.ID, err)
	}

	pipeline := convert.NewPipeline(desc, base, extensions, opts.OnCoercionError)
	result, err := pipeline.Run(tbl)
	if err != nil {
		return fmt.Errorf("failed to convert dataset %s: %w", desc.ID, err)
	}

	if err := sink.WriteParquet(opts.Output, result.Table, result.Schema, result.Collection); err != nil {
		return err
	}
	if opts.StoreCollection {
		collectionPath := strings.TrimSuffix(opts.Output, filepath.Ext(opts.Output)) + ".json"
		if err := sink.WriteCollection(ctx, collectionPath, result.Collection); err != nil {
			return err
		}
	}
	return nil
}

// Provider identifies an organization involved in producing or
// licensing a dataset.
type Provider struct {
	Name  string
	URL   string
	Roles []string
}

// DatasetInfo is the descriptive summary of a registered dataset.
type DatasetInfo struct {
	ID          string
	ShortName   string
	Title       string
	Description string
	License     string
	Attribution string
	Sources     []string
	Extensions  []string
	Providers   []Provider
}

// Datasets lists all registered datasets ordered by id.
func Datasets() []DatasetInfo {
	descriptors := dataset.List()
	out := make([]DatasetInfo, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, describe(d))
	}
	return out
}

// Describe returns the descriptive summary of one registered dataset.
func Describe(datasetID string) (DatasetInfo, error) {
	d, err := dataset.Get(datasetID)
	if err != nil {
		return DatasetInfo{}, err
	}
	return describe(d), nil
}

func describe(d *dataset.Descriptor) DatasetInfo {
	providers := make([]Provider, 0, len(d.Providers))
	for _, p := range d.Providers {
		providers = append(providers, Provider{Name: p.Name, URL: p.URL, Roles: p.Roles})
	}
	return DatasetInfo{
		ID:          d.ID,
		ShortName:   d.ShortName,
		Title:       d.Title,
		Description: d.Description,
		License:     d.License,
		Attribution: d.Attribution,
		Sources:     d.Sources,
		Extensions:  d.Extensions,
		Providers:   providers,
	}
}
