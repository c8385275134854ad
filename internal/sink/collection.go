package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/untillpro/goutils/logger"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/fiboa/converter/internal/convert"
)

// WriteCollection persists the collection as a standalone JSON
// document next to the data artifact.
func WriteCollection(ctx context.Context, url string, collection *convert.Collection) error {
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collection: %w", err)
	}
	data = append(data, '\n')

	fs := afs.New()
	if err := fs.Upload(ctx, url, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write collection %s: %w", url, err)
	}
	logger.Info("wrote collection to", url)
	return nil
}
