package convert

import (
	"github.com/fiboa/converter/internal/table"
	"github.com/untillpro/goutils/logger"
)

// projectColumns applies the descriptor's source→target column map:
// a source mapped to several targets is copied into independent
// columns, a source mapped to one target is renamed, and any column
// absent from the map is dropped. The result is a fresh table so that
// rename collisions (e.g. two columns swapping names) cannot corrupt
// the projection half-way through.
func projectColumns(t *table.Table, columns map[string][]string) (*table.Table, error) {
	for src := range columns {
		if !t.HasColumn(src) {
			return nil, configErrorf("column map references missing column %q", src)
		}
	}

	geomTargets, ok := columns[t.GeometryColumn()]
	if !ok {
		return nil, configErrorf("geometry column %q is not mapped", t.GeometryColumn())
	}

	out := table.New(geomTargets[0])
	for _, src := range t.Names() {
		targets, mapped := columns[src]
		if !mapped {
			logger.Verbose("dropping unmapped column:", src)
			continue
		}
		values, _ := t.Column(src)
		// The first target adopts the column; further targets get
		// deep copies with their own independent identity.
		if err := out.AddColumn(targets[0], values); err != nil {
			return nil, configErrorf("cannot project column %q: %v", src, err)
		}
		for _, extra := range targets[1:] {
			if err := out.DuplicateColumn(targets[0], extra); err != nil {
				return nil, configErrorf("cannot duplicate column %q as %q: %v", src, extra, err)
			}
		}
	}
	return out, nil
}
