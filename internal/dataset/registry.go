package dataset

import (
	"fmt"
	"sort"
	"sync"
)

// Registration happens from init() in each dataset file, mirroring how
// source connectors self-register in an ETL pipeline.

var (
	registryMu sync.RWMutex
	registry   = map[string]*Descriptor{}
)

// Register adds a dataset descriptor to the registry. It panics on an
// invalid or duplicate descriptor since registration runs at init time
// and a bad descriptor is a programming error.
func Register(d *Descriptor) {
	if err := d.Validate(); err != nil {
		panic(fmt.Sprintf("invalid dataset descriptor: %v", err))
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[d.ID]; exists {
		panic(fmt.Sprintf("dataset %s registered twice", d.ID))
	}
	registry[d.ID] = d
}

// Get returns a registered descriptor by dataset id.
func Get(id string) (*Descriptor, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	d, ok := registry[id]
	if !ok {
		return nil, fmt.Errorf("unknown dataset: %q", id)
	}
	return d, nil
}

// List returns all registered descriptors ordered by dataset id.
func List() []*Descriptor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]*Descriptor, 0, len(registry))
	for _, d := range registry {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
