package catalog

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Laura-lc/AllenSDK/internal/models"
)

// MemoryCatalog implements Catalog with an in-memory map. Used in tests and
// wherever a manifest is assembled programmatically rather than imported from
// the CSV.
type MemoryCatalog struct {
	mu          sync.RWMutex
	experiments map[int64]models.Experiment
}

// NewMemoryCatalog creates a MemoryCatalog holding the given manifest rows.
// Rows sharing an experiment id keep the last occurrence.
func NewMemoryCatalog(experiments ...models.Experiment) *MemoryCatalog {
	c := &MemoryCatalog{
		experiments: make(map[int64]models.Experiment, len(experiments)),
	}
	for _, e := range experiments {
		c.experiments[e.OphysExperimentID] = e
	}
	return c
}

// Add inserts or replaces a manifest row.
func (c *MemoryCatalog) Add(e models.Experiment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.experiments[e.OphysExperimentID] = e
}

// All returns every manifest row, ordered by experiment id.
func (c *MemoryCatalog) All(ctx context.Context) ([]models.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.Experiment, 0, len(c.experiments))
	for _, e := range c.experiments {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OphysExperimentID < out[j].OphysExperimentID
	})
	return out, nil
}

// Get returns the manifest row for one experiment.
func (c *MemoryCatalog) Get(ctx context.Context, ophysExperimentID int64) (*models.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.experiments[ophysExperimentID]
	if !ok {
		return nil, fmt.Errorf("ophys experiment %d: %w", ophysExperimentID, ErrNotFound)
	}
	return &e, nil
}

// ByContainer returns the manifest rows sharing an experiment container.
func (c *MemoryCatalog) ByContainer(ctx context.Context, containerID int64) ([]models.Experiment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []models.Experiment
	for _, e := range c.experiments {
		if e.ContainerID == containerID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].OphysExperimentID < out[j].OphysExperimentID
	})
	return out, nil
}

// Containers returns the distinct container ids in the manifest, sorted.
func (c *MemoryCatalog) Containers(ctx context.Context) ([]int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := make(map[int64]bool)
	for _, e := range c.experiments {
		set[e.ContainerID] = true
	}
	out := make([]int64, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// Stages returns the distinct stage names in the manifest, sorted.
func (c *MemoryCatalog) Stages(ctx context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	set := make(map[string]bool)
	for _, e := range c.experiments {
		set[e.StageName] = true
	}
	out := make([]string, 0, len(set))
	for stage := range set {
		out = append(out, stage)
	}
	sort.Strings(out)
	return out, nil
}

// Count returns the number of manifest rows.
func (c *MemoryCatalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.experiments), nil
}

// Close is a no-op for the memory catalog.
func (c *MemoryCatalog) Close() error {
	return nil
}
