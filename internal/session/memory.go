package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/Laura-lc/AllenSDK/internal/models"
)

// MemorySource implements Source over in-memory datasets. Used in tests and
// for sessions assembled programmatically.
type MemorySource struct {
	mu        sync.RWMutex
	tables    map[string]arrow.Record
	objects   map[string]map[string]interface{}
	series    map[string][]float64
	images    map[string]models.Image
	templates map[string][]models.Image
}

// NewMemorySource creates an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		tables:  make(map[string]arrow.Record),
		objects: make(map[string]map[string]interface{}),
		series:  make(map[string][]float64),
		images:  make(map[string]models.Image),
	}
}

// SetTable stores a raw table under name.
func (s *MemorySource) SetTable(name string, rec arrow.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[name] = rec
}

// SetObject stores a raw document under name.
func (s *MemorySource) SetObject(name string, obj map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[name] = obj
}

// SetSeries stores a series under name.
func (s *MemorySource) SetSeries(name string, values []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.series[name] = values
}

// SetImage stores a raw image under name.
func (s *MemorySource) SetImage(name string, img models.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.images[name] = img
}

// SetTemplates stores the stimulus template stacks.
func (s *MemorySource) SetTemplates(templates map[string][]models.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = templates
}

// Table returns the named raw table.
func (s *MemorySource) Table(ctx context.Context, name string) (arrow.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("no session table %q", name)
	}
	return rec, nil
}

// Object returns the named raw document.
func (s *MemorySource) Object(ctx context.Context, name string) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[name]
	if !ok {
		return nil, fmt.Errorf("no session document %q", name)
	}
	return obj, nil
}

// Series returns the named series values.
func (s *MemorySource) Series(ctx context.Context, name string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	values, ok := s.series[name]
	if !ok {
		return nil, fmt.Errorf("no session series %q", name)
	}
	return values, nil
}

// Image returns the named raw image.
func (s *MemorySource) Image(ctx context.Context, name string) (models.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[name]
	if !ok {
		return models.Image{}, fmt.Errorf("no session image %q", name)
	}
	return img, nil
}

// Templates returns the stimulus template stacks.
func (s *MemorySource) Templates(ctx context.Context) (map[string][]models.Image, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.templates == nil {
		return nil, fmt.Errorf("no stimulus templates")
	}
	return s.templates, nil
}
