package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is an in-memory implementation of driven.VectorIndex.
type VectorIndex struct {
	mu          sync.RWMutex
	collections map[string]domain.Collection
	chunks      map[string][]domain.DocumentChunk
	ids         map[string]map[string]struct{}
}

// NewVectorIndex creates a new in-memory vector index.
func NewVectorIndex() *VectorIndex {
	return &VectorIndex{
		collections: make(map[string]domain.Collection),
		chunks:      make(map[string][]domain.DocumentChunk),
		ids:         make(map[string]map[string]struct{}),
	}
}

// EnsureCollection returns the named collection, creating it if absent.
func (v *VectorIndex) EnsureCollection(_ context.Context, name string) (domain.Collection, error) {
	if name == "" {
		return domain.Collection{}, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if c, ok := v.collections[name]; ok {
		return c, nil
	}
	c := domain.Collection{Name: name, CreatedAt: time.Now().UTC()}
	v.collections[name] = c
	v.ids[name] = make(map[string]struct{})
	return c, nil
}

// Add appends chunks to a collection. Nothing is stored if any ID collides.
func (v *VectorIndex) Add(_ context.Context, collection string, chunks []domain.DocumentChunk) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	existing, ok := v.ids[collection]
	if !ok {
		return fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}

	seen := make(map[string]struct{}, len(chunks))
	for i := range chunks {
		id := chunks[i].ID
		if _, dup := existing[id]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
	}

	for i := range chunks {
		c := chunks[i]
		c.Embedding = append([]float32(nil), c.Embedding...)
		v.chunks[collection] = append(v.chunks[collection], c)
		existing[c.ID] = struct{}{}
	}
	return nil
}

// Chunks returns every chunk of a collection in insertion order.
func (v *VectorIndex) Chunks(_ context.Context, collection string) ([]domain.DocumentChunk, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if _, ok := v.collections[collection]; !ok {
		return nil, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	out := make([]domain.DocumentChunk, len(v.chunks[collection]))
	copy(out, v.chunks[collection])
	return out, nil
}

// Count returns the number of chunks in a collection.
func (v *VectorIndex) Count(_ context.Context, collection string) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if _, ok := v.collections[collection]; !ok {
		return 0, fmt.Errorf("collection %s: %w", collection, domain.ErrNotFound)
	}
	return len(v.chunks[collection]), nil
}

// Close is a no-op.
func (v *VectorIndex) Close() error {
	return nil
}
