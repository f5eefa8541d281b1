package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/docchat/internal/core/domain"
	"github.com/custodia-labs/docchat/internal/core/ports/driven"
	"github.com/custodia-labs/docchat/internal/core/ports/driving"
	"github.com/custodia-labs/docchat/internal/logger"
)

// Ensure IndexService implements the interface.
var _ driving.IndexService = (*IndexService)(nil)

// IndexConfig describes what to index and where.
type IndexConfig struct {
	// Paths are the source documents, in order.
	Paths []string

	// Collection is the vector index collection name.
	Collection string

	// BatchSize is the number of texts sent per embedding call.
	BatchSize int
}

// IndexService builds the corpus once at startup. If the collection already
// holds exactly the chunks the documents produce, embedded by the same model,
// they are reused and only one query embedding is made to check the model.
type IndexService struct {
	loader   driven.DocumentLoader
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	cfg      IndexConfig
}

// NewIndexService creates an index service.
func NewIndexService(
	loader driven.DocumentLoader,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	cfg IndexConfig,
) *IndexService {
	if cfg.Collection == "" {
		cfg.Collection = domain.DefaultCollection
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	return &IndexService{
		loader:   loader,
		chunker:  chunker,
		embedder: embedder,
		index:    index,
		cfg:      cfg,
	}
}

// Build loads the documents, then either reuses the stored collection or
// chunks, embeds and stores them.
func (s *IndexService) Build(ctx context.Context) (*domain.Corpus, error) {
	logger.Section("Index Build")

	if len(s.cfg.Paths) == 0 {
		return nil, fmt.Errorf("%w: no document paths configured", domain.ErrInvalidConfiguration)
	}

	docs, err := s.loader.Load(ctx, s.cfg.Paths)
	if err != nil {
		return nil, fmt.Errorf("load documents: %w", err)
	}

	chunks, err := s.split(ctx, docs)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded %d document(s), %d chunk(s)", len(docs), len(chunks))

	if _, err := s.index.EnsureCollection(ctx, s.cfg.Collection); err != nil {
		return nil, fmt.Errorf("ensure collection %s: %w", s.cfg.Collection, err)
	}

	stored, err := s.index.Count(ctx, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("count collection %s: %w", s.cfg.Collection, err)
	}

	if stored > 0 {
		return s.reuse(ctx, chunks)
	}

	if len(chunks) == 0 {
		logger.Warn("documents produced no text; retrieval will report an empty corpus")
		return domain.NewCorpus(nil), nil
	}

	if err := s.embed(ctx, chunks); err != nil {
		return nil, err
	}

	if err := s.index.Add(ctx, s.cfg.Collection, chunks); err != nil {
		return nil, fmt.Errorf("store chunks in %s: %w", s.cfg.Collection, err)
	}

	logger.Info("Indexed %d chunk(s) into %s", len(chunks), s.cfg.Collection)
	return domain.NewCorpus(chunks), nil
}

// Stats reports the size of the collection.
func (s *IndexService) Stats(ctx context.Context) (*domain.IndexStats, error) {
	chunks, err := s.index.Chunks(ctx, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", s.cfg.Collection, err)
	}

	stats := &domain.IndexStats{
		Collection: s.cfg.Collection,
		Chunks:     len(chunks),
		Model:      s.embedder.ModelName(),
	}
	if len(chunks) > 0 {
		stats.Dimensions = len(chunks[0].Embedding)
	}
	return stats, nil
}

func (s *IndexService) split(ctx context.Context, docs []domain.SourceDocument) ([]domain.DocumentChunk, error) {
	var chunks []domain.DocumentChunk
	for _, doc := range docs {
		docChunks, err := s.chunker.Process(ctx, doc, len(chunks))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", s.chunker.Name(), doc.Path, err)
		}
		logger.Debug("%s: %d chunk(s)", doc.Path, len(docChunks))
		chunks = append(chunks, docChunks...)
	}
	return chunks, nil
}

// embed fills in chunk embeddings, one API call per batch.
func (s *IndexService) embed(ctx context.Context, chunks []domain.DocumentChunk) error {
	for start := 0; start < len(chunks); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(chunks))

		texts := make([]string, end-start)
		for i := range texts {
			texts[i] = chunks[start+i].Text
		}

		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if len(vectors) != len(texts) {
			return fmt.Errorf("embed chunks %d-%d: got %d vectors for %d texts: %w",
				start, end-1, len(vectors), len(texts), domain.ErrTransient)
		}

		for i, v := range vectors {
			chunks[start+i].Embedding = v
		}
		logger.Debug("Embedded chunks %d-%d", start, end-1)
	}
	return nil
}

// sameEmbeddingThreshold is the cosine similarity above which a fresh
// embedding of a stored chunk counts as coming from the same model.
const sameEmbeddingThreshold = 0.999

// reuse returns the stored collection if it matches chunks text for text and
// a fresh embedding of its first chunk matches the stored one. Any
// difference is a configuration error: the collection was built from other
// documents, chunk settings or another embedding model.
func (s *IndexService) reuse(ctx context.Context, chunks []domain.DocumentChunk) (*domain.Corpus, error) {
	stored, err := s.index.Chunks(ctx, s.cfg.Collection)
	if err != nil {
		return nil, fmt.Errorf("read collection %s: %w", s.cfg.Collection, err)
	}

	if err := matchChunks(stored, chunks); err != nil {
		return nil, s.stale(err)
	}

	probe, err := s.embedder.Embed(ctx, stored[0].Text)
	if err != nil {
		return nil, fmt.Errorf("check collection %s embeddings: %w", s.cfg.Collection, err)
	}
	if !SameEmbedding(stored[0].Embedding, probe) {
		return nil, s.stale(fmt.Errorf("stored vectors (%d dimensions) were not produced by %s (%d dimensions)",
			len(stored[0].Embedding), s.embedder.ModelName(), len(probe)))
	}

	logger.Info("Reusing %d stored chunk(s) from %s", len(stored), s.cfg.Collection)
	return domain.NewCorpus(stored), nil
}

func (s *IndexService) stale(reason error) error {
	return fmt.Errorf("%w: collection %s is out of date: %w; set index.collection to a new name or remove the index",
		domain.ErrInvalidConfiguration, s.cfg.Collection, reason)
}

func matchChunks(stored, fresh []domain.DocumentChunk) error {
	if len(stored) != len(fresh) {
		return fmt.Errorf("it holds %d chunks but the documents produce %d", len(stored), len(fresh))
	}
	for i := range stored {
		if stored[i].ID != fresh[i].ID || stored[i].Text != fresh[i].Text {
			return fmt.Errorf("chunk %s differs from the documents", fresh[i].ID)
		}
	}
	return nil
}

// SameEmbedding reports whether two vectors have the same length and point
// the same way.
func SameEmbedding(a, b []float32) bool {
	if len(a) != len(b) {
		return false
	}
	equal := true
	for i := range a {
		if a[i] != b[i] {
			equal = false
			break
		}
	}
	return equal || CosineSimilarity(a, b) >= sameEmbeddingThreshold
}
