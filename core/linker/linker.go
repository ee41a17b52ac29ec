package linker

import (
	"context"
	"log/slog"
	"math"

	"github.com/separk-1/GraphLER/core/pipeline"
	"github.com/separk-1/GraphLER/model"
	"golang.org/x/sync/errgroup"
)

// Linker embeds incident narratives and emits a thresholded similarity link
// set between incidents. It is a pure function of its inputs and never
// touches the graph store.
type Linker struct {
	embedder pipeline.EmbedFunc
	config   model.LinkerConfig
	log      *slog.Logger
}

// NewLinker creates a similarity linker with the given embedding capability.
func NewLinker(embedder pipeline.EmbedFunc, config model.LinkerConfig, logger *slog.Logger) *Linker {
	if config.MaxParallel <= 0 {
		config.MaxParallel = model.DefaultLinkerConfig().MaxParallel
	}
	if config.Method == "" {
		config.Method = model.DefaultLinkerConfig().Method
	}
	return &Linker{
		embedder: embedder,
		config:   config,
		log:      logger,
	}
}

// Result holds the computed link set together with the narrative embeddings
// and the incidents excluded because their embedding call failed.
type Result struct {
	Links      []model.SimilarityLink
	Embeddings map[string][]float32
	Excluded   []string
}

// Link computes narrative embeddings for every incident in the batch and
// emits one link per unordered incident pair whose cosine similarity meets
// the configured threshold (inclusive). Embedding calls run concurrently with
// bounded parallelism; the pairwise comparison waits for the whole batch. An
// embedding failure excludes only that incident from the comparison set.
func (l *Linker) Link(ctx context.Context, records []*model.IncidentRecord) (*Result, error) {
	embeddings := make([][]float32, len(records))
	embedErrs := make([]error, len(records))

	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(l.config.MaxParallel)
	for i := range records {
		idx := i
		record := records[i]
		eg.Go(func() error {
			if err := ectx.Err(); err != nil {
				return err
			}
			embedding, err := l.embedder(record.Narrative)
			if err != nil {
				embedErrs[idx] = &model.EmbeddingError{ReportID: record.ReportID, Err: err}
				return nil
			}
			embeddings[idx] = embedding
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &Result{
		Embeddings: make(map[string][]float32, len(records)),
	}
	for i, record := range records {
		if embedErrs[i] != nil {
			l.log.Warn("Excluding incident from similarity comparison", slog.String("error", embedErrs[i].Error()))
			result.Excluded = append(result.Excluded, record.ReportID)
			continue
		}
		result.Embeddings[record.ReportID] = embeddings[i]
	}

	for i := 0; i < len(records); i++ {
		if embeddings[i] == nil {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			if embeddings[j] == nil {
				continue
			}
			score := CosineSimilarity(embeddings[i], embeddings[j])
			if score >= l.config.Threshold {
				result.Links = append(result.Links, model.SimilarityLink{
					IncidentA: records[i].ReportID,
					IncidentB: records[j].ReportID,
					Score:     score,
					Threshold: l.config.Threshold,
					Method:    l.config.Method,
				})
			}
		}
	}

	l.log.Info("Computed similarity links",
		slog.Int("incidents", len(records)),
		slog.Int("links", len(result.Links)),
		slog.Int("excluded", len(result.Excluded)),
	)

	return result, nil
}

// CosineSimilarity computes the cosine similarity of two equal-length
// vectors. Zero vectors yield a similarity of 0.
func CosineSimilarity(a []float32, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
