package graphler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/separk-1/GraphLER/core/graph"
	"github.com/separk-1/GraphLER/core/linker"
	"github.com/separk-1/GraphLER/core/pipeline"
	"github.com/separk-1/GraphLER/database"
	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
	loadSql "github.com/separk-1/GraphLER/sql"
)

// GraphLER provides a unified interface to the incident knowledge graph:
// record validation, entity resolution, idempotent graph upserts and
// similarity linking between incidents.
type GraphLER struct {
	DB        *helper.Database
	Incidents *database.IncidentsDBHandler
	Entities  *database.EntitiesDBHandler
	Relations *database.RelationsDBHandler
	Validator *pipeline.Validator
	Resolver  *pipeline.Resolver
	Builder   *graph.Builder
	Linker    *linker.Linker // Optional similarity linker
	// Embedding capability shared by the linker and store-side search
	embedder pipeline.EmbedFunc
	// Logging
	log *slog.Logger
}

// NewGraphLER creates a new GraphLER instance with all handlers initialized.
// The incident nodes carry an embedding column of the given dimension.
func NewGraphLER(config *helper.DatabaseConfiguration, embeddingDim int) (*GraphLER, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("graphler", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (incidents and entities first,
	// then relations referencing both)
	// force=false to not reload if functions already exist
	incidents, err := database.NewIncidentsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create incidents handler", err)
	}

	entities, err := database.NewEntitiesDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create entities handler", err)
	}

	relations, err := database.NewRelationsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create relations handler", err)
	}

	return &GraphLER{
		DB:        db,
		Incidents: incidents,
		Entities:  entities,
		Relations: relations,
		Validator: pipeline.NewValidator(logger),
		Resolver:  pipeline.NewResolver(nil, logger),
		Builder:   graph.NewBuilder(incidents, entities, relations, logger),
		log:       logger,
	}, nil
}

// Close closes the database connection
func (g *GraphLER) Close() error {
	if g.DB != nil && g.DB.Instance != nil {
		return g.DB.Instance.Close()
	}
	return nil
}

// SetCFRReference installs the externally supplied regulation reference
// mapping used to classify resolved CFR codes.
func (g *GraphLER) SetCFRReference(reference model.CFRReference) {
	g.Resolver = pipeline.NewResolver(reference, g.log)
}

// SetLinker sets the similarity linker with a custom embedding function.
func (g *GraphLER) SetLinker(embedder pipeline.EmbedFunc, config model.LinkerConfig) {
	g.embedder = embedder
	g.Linker = linker.NewLinker(embedder, config, g.log)
}

// UseDefaultLinker sets up the similarity linker with the local
// all-MiniLM-L6-v2 embedder (384 dimensions) and the default configuration
// (cosine similarity, threshold 0.8).
func (g *GraphLER) UseDefaultLinker() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	g.SetLinker(embedder, model.DefaultLinkerConfig())
	return nil
}

// ProcessOptions controls the non-graph outputs of a batch run.
type ProcessOptions struct {
	// ArtifactPath is where the linked-incidents csv is written. Empty skips
	// the artifact.
	ArtifactPath string
	// PersistLinks also upserts SIMILAR_TO edges between linked incident
	// nodes in the store.
	PersistLinks bool
}

// RunReport summarizes one batch run.
type RunReport struct {
	ValidatedRecords  int
	SkippedRecords    int
	Build             *graph.BuildStats
	Links             []model.SimilarityLink
	ExcludedIncidents []string
}

// ProcessBatch runs the full pipeline over a batch of raw records:
// validation, batch-wide entity resolution, idempotent graph upserts and,
// when a linker is set, similarity linking. Per-record failures are reported
// in the returned error but never abort the batch; the returned report is
// valid even when the error is non-nil.
func (g *GraphLER) ProcessBatch(ctx context.Context, records []*model.IncidentRecord, opts *ProcessOptions) (*RunReport, error) {
	if opts == nil {
		opts = &ProcessOptions{}
	}

	validated := g.Validator.ValidateBatch(records)
	report := &RunReport{
		ValidatedRecords: len(validated),
		SkippedRecords:   len(records) - len(validated),
	}

	g.log.Info("Validated batch",
		slog.Int("validated", report.ValidatedRecords),
		slog.Int("skipped", report.SkippedRecords),
	)

	// Resolution must see the whole batch before any upsert begins.
	resolution := g.Resolver.Resolve(validated)

	stats, buildErr := g.Builder.Build(ctx, validated, resolution)
	report.Build = stats

	if g.Linker != nil {
		result, err := g.Linker.Link(ctx, validated)
		if err != nil {
			return report, helper.NewError("link incidents", err)
		}
		report.Links = result.Links
		report.ExcludedIncidents = result.Excluded

		// The artifact is written before any store-side persistence, so a
		// failing upsert cannot suppress it.
		if opts.ArtifactPath != "" {
			err = model.WriteLinksCSVFile(opts.ArtifactPath, result.Links)
			if err != nil {
				return report, helper.NewError("write linked incidents artifact", err)
			}
			g.log.Info("Wrote linked incidents artifact",
				slog.String("path", opts.ArtifactPath),
				slog.Int("links", len(result.Links)),
			)
		}

		batchErrs := []error{buildErr}
		err = g.Builder.PersistEmbeddings(ctx, result.Embeddings)
		if err != nil {
			batchErrs = append(batchErrs, helper.NewError("persist embeddings", err))
		}

		if opts.PersistLinks {
			err = g.Builder.PersistLinks(ctx, result.Links)
			if err != nil {
				batchErrs = append(batchErrs, helper.NewError("persist similarity links", err))
			}
		}

		return report, errors.Join(batchErrs...)
	}

	return report, buildErr
}

// Search retrieves the incidents nearest to the query text by cosine
// similarity over the stored narrative embeddings.
func (g *GraphLER) Search(ctx context.Context, query string, limit int) ([]*model.IncidentMatch, error) {
	if g.embedder == nil {
		return nil, helper.NewError("similarity search", fmt.Errorf("embedder not set, use SetLinker() or UseDefaultLinker() first"))
	}

	embedding, err := g.embedder(query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return g.Incidents.SelectIncidentsBySimilarity(embedding, limit)
}

// Reset clears all graph data. Intended for a full rebuild of the graph.
func (g *GraphLER) Reset(ctx context.Context) error {
	return g.Relations.ResetGraph(ctx)
}

// ChangeIndexType changes the vector index type on the incident embeddings
// between HNSW and IVFFlat.
func (g *GraphLER) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return g.Incidents.ChangeIndexType(ctx, indexType, params)
}
