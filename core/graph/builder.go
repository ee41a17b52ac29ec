package graph

import (
	"context"
	"errors"
	"log/slog"

	"github.com/separk-1/GraphLER/core/pipeline"
	"github.com/separk-1/GraphLER/database"
	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
)

// Builder maps validated records and their resolved canonical entities into
// idempotent upserts against the graph store. The store's unique constraints
// on the natural keys are the synchronization point; re-running the same
// batch never duplicates nodes or relationships.
type Builder struct {
	incidents *database.IncidentsDBHandler
	entities  *database.EntitiesDBHandler
	relations *database.RelationsDBHandler
	log       *slog.Logger
}

// NewBuilder creates a graph builder over the given database handlers.
func NewBuilder(
	incidents *database.IncidentsDBHandler,
	entities *database.EntitiesDBHandler,
	relations *database.RelationsDBHandler,
	logger *slog.Logger,
) *Builder {
	return &Builder{
		incidents: incidents,
		entities:  entities,
		relations: relations,
		log:       logger,
	}
}

// BuildStats summarizes one build pass.
type BuildStats struct {
	IncidentsUpserted int
	EntitiesUpserted  int
	RelationsUpserted int
	FailedRecords     []string
}

// Build upserts one node per record, one node per canonical entity and one
// typed relationship per (record, mention) pair. Resolution must cover the
// whole batch before Build is called. A store write failure aborts only the
// failing record's writes; a failing canonical entity upsert fails only the
// records that mention that entity. Previously committed records remain and
// the returned error reports each failed record id. Re-running the same
// batch is idempotent.
func (b *Builder) Build(ctx context.Context, records []*model.IncidentRecord, resolution *pipeline.Resolution) (*BuildStats, error) {
	stats := &BuildStats{}
	var recordErrs []error

	// Canonical entity nodes go in first so relationship writes can reference
	// their ids.
	entityErrs := map[*model.CanonicalEntity]error{}
	for _, entity := range resolution.Entities() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		err := b.entities.InsertEntity(entity)
		if err != nil {
			b.log.Error("Upsert of canonical entity failed",
				slog.String("name", entity.Name),
				slog.String("error", err.Error()),
			)
			entityErrs[entity] = err
			continue
		}
		stats.EntitiesUpserted++
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		err := b.buildRecord(record, resolution, entityErrs)
		if err != nil {
			writeErr := &model.StoreWriteError{ReportID: record.ReportID, Err: err}
			b.log.Error("Aborting writes for record", slog.String("error", writeErr.Error()))
			stats.FailedRecords = append(stats.FailedRecords, record.ReportID)
			recordErrs = append(recordErrs, writeErr)
			continue
		}

		stats.IncidentsUpserted++
		stats.RelationsUpserted += len(resolution.MentionsFor(record.ReportID))
	}

	b.log.Info("Graph build complete",
		slog.Int("incidents", stats.IncidentsUpserted),
		slog.Int("entities", stats.EntitiesUpserted),
		slog.Int("relations", stats.RelationsUpserted),
		slog.Int("failed", len(stats.FailedRecords)),
	)

	return stats, errors.Join(recordErrs...)
}

// buildRecord upserts a single incident node and its typed relationships.
// Records whose mentions reference an entity that failed to upsert are
// skipped entirely so no half-linked incident node is left behind.
func (b *Builder) buildRecord(record *model.IncidentRecord, resolution *pipeline.Resolution, entityErrs map[*model.CanonicalEntity]error) error {
	for _, mention := range resolution.MentionsFor(record.ReportID) {
		if err, failed := entityErrs[mention.Entity]; failed {
			return helper.NewError("canonical entity unavailable", err)
		}
	}

	err := b.incidents.InsertIncident(record)
	if err != nil {
		return err
	}

	for _, mention := range resolution.MentionsFor(record.ReportID) {
		relation := &model.Relation{
			IncidentID: record.ID,
			EntityID:   mention.Entity.ID,
			Type:       mention.Kind.RelationType(),
		}
		err := b.relations.InsertRelation(relation)
		if err != nil {
			return err
		}
	}

	return nil
}

// PersistEmbeddings stores narrative embeddings on the incident nodes so
// similarity search can run inside the store.
func (b *Builder) PersistEmbeddings(ctx context.Context, embeddings map[string][]float32) error {
	for reportID, embedding := range embeddings {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := b.incidents.UpdateIncidentEmbedding(reportID, embedding)
		if err != nil {
			return &model.StoreWriteError{ReportID: reportID, Err: err}
		}
	}
	return nil
}

// PersistLinks upserts similarity edges between linked incident nodes. The
// unordered pair is the natural key; scores are refreshed on re-runs. A
// failing upsert skips only that link, so a link referencing a record whose
// graph write failed never blocks the remaining links; the returned error
// reports each failed pair.
func (b *Builder) PersistLinks(ctx context.Context, links []model.SimilarityLink) error {
	var linkErrs []error
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(linkErrs, err)...)
		}

		err := b.persistLink(link)
		if err != nil {
			b.log.Error("Skipping similarity link", slog.String("error", err.Error()))
			linkErrs = append(linkErrs, err)
		}
	}
	return errors.Join(linkErrs...)
}

func (b *Builder) persistLink(link model.SimilarityLink) error {
	incidentA, err := b.incidents.SelectIncidentByReportID(link.IncidentA)
	if err != nil {
		return &model.StoreWriteError{ReportID: link.IncidentA, Err: err}
	}
	incidentB, err := b.incidents.SelectIncidentByReportID(link.IncidentB)
	if err != nil {
		return &model.StoreWriteError{ReportID: link.IncidentB, Err: err}
	}

	incidentLink := &model.IncidentLink{
		IncidentAID: incidentA.ID,
		IncidentBID: incidentB.ID,
		Score:       link.Score,
		Metadata: model.Metadata{
			"threshold": link.Threshold,
			"method":    link.Method,
		},
	}
	err = b.relations.InsertIncidentLink(incidentLink)
	if err != nil {
		return &model.StoreWriteError{ReportID: link.IncidentA, Err: err}
	}
	return nil
}
