package main

import (
	"context"
	"fmt"
	"log"

	graphler "github.com/separk-1/GraphLER"
	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
)

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	g, err := graphler.NewGraphLER(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create graphler: %v", err)
	}
	defer g.Close()

	// Two incidents sharing a corrective action in different spellings and
	// citing the same regulation in different notations.
	records := []*model.IncidentRecord{
		{
			ReportID:  "LER-2021-001",
			Title:     "Valve seal failure on startup",
			Narrative: "During plant startup a main steam isolation valve seal failed, requiring a manual shutdown.",
			Facility:  model.Facility{Name: "Plant A", Unit: "1"},
			Mentions: []model.EntityMention{
				{Kind: model.MentionKindCause, Text: "seal wear"},
				{Kind: model.MentionKindCorrectiveAction, Text: "Replace valve seal"},
				{Kind: model.MentionKindComponent, Text: "main steam isolation valve"},
			},
			Regulations: []string{"10 CFR 50.73"},
		},
		{
			ReportID:  "LER-2021-002",
			Title:     "Recurring valve seal degradation",
			Narrative: "Inspection found recurring seal degradation on the same valve type as the previous event.",
			Facility:  model.Facility{Name: "Plant A", Unit: "2"},
			Mentions: []model.EntityMention{
				{Kind: model.MentionKindCorrectiveAction, Text: "replace VALVE seal"},
			},
			Regulations: []string{"10CFR50.73"},
		},
	}

	report, err := g.ProcessBatch(context.Background(), records, nil)
	if err != nil {
		log.Fatalf("Failed to process batch: %v", err)
	}

	fmt.Printf("Validated %d records, skipped %d\n", report.ValidatedRecords, report.SkippedRecords)
	fmt.Printf("Upserted %d incidents, %d entities, %d relationships\n",
		report.Build.IncidentsUpserted,
		report.Build.EntitiesUpserted,
		report.Build.RelationsUpserted,
	)

	// Both spellings resolve to one canonical corrective action node.
	action, err := g.Entities.SelectEntityByKey(model.MentionKindCorrectiveAction, "replace valve seal")
	if err != nil {
		log.Fatalf("Failed to select entity: %v", err)
	}
	fmt.Printf("Canonical corrective action: %q (id %d)\n", action.Name, action.ID)

	// Re-running the same batch never duplicates nodes.
	_, err = g.ProcessBatch(context.Background(), records, nil)
	if err != nil {
		log.Fatalf("Failed to re-process batch: %v", err)
	}
	count, err := g.Incidents.CountIncidents()
	if err != nil {
		log.Fatalf("Failed to count incidents: %v", err)
	}
	fmt.Printf("Incident nodes after re-run: %d\n", count)
}
