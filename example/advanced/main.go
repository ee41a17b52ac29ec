package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	graphler "github.com/separk-1/GraphLER"
	"github.com/separk-1/GraphLER/helper"
	"github.com/separk-1/GraphLER/model"
)

const sampleRecords = `{"report_id":"LER-2021-010","title":"Feedwater pump trip","narrative":"The feedwater pump tripped on low suction pressure during power ascension, causing a reactor scram.","facility":{"name":"Plant B","unit":"1"},"mentions":[{"kind":"Cause","text":"low suction pressure"},{"kind":"CorrectiveAction","text":"recalibrate pressure transmitter"},{"kind":"Component","text":"feedwater pump"}],"regulations":["10 CFR 50.73(a)(2)(iv)"]}
{"report_id":"LER-2021-011","title":"Feedwater pump trip during testing","narrative":"A feedwater pump tripped on low suction pressure while in surveillance testing, and the reactor scrammed.","facility":{"name":"Plant B","unit":"2"},"mentions":[{"kind":"Cause","text":"Low Suction Pressure"},{"kind":"Component","text":"feedwater pump"}],"regulations":["10CFR50.73(a)(2)(iv)"]}
{"report_id":"LER-2021-012","title":"Fire barrier degradation","narrative":"Routine inspection identified degraded fire barrier penetration seals in the cable spreading room.","facility":{"name":"Plant C","unit":"1"},"mentions":[{"kind":"Cause","text":"aging seal material"},{"kind":"CorrectiveAction","text":"replace penetration seals"}],"regulations":["10 CFR 50.48"]}
`

const sampleCFRReference = `cfr,class_1,class_2
10 CFR 50.73,Reporting,Licensee event report system
10 CFR 50.48,Fire protection,
`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

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

	// Write the sample inputs to files the way a real ingest would read them.
	dir, err := os.MkdirTemp("", "graphler-example")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	recordsPath := filepath.Join(dir, "records.jsonl")
	if err := os.WriteFile(recordsPath, []byte(sampleRecords), 0644); err != nil {
		log.Fatalf("Failed to write records: %v", err)
	}
	referencePath := filepath.Join(dir, "cfr_reference.csv")
	if err := os.WriteFile(referencePath, []byte(sampleCFRReference), 0644); err != nil {
		log.Fatalf("Failed to write CFR reference: %v", err)
	}

	records, err := model.ReadRecordsFromFile(recordsPath)
	if err != nil {
		log.Fatalf("Failed to read records: %v", err)
	}

	reference, err := model.ReadCFRReferenceFromFile(referencePath)
	if err != nil {
		log.Fatalf("Failed to read CFR reference: %v", err)
	}
	g.SetCFRReference(reference)

	// The default linker downloads all-MiniLM-L6-v2 on first use (384
	// dimensions, cosine similarity, threshold 0.8).
	if err := g.UseDefaultLinker(); err != nil {
		log.Fatalf("Failed to set up linker: %v", err)
	}

	artifactPath := filepath.Join(dir, "linked_incidents.csv")
	report, err := g.ProcessBatch(context.Background(), records, &graphler.ProcessOptions{
		ArtifactPath: artifactPath,
		PersistLinks: true,
	})
	if err != nil {
		log.Fatalf("Failed to process batch: %v", err)
	}

	fmt.Printf("Validated %d records, skipped %d\n", report.ValidatedRecords, report.SkippedRecords)
	fmt.Printf("Upserted %d incidents, %d entities, %d relationships\n",
		report.Build.IncidentsUpserted,
		report.Build.EntitiesUpserted,
		report.Build.RelationsUpserted,
	)
	for _, link := range report.Links {
		fmt.Printf("Linked %s <-> %s (similarity %.4f)\n", link.IncidentA, link.IncidentB, link.Score)
	}

	artifact, err := os.ReadFile(artifactPath)
	if err != nil {
		log.Fatalf("Failed to read artifact: %v", err)
	}
	fmt.Printf("Artifact %s:\n%s", artifactPath, artifact)

	// The resolved regulation node carries the reference classification.
	regulation, err := g.Entities.SelectEntityByKey(model.MentionKindRegulation, "10 CFR 50.73(a)(2)(iv)")
	if err != nil {
		log.Fatalf("Failed to select regulation: %v", err)
	}
	fmt.Printf("Regulation %q classified as %v\n", regulation.Name, regulation.Metadata["class_1"])

	// Similarity search over the stored narrative embeddings.
	matches, err := g.Search(context.Background(), "pump trip caused by suction pressure", 3)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}
	for _, match := range matches {
		fmt.Printf("Match %s (%.4f): %s\n", match.ReportID, match.Similarity, match.Title)
	}

	// Switch the vector index to HNSW for larger corpora.
	err = g.ChangeIndexType(context.Background(), "hnsw", map[string]interface{}{
		"m":               16,
		"ef_construction": 64,
	})
	if err != nil {
		log.Fatalf("Failed to change index type: %v", err)
	}
	fmt.Println("Switched embedding index to HNSW")
}
