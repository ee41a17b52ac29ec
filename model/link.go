package model

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

// SimilarityLink is an unordered pair of incident report ids with the cosine
// similarity of their narrative embeddings. Links are recomputed each run;
// only the written artifact persists.
type SimilarityLink struct {
	IncidentA string  `json:"incident_a"`
	IncidentB string  `json:"incident_b"`
	Score     float64 `json:"score"`
	Threshold float64 `json:"threshold"`
	Method    string  `json:"method"`
}

// WriteLinksCSV writes the linked-incidents artifact, one row per link with a
// fixed 4 decimal score precision.
func WriteLinksCSV(w io.Writer, links []SimilarityLink) error {
	writer := csv.NewWriter(w)

	err := writer.Write([]string{"incident_a", "incident_b", "similarity"})
	if err != nil {
		return err
	}

	for _, link := range links {
		err := writer.Write([]string{link.IncidentA, link.IncidentB, fmt.Sprintf("%.4f", link.Score)})
		if err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteLinksCSVFile writes the linked-incidents artifact to a file.
func WriteLinksCSVFile(filePath string, links []SimilarityLink) error {
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteLinksCSV(file, links)
}
