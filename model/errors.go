package model

import "fmt"

// MalformedRecordError indicates a record that failed validation. The caller
// logs and skips the record; the batch continues.
type MalformedRecordError struct {
	ReportID string
	Reason   string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed record %v: %v", e.ReportID, e.Reason)
}

// StoreWriteError indicates a failed graph store write for a single record.
// Writes for that record are aborted; previously committed records remain.
type StoreWriteError struct {
	ReportID string
	Err      error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed for record %v: %v", e.ReportID, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// EmbeddingError indicates a failed embedding call for a single narrative.
// The incident is excluded from the similarity comparison set for the run.
type EmbeddingError struct {
	ReportID string
	Err      error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding failed for record %v: %v", e.ReportID, e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
