package pipeline

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/separk-1/GraphLER/model"
)

// Validator normalizes and validates entity-enriched incident records before
// graph insertion. It does not touch the graph store.
type Validator struct {
	log *slog.Logger
}

// NewValidator creates a new record validator.
func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{log: logger}
}

// ValidateRecord validates a single raw record and returns its validated
// form. A MalformedRecordError is returned for a missing report id, a missing
// or empty narrative, or a mention kind outside the recognized set. Mention
// raw text is whitespace- and case-normalized; mentions whose normalized text
// is empty are dropped.
func (v *Validator) ValidateRecord(record *model.IncidentRecord) (*model.IncidentRecord, error) {
	if record == nil {
		return nil, &model.MalformedRecordError{Reason: "record is nil"}
	}
	if strings.TrimSpace(record.ReportID) == "" {
		return nil, &model.MalformedRecordError{ReportID: record.ReportID, Reason: "missing report id"}
	}
	if strings.TrimSpace(record.Narrative) == "" {
		return nil, &model.MalformedRecordError{ReportID: record.ReportID, Reason: "missing or empty narrative"}
	}

	validated := *record
	validated.Mentions = make([]model.EntityMention, 0, len(record.Mentions))

	for _, mention := range record.Mentions {
		if !mention.Kind.Valid() {
			return nil, &model.MalformedRecordError{
				ReportID: record.ReportID,
				Reason:   fmt.Sprintf("unrecognized mention kind %q", mention.Kind),
			}
		}

		mention.Normalized = NormalizeText(mention.Text)
		if mention.Normalized == "" {
			continue
		}
		validated.Mentions = append(validated.Mentions, mention)
	}

	validated.Regulations = make([]string, 0, len(record.Regulations))
	for _, code := range record.Regulations {
		if strings.TrimSpace(code) == "" {
			continue
		}
		validated.Regulations = append(validated.Regulations, strings.TrimSpace(code))
	}

	return &validated, nil
}

// ValidateBatch validates all records in a batch. Malformed records are
// logged and skipped; no record failure aborts the batch.
func (v *Validator) ValidateBatch(records []*model.IncidentRecord) []*model.IncidentRecord {
	validated := make([]*model.IncidentRecord, 0, len(records))
	for _, record := range records {
		valid, err := v.ValidateRecord(record)
		if err != nil {
			v.log.Warn("Skipping malformed record", slog.String("error", err.Error()))
			continue
		}
		validated = append(validated, valid)
	}
	return validated
}
