package pipeline

import (
	"io"
	"log/slog"
	"testing"

	"github.com/separk-1/GraphLER/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestValidateRecord(t *testing.T) {
	validator := NewValidator(testLogger())

	t.Run("Valid record passes and mentions are normalized", func(t *testing.T) {
		record := &model.IncidentRecord{
			ReportID:  "LER-2019-001",
			Narrative: "Valve seal failure during startup.",
			Mentions: []model.EntityMention{
				{Kind: model.MentionKindCorrectiveAction, Text: "  Replace   VALVE seal "},
			},
			Regulations: []string{" 10 CFR 50.72 ", ""},
		}

		validated, err := validator.ValidateRecord(record)
		require.NoError(t, err, "Expected ValidateRecord to not return an error")
		require.Len(t, validated.Mentions, 1)
		assert.Equal(t, "replace valve seal", validated.Mentions[0].Normalized)
		assert.Equal(t, []string{"10 CFR 50.72"}, validated.Regulations, "Expected regulations to be trimmed and empties dropped")
	})

	t.Run("Missing narrative is malformed", func(t *testing.T) {
		record := &model.IncidentRecord{ReportID: "LER-2019-002", Narrative: "   "}

		_, err := validator.ValidateRecord(record)
		require.Error(t, err)

		var malformed *model.MalformedRecordError
		require.ErrorAs(t, err, &malformed, "Expected a MalformedRecordError")
		assert.Equal(t, "LER-2019-002", malformed.ReportID)
		assert.Contains(t, malformed.Reason, "narrative")
	})

	t.Run("Missing report id is malformed", func(t *testing.T) {
		record := &model.IncidentRecord{Narrative: "n"}

		_, err := validator.ValidateRecord(record)
		var malformed *model.MalformedRecordError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "report id")
	})

	t.Run("Unrecognized mention kind is malformed", func(t *testing.T) {
		record := &model.IncidentRecord{
			ReportID:  "LER-2019-003",
			Narrative: "n",
			Mentions:  []model.EntityMention{{Kind: "Influence", Text: "x"}},
		}

		_, err := validator.ValidateRecord(record)
		var malformed *model.MalformedRecordError
		require.ErrorAs(t, err, &malformed)
		assert.Contains(t, malformed.Reason, "Influence")
	})

	t.Run("Mention with empty normalized text is dropped", func(t *testing.T) {
		record := &model.IncidentRecord{
			ReportID:  "LER-2019-004",
			Narrative: "n",
			Mentions: []model.EntityMention{
				{Kind: model.MentionKindCause, Text: "  ... "},
				{Kind: model.MentionKindCause, Text: "seal wear"},
			},
		}

		validated, err := validator.ValidateRecord(record)
		require.NoError(t, err)
		require.Len(t, validated.Mentions, 1, "Expected punctuation-only mention to be dropped")
		assert.Equal(t, "seal wear", validated.Mentions[0].Normalized)
	})

	t.Run("Input record is not mutated", func(t *testing.T) {
		record := &model.IncidentRecord{
			ReportID:  "LER-2019-005",
			Narrative: "n",
			Mentions:  []model.EntityMention{{Kind: model.MentionKindCause, Text: "Seal Wear"}},
		}

		_, err := validator.ValidateRecord(record)
		require.NoError(t, err)
		assert.Empty(t, record.Mentions[0].Normalized, "Expected the raw record to stay untouched")
	})
}

func TestValidateBatch(t *testing.T) {
	validator := NewValidator(testLogger())

	t.Run("Malformed records are skipped, batch continues", func(t *testing.T) {
		records := []*model.IncidentRecord{
			{ReportID: "A", Narrative: "valid"},
			{ReportID: "B", Narrative: ""},
			{ReportID: "C", Narrative: "also valid"},
		}

		validated := validator.ValidateBatch(records)
		require.Len(t, validated, 2, "Expected the malformed record to be skipped")
		assert.Equal(t, "A", validated[0].ReportID)
		assert.Equal(t, "C", validated[1].ReportID)
	})

	t.Run("Empty batch yields empty result", func(t *testing.T) {
		validated := validator.ValidateBatch(nil)
		assert.Empty(t, validated)
	})
}
