package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentionKindValid(t *testing.T) {
	t.Run("Recognized kinds are valid", func(t *testing.T) {
		for _, kind := range AllMentionKinds {
			assert.True(t, kind.Valid(), "Expected kind %s to be valid", kind)
		}
	})

	t.Run("Unknown kind is invalid", func(t *testing.T) {
		assert.False(t, MentionKind("Influence").Valid(), "Expected unknown kind to be invalid")
		assert.False(t, MentionKind("").Valid(), "Expected empty kind to be invalid")
	})
}

func TestMentionKindRelationType(t *testing.T) {
	tests := []struct {
		kind     MentionKind
		expected RelationType
	}{
		{MentionKindCause, RelationTypeCausedBy},
		{MentionKindCorrectiveAction, RelationTypeCorrectedBy},
		{MentionKindComponent, RelationTypeInvolves},
		{MentionKindRegulation, RelationTypeCites},
	}

	for _, test := range tests {
		t.Run(string(test.kind), func(t *testing.T) {
			assert.Equal(t, test.expected, test.kind.RelationType())
		})
	}
}

func TestReadRecords(t *testing.T) {
	t.Run("Read valid JSONL records", func(t *testing.T) {
		input := `{"report_id":"LER-2019-001","narrative":"Valve seal failure during startup.","mentions":[{"kind":"Cause","text":"seal degradation"}],"regulations":["10 CFR 50.72"]}
{"report_id":"LER-2019-002","narrative":"Pump trip during surveillance.","facility":{"name":"Plant A","unit":"1"}}`

		records, err := ReadRecords(strings.NewReader(input))
		require.NoError(t, err, "Expected ReadRecords to not return an error")
		require.Len(t, records, 2, "Expected two records")

		assert.Equal(t, "LER-2019-001", records[0].ReportID)
		assert.Equal(t, "Valve seal failure during startup.", records[0].Narrative)
		require.Len(t, records[0].Mentions, 1)
		assert.Equal(t, MentionKindCause, records[0].Mentions[0].Kind)
		assert.Equal(t, []string{"10 CFR 50.72"}, records[0].Regulations)

		assert.Equal(t, "Plant A", records[1].Facility.Name)
		assert.Equal(t, "1", records[1].Facility.Unit)
	})

	t.Run("Skip blank lines", func(t *testing.T) {
		input := "{\"report_id\":\"A\",\"narrative\":\"n\"}\n\n{\"report_id\":\"B\",\"narrative\":\"n\"}\n"

		records, err := ReadRecords(strings.NewReader(input))
		require.NoError(t, err)
		assert.Len(t, records, 2, "Expected blank lines to be skipped")
	})

	t.Run("Invalid JSON returns error", func(t *testing.T) {
		_, err := ReadRecords(strings.NewReader("{not json}"))
		assert.Error(t, err, "Expected invalid JSON to return an error")
	})

	t.Run("Empty input returns no records", func(t *testing.T) {
		records, err := ReadRecords(strings.NewReader(""))
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}
