package model

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteLinksCSV(t *testing.T) {
	t.Run("Write links with fixed precision", func(t *testing.T) {
		links := []SimilarityLink{
			{IncidentA: "LER-1", IncidentB: "LER-2", Score: 0.87654321},
			{IncidentA: "LER-1", IncidentB: "LER-3", Score: 0.8},
		}

		var buf bytes.Buffer
		err := WriteLinksCSV(&buf, links)
		require.NoError(t, err, "Expected WriteLinksCSV to not return an error")

		expected := "incident_a,incident_b,similarity\nLER-1,LER-2,0.8765\nLER-1,LER-3,0.8000\n"
		assert.Equal(t, expected, buf.String(), "Expected csv with header and 4 decimal scores")
	})

	t.Run("Write empty link set", func(t *testing.T) {
		var buf bytes.Buffer
		err := WriteLinksCSV(&buf, nil)
		require.NoError(t, err)

		assert.Equal(t, "incident_a,incident_b,similarity\n", buf.String(), "Expected header only")
	})
}

func TestCanonicalEntityAddAlias(t *testing.T) {
	entity := &CanonicalEntity{Kind: MentionKindRegulation, Name: "10 CFR 50.72(b)(2)"}

	entity.AddAlias("10 CFR 50.72")
	entity.AddAlias("10 CFR 50.72")
	entity.AddAlias("10 CFR 50.72(b)(2)")
	entity.AddAlias("")

	assert.Equal(t, []string{"10 CFR 50.72"}, entity.Aliases, "Expected duplicate, canonical and empty aliases to be ignored")
}
