package zonefile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	table, err := Load("testdata/zones.yaml")
	require.NoError(t, err)

	assert.Equal(t, []string{"zone-hillside", "zone-old-town", "zone-riverside"}, table.IDs())

	river, ok := table.Lookup("zone-riverside")
	require.True(t, ok)
	assert.Equal(t, 2, river.HospitalCount)
	assert.InDelta(t, 0.86, river.Vulnerability(), 1e-9)

	oldTown, ok := table.Lookup("zone-old-town")
	require.True(t, ok)
	assert.InDelta(t, 0.245, oldTown.Vulnerability(), 1e-9, "omitted attributes count as zero")
	assert.False(t, oldTown.IsCriticalInfrastructure())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read zone file")
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		contains string
	}{
		{"missing id", "zones:\n  - name: Nameless\n", "missing id"},
		{"unknown field", "zones:\n  - id: z\n    river_distance: 3\n", "river_distance"},
		{"bad type", "zones:\n  - id: z\n    hospital_count: many\n", "decode zones"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestDecode_Empty(t *testing.T) {
	zones, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, zones)
}
