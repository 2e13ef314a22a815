package protest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmbeddedDataset(t *testing.T) {
	db, err := Load()
	require.NoError(t, err)

	assert.NotEmpty(t, db.Reagents())
	assert.NotEmpty(t, db.Substances())

	mdma, ok := db.Substance("mdma")
	require.True(t, ok)
	assert.Equal(t, "MDMA", mdma.Name)

	res, ok := db.Result("mdma", "marquis")
	require.True(t, ok)
	assert.True(t, res.Colorful())

	res, ok = db.Result("mdma", "scott")
	require.True(t, ok)
	assert.False(t, res.Colorful())

	_, ok = db.Result("mdma", "nope")
	assert.False(t, ok)
}

func TestWellKnownHonorsThresholds(t *testing.T) {
	db, err := Load()
	require.NoError(t, err)

	known := db.WellKnown(6, 2)
	require.NotEmpty(t, known)

	ids := make(map[string]bool, len(known))
	for _, s := range known {
		ids[s.ID] = true

		results, colorful := 0, 0
		for _, res := range db.Results(s.ID) {
			results++
			if res.Colorful() {
				colorful++
			}
		}
		assert.GreaterOrEqual(t, results, 6, "substance %s", s.ID)
		assert.GreaterOrEqual(t, colorful, 2, "substance %s", s.ID)
	}

	assert.True(t, ids["mdma"])
	assert.False(t, ids["caffeine"], "caffeine has too few results to be well known")
	assert.False(t, ids["mescaline"], "mescaline has five results, below the threshold")

	// Impossible thresholds select nothing.
	assert.Empty(t, db.WellKnown(100, 0))
}

func TestParseRejectsDanglingReferences(t *testing.T) {
	_, err := Parse([]byte(`{
		"reagents": [{"id": "marquis", "name": "Marquis"}],
		"substances": [],
		"results": {"ghost": {"marquis": {"description": "Black", "colors": []}}}
	}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{
		"reagents": [],
		"substances": [{"id": "mdma", "name": "MDMA"}],
		"results": {"mdma": {"ghost": {"description": "Black", "colors": []}}}
	}`))
	assert.Error(t, err)

	_, err = Parse([]byte(`{broken`))
	assert.Error(t, err)
}

func TestResultsReturnsCopies(t *testing.T) {
	db, err := Load()
	require.NoError(t, err)

	row := db.Results("lsd")
	delete(row, "ehrlich")

	_, ok := db.Result("lsd", "ehrlich")
	assert.True(t, ok, "mutating a returned row must not affect the database")
}
