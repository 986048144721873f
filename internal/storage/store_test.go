package storage

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kshetline/asteroid-comet-data-generator/internal/horizons"
)

func testSet(id string, epochs ...float64) *horizons.ElementSet {
	set := &horizons.ElementSet{Body: horizons.Body{ID: id, Name: "test body"}}
	for _, e := range epochs {
		set.Records = append(set.Records, horizons.ElementRecord{Epoch: e, Eccentricity: 0.1})
	}
	return set
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(testSet("1", 2460000.5, 2460001.5)))

	loaded, err := store.Load("1")
	require.NoError(t, err)
	assert.Equal(t, "1", loaded.Body.ID)
	assert.Equal(t, "test body", loaded.Body.Name)
	require.Len(t, loaded.Records, 2)
	assert.InDelta(t, 2460000.5, loaded.Records[0].Epoch, 1e-9)
}

func TestSaveMergesWithExisting(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(testSet("1", 2460000.5, 2460002.5)))
	require.NoError(t, store.Save(testSet("1", 2460001.5, 2460002.5)))

	loaded, err := store.Load("1")
	require.NoError(t, err)
	require.Len(t, loaded.Records, 3)
	assert.InDelta(t, 2460000.5, loaded.Records[0].Epoch, 1e-9)
	assert.InDelta(t, 2460001.5, loaded.Records[1].Epoch, 1e-9)
	assert.InDelta(t, 2460002.5, loaded.Records[2].Epoch, 1e-9)
}

func TestLoadMissingBody(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("9999")
	assert.True(t, os.IsNotExist(err))
}

func TestListEncodesAwkwardDesignations(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Save(testSet("C/2023 A3", 2460000.5)))
	require.NoError(t, store.Save(testSet("433", 2460000.5)))

	ids, err := store.List()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"C/2023 A3", "433"}, ids)

	loaded, err := store.Load("C/2023 A3")
	require.NoError(t, err)
	assert.Equal(t, "C/2023 A3", loaded.Body.ID)
}

func TestSaveRejectsAnonymousSet(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, store.Save(nil))
	assert.Error(t, store.Save(&horizons.ElementSet{}))
}
