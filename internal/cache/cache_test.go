package cache_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "raw")
	store, err := cache.New(slog.Default(), dir)
	require.NoError(t, err, "New should not return an error")

	require.DirExists(t, dir, "New should create the cache directory")
	require.Equal(t, dir, store.Dir())
}

func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		records []api.Record
	}{
		"Several records": {records: []api.Record{
			{"id": float64(1), "name": "Bulbasaur"},
			{"id": float64(2), "name": "Ivysaur"},
		}},
		"Empty list": {records: []api.Record{}},
		"Nil list":   {records: nil},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, err := cache.New(slog.Default(), t.TempDir())
			require.NoError(t, err, "Setup: New should not return an error")

			require.False(t, store.Exists("pokemon.json"), "Artifact must not exist before saving")
			require.NoError(t, store.Save("pokemon.json", tc.records), "Save should not return an error")
			require.True(t, store.Exists("pokemon.json"), "Artifact should exist after saving")

			got, err := store.Load("pokemon.json")
			require.NoError(t, err, "Load should not return an error")

			want := tc.records
			if want == nil {
				// A nil collection is persisted as an empty JSON list.
				want = []api.Record{}
			}
			require.Equal(t, want, got, "Load should return the saved records")
		})
	}
}

func TestSaveReplaces(t *testing.T) {
	t.Parallel()

	store, err := cache.New(slog.Default(), t.TempDir())
	require.NoError(t, err, "Setup: New should not return an error")

	require.NoError(t, store.Save("combats.json", []api.Record{{"winner": "a"}}), "Setup: Save should not return an error")
	require.NoError(t, store.Save("combats.json", []api.Record{{"winner": "b"}, {"winner": "c"}}), "Save should not return an error")

	got, err := store.Load("combats.json")
	require.NoError(t, err, "Load should not return an error")
	require.Len(t, got, 2, "Save should fully replace the artifact")
	require.Equal(t, "b", got[0]["winner"])
}

func TestSaveFormat(t *testing.T) {
	t.Parallel()

	store, err := cache.New(slog.Default(), t.TempDir())
	require.NoError(t, err, "Setup: New should not return an error")
	require.NoError(t, store.Save("one.json", []api.Record{{"id": 1}}), "Save should not return an error")

	data, err := os.ReadFile(store.Path("one.json"))
	require.NoError(t, err, "Setup: could not read the artifact back")

	want := "[\n  {\n    \"id\": 1\n  }\n]\n"
	require.Equal(t, want, string(data), "Artifacts are pretty-printed JSON with a trailing newline")
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		content string
		missing bool
	}{
		"Missing artifact": {missing: true},
		"Corrupt JSON":     {content: "{not json"},
		"Wrong shape":      {content: `{"id": 1}`},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			store, err := cache.New(slog.Default(), t.TempDir())
			require.NoError(t, err, "Setup: New should not return an error")

			if !tc.missing {
				require.NoError(t, os.WriteFile(store.Path("bad.json"), []byte(tc.content), 0600), "Setup: could not write the artifact")
			}

			_, err = store.Load("bad.json")
			require.Error(t, err, "Load should return an error")
		})
	}
}
