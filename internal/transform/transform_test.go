package transform_test

import (
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/testutils"
	"github.com/pokeapi-lab/pokemon-insights/internal/transform"
)

var samplePokemons = []api.Record{
	{"id": float64(1), "Name": "Bulbasaur", "Types": "Grass/Poison", "Attack": float64(49), "Defense": float64(49), "HP": float64(45), "Speed": float64(45)},
	{"id": float64(4), "Name": "Charmander", "Types": "Fire", "Attack": float64(52), "Defense": float64(43), "HP": float64(39), "Speed": float64(65)},
	{"id": float64(7), "Name": "Squirtle", "Types": "Water", "Attack": float64(48), "Defense": float64(65), "HP": float64(44), "Speed": float64(43)},
}

var sampleCombats = []api.Record{
	{"first_pokemon": float64(1), "second_pokemon": float64(4), "winner": float64(1)},
	{"first_pokemon": float64(1), "second_pokemon": float64(4), "winner": float64(4)},
	{"first_pokemon": float64(1), "second_pokemon": float64(7), "winner": float64(1)},
}

func newTestTransformer(t *testing.T, attrs, combats []api.Record) (*transform.Transformer, string) {
	t.Helper()

	store, err := cache.New(slog.Default(), t.TempDir())
	require.NoError(t, err, "Setup: could not create the store")
	if attrs != nil {
		require.NoError(t, store.Save("pokemon_attributes.json", attrs), "Setup: could not seed attributes")
	}
	if combats != nil {
		require.NoError(t, store.Save("combats.json", combats), "Setup: could not seed combats")
	}

	cfg := transform.Config{ProcessedDir: filepath.Join(t.TempDir(), "processed")}
	require.NoError(t, cfg.Sanitize(slog.Default()), "Setup: Sanitize should not return an error")
	return transform.New(slog.Default(), store, cfg), cfg.ProcessedDir
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err, "Could not open CSV %s", path)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err, "Could not parse CSV %s", path)
	return rows
}

func TestRun(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		attrs   []api.Record
		combats []api.Record

		wantFiles   []string
		wantPokemon bool
		wantCombats bool
	}{
		"Full dataset": {
			attrs: samplePokemons, combats: sampleCombats,
			wantFiles:   []string{"pokemon.csv", "pokemon_by_type.csv", "combats.csv", "pokemon_stats.csv", "top10_winners.csv", "top10_losers.csv"},
			wantPokemon: true, wantCombats: true,
		},
		"Attributes only": {
			attrs:       samplePokemons,
			wantFiles:   []string{"pokemon.csv", "pokemon_by_type.csv"},
			wantPokemon: true,
		},
		"Combats only": {
			combats:     sampleCombats,
			wantFiles:   []string{"combats.csv", "pokemon_stats.csv", "top10_winners.csv", "top10_losers.csv"},
			wantCombats: true,
		},
		"No artifacts": {},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			tr, dir := newTestTransformer(t, tc.attrs, tc.combats)

			out, err := tr.Run()
			require.NoError(t, err, "Run should not return an error")

			contents, err := testutils.GetDirContents(t, dir, 2)
			require.NoError(t, err, "Could not list the processed directory")
			var gotFiles []string
			for f := range contents {
				gotFiles = append(gotFiles, f)
			}
			require.ElementsMatch(t, tc.wantFiles, gotFiles, "Run should write exactly the derivable tables")

			if tc.wantPokemon {
				require.Equal(t, filepath.Join(dir, "pokemon.csv"), out.Pokemon)
			} else {
				require.Empty(t, out.Pokemon)
			}
			if tc.wantCombats {
				require.Equal(t, filepath.Join(dir, "pokemon_stats.csv"), out.Stats)
			} else {
				require.Empty(t, out.Stats)
			}
		})
	}
}

func TestPokemonTable(t *testing.T) {
	t.Parallel()

	tr, dir := newTestTransformer(t, samplePokemons, nil)
	_, err := tr.Run()
	require.NoError(t, err, "Run should not return an error")

	rows := readCSV(t, filepath.Join(dir, "pokemon.csv"))
	require.Equal(t, []string{"attack", "defense", "hp", "id", "name", "speed", "types", "type_1", "type_2"}, rows[0],
		"Columns are the lowercased fields in sorted order plus the split types")
	require.Len(t, rows, 4, "One row per pokemon plus the header")

	require.Equal(t, []string{"49", "49", "45", "1", "Bulbasaur", "45", "Grass/Poison", "Grass", "Poison"}, rows[1],
		"Composite types split into type_1 and type_2")
	require.Equal(t, []string{"52", "43", "39", "4", "Charmander", "65", "Fire", "Fire", ""}, rows[2],
		"A single type leaves type_2 empty")
}

func TestByTypeTable(t *testing.T) {
	t.Parallel()

	tr, dir := newTestTransformer(t, samplePokemons, nil)
	_, err := tr.Run()
	require.NoError(t, err, "Run should not return an error")

	rows := readCSV(t, filepath.Join(dir, "pokemon_by_type.csv"))
	require.Equal(t, [][]string{
		{"type", "count"},
		{"Fire", "1"},
		{"Grass", "1"},
		{"Poison", "1"},
		{"Water", "1"},
	}, rows, "Composite types are exploded and counted per component")
}

func TestCombatsTable(t *testing.T) {
	t.Parallel()

	tr, dir := newTestTransformer(t, samplePokemons, sampleCombats)
	_, err := tr.Run()
	require.NoError(t, err, "Run should not return an error")

	rows := readCSV(t, filepath.Join(dir, "combats.csv"))
	require.Equal(t, [][]string{
		{"first_pokemon", "second_pokemon", "winner"},
		{"Bulbasaur", "Charmander", "Bulbasaur"},
		{"Bulbasaur", "Charmander", "Charmander"},
		{"Bulbasaur", "Squirtle", "Bulbasaur"},
	}, rows, "Numeric identities are resolved to names")
}

func TestStatsTable(t *testing.T) {
	t.Parallel()

	tr, dir := newTestTransformer(t, samplePokemons, sampleCombats)
	_, err := tr.Run()
	require.NoError(t, err, "Run should not return an error")

	rows := readCSV(t, filepath.Join(dir, "pokemon_stats.csv"))
	require.Equal(t, [][]string{
		{"name", "wins", "losses", "total_combats", "win_rate", "id", "types", "attack", "defense", "hp", "speed"},
		{"Bulbasaur", "2", "1", "3", "0.6667", "1", "Grass/Poison", "49", "49", "45", "45"},
		{"Charmander", "1", "1", "2", "0.5", "4", "Fire", "52", "43", "39", "65"},
		{"Squirtle", "0", "1", "1", "0", "7", "Water", "48", "65", "44", "43"},
	}, rows, "Stats join attributes by name and sort by win rate then wins")
}

func TestTopTables(t *testing.T) {
	t.Parallel()

	// 12 pokemons without attributes, each with i wins against the next one.
	var combats []api.Record
	for i := 1; i <= 12; i++ {
		for n := 0; n < i; n++ {
			combats = append(combats, api.Record{
				"first_pokemon":  float64(i),
				"second_pokemon": float64(i%12 + 1),
				"winner":         float64(i),
			})
		}
	}

	tr, dir := newTestTransformer(t, nil, combats)
	_, err := tr.Run()
	require.NoError(t, err, "Run should not return an error")

	winners := readCSV(t, filepath.Join(dir, "top10_winners.csv"))
	require.Len(t, winners, 11, "Top winners is capped at 10 rows plus the header")
	require.Equal(t, "12", winners[1][0], "The most winning pokemon comes first")
	require.Equal(t, "12", winners[1][1])

	losers := readCSV(t, filepath.Join(dir, "top10_losers.csv"))
	require.Len(t, losers, 11, "Top losers is capped at 10 rows plus the header")
	require.Equal(t, "1", losers[1][0], "The most losing pokemon comes first")
	require.Equal(t, "12", losers[1][2])
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		rows []transform.CombatRow
	}{
		"Win rate property": {rows: []transform.CombatRow{
			{First: "a", Second: "b", Winner: "a"},
			{First: "a", Second: "b", Winner: "b"},
			{First: "a", Second: "c", Winner: "a"},
		}},
		"Winner outside the pair": {rows: []transform.CombatRow{
			{First: "a", Second: "b", Winner: "c"},
		}},
		"Ties broken by wins then name": {rows: []transform.CombatRow{
			{First: "a", Second: "b", Winner: "a"},
			{First: "a", Second: "b", Winner: "a"},
			{First: "c", Second: "d", Winner: "c"},
			{First: "c", Second: "d", Winner: "c"},
			{First: "e", Second: "f", Winner: "e"},
		}},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := transform.ComputeStats(tc.rows, nil)
			want := testutils.LoadWithUpdateFromGoldenYAML(t, got)
			require.Equal(t, want, got, "ComputeStats should derive the expected statistics")
		})
	}
}

func TestNormalizeCombats(t *testing.T) {
	t.Parallel()

	typed := []transform.PokemonFields{{ID: 1, Name: "Bulbasaur"}}
	got := transform.NormalizeCombats([]api.Record{
		{"first_pokemon": float64(1), "second_pokemon": float64(99), "winner": "Bulbasaur"},
		{"first_pokemon": "Onix", "second_pokemon": float64(1), "winner": float64(1)},
	}, typed)

	require.Equal(t, []transform.CombatRow{
		{First: "Bulbasaur", Second: "99", Winner: "Bulbasaur"},
		{First: "Onix", Second: "Bulbasaur", Winner: "Bulbasaur"},
	}, got, "Known identities resolve to names, unknown ones stay verbatim")
}

func TestRunFailsOnCorruptArtifact(t *testing.T) {
	t.Parallel()

	store, err := cache.New(slog.Default(), t.TempDir())
	require.NoError(t, err, "Setup: could not create the store")
	require.NoError(t, os.WriteFile(store.Path("pokemon_attributes.json"), []byte("{corrupt"), 0600),
		"Setup: could not write the artifact")

	cfg := transform.Config{ProcessedDir: t.TempDir()}
	require.NoError(t, cfg.Sanitize(slog.Default()), "Setup: Sanitize should not return an error")

	_, err = transform.New(slog.Default(), store, cfg).Run()
	require.Error(t, err, "Run should fail on a corrupt artifact")
}
