// Package transform turns the raw cached collections into derived CSV tables
// ready for consumption by the dashboard.
package transform

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/ubuntu/decorate"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
)

// Config represents the transform specific settings.
type Config struct {
	ProcessedDir string
}

// Sanitize sets defaults on the Config.
func (c *Config) Sanitize(l *slog.Logger) error {
	if c.ProcessedDir == "" {
		c.ProcessedDir = constants.DefaultProcessedDir
		l.Debug("No processed dir provided, defaulting", "processedDir", c.ProcessedDir)
	}
	return nil
}

// Outputs holds the paths of the CSV tables a transform produced.
type Outputs struct {
	Pokemon string
	Combats string
	Stats   string
	ByType  string
}

// Transformer reads raw artifacts from a cache store and writes CSV tables.
type Transformer struct {
	store  *cache.Store
	outDir string

	log *slog.Logger
}

// New returns a new Transformer reading from store and writing into the
// configured processed directory. The configuration must have been sanitized
// beforehand.
func New(l *slog.Logger, store *cache.Store, cfg Config) *Transformer {
	return &Transformer{store: store, outDir: cfg.ProcessedDir, log: l}
}

// pokemonFields are the typed attribute fields joined into the stats table.
type pokemonFields struct {
	ID      int     `mapstructure:"id"`
	Name    string  `mapstructure:"name"`
	Types   string  `mapstructure:"types"`
	Attack  float64 `mapstructure:"attack"`
	Defense float64 `mapstructure:"defense"`
	HP      float64 `mapstructure:"hp"`
	Speed   float64 `mapstructure:"speed"`
}

// Run reads the cached attribute and combat collections and writes all
// derived tables. A missing combats artifact is tolerated as an empty
// collection; missing attributes means there is nothing to derive at all.
func (t *Transformer) Run() (out Outputs, err error) {
	defer decorate.OnError(&err, "transform failed")

	if err := os.MkdirAll(t.outDir, 0750); err != nil {
		return Outputs{}, fmt.Errorf("could not create processed directory: %v", err)
	}

	var attrs []api.Record
	if t.store.Exists(constants.PokemonAttributesFile) {
		if attrs, err = t.store.Load(constants.PokemonAttributesFile); err != nil {
			return Outputs{}, err
		}
	}
	var combats []api.Record
	if t.store.Exists(constants.CombatsFile) {
		if combats, err = t.store.Load(constants.CombatsFile); err != nil {
			return Outputs{}, err
		}
	}

	attrs = lowercaseKeys(attrs)
	combats = lowercaseKeys(combats)

	typed, err := decodePokemon(attrs)
	if err != nil {
		return Outputs{}, err
	}

	if len(attrs) > 0 {
		if err := t.writePokemonTable(attrs); err != nil {
			return Outputs{}, err
		}
		if err := t.writeByTypeTable(typed); err != nil {
			return Outputs{}, err
		}
		out.Pokemon = t.outPath(constants.PokemonCSV)
		out.ByType = t.outPath(constants.ByTypeCSV)
	}

	if len(combats) > 0 {
		rows := normalizeCombats(combats, typed)
		if err := t.writeCombatsTable(rows); err != nil {
			return Outputs{}, err
		}

		stats := computeStats(rows, typed)
		if err := t.writeStatsTables(stats); err != nil {
			return Outputs{}, err
		}
		out.Combats = t.outPath(constants.CombatsCSV)
		out.Stats = t.outPath(constants.StatsCSV)
	}

	t.log.Info("Transform complete", "pokemons", len(attrs), "combats", len(combats))
	return out, nil
}

// lowercaseKeys normalizes the field casing of every record.
func lowercaseKeys(records []api.Record) []api.Record {
	normalized := make([]api.Record, len(records))
	for i, r := range records {
		n := make(api.Record, len(r))
		for k, v := range r {
			n[strings.ToLower(k)] = v
		}
		normalized[i] = n
	}
	return normalized
}

// decodePokemon converts the untyped attribute records into typed rows.
// The API serves numbers as JSON floats and occasionally as strings, so the
// decoding is deliberately weakly typed.
func decodePokemon(attrs []api.Record) ([]pokemonFields, error) {
	typed := make([]pokemonFields, 0, len(attrs))
	for _, r := range attrs {
		var p pokemonFields
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &p,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(map[string]any(r)); err != nil {
			return nil, fmt.Errorf("could not decode pokemon record %v: %v", r, err)
		}
		typed = append(typed, p)
	}
	return typed, nil
}

// splitTypes splits the composite types field into its primary and secondary
// components. The secondary is empty when there is no separator.
func splitTypes(types string) (primary, secondary string) {
	parts := strings.SplitN(types, "/", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], ""
}

// round4 rounds to 4 decimal places, matching the win rate contract.
func round4(f float64) float64 {
	return math.Round(f*10000) / 10000
}

func (t *Transformer) outPath(name string) string {
	return filepath.Join(t.outDir, name)
}

// splitAllTypes explodes a composite types field into all its components.
func splitAllTypes(types string) []string {
	var parts []string
	for _, p := range strings.Split(types, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// sortedKeys returns the union of record keys in a deterministic order.
func sortedKeys(records []api.Record) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, r := range records {
		for k := range r {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				keys = append(keys, k)
			}
		}
	}
	sort.Strings(keys)
	return keys
}
