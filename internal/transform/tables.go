package transform

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
	"github.com/pokeapi-lab/pokemon-insights/internal/fileutils"
)

// combatRow is one normalized combat with participants resolved to names.
type combatRow struct {
	First  string
	Second string
	Winner string
}

// statsRow is one line of the per-pokemon statistics table.
type statsRow struct {
	Name    string  `yaml:"name"`
	Wins    int     `yaml:"wins"`
	Losses  int     `yaml:"losses"`
	Total   int     `yaml:"total"`
	WinRate float64 `yaml:"winRate"`

	attrs    pokemonFields
	hasAttrs bool
}

// writeCSV renders rows into an atomic CSV file in the processed directory.
func (t *Transformer) writeCSV(name string, header []string, rows [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	if err := fileutils.AtomicWrite(t.outPath(name), buf.Bytes()); err != nil {
		return fmt.Errorf("could not write %s: %v", name, err)
	}
	return nil
}

// writePokemonTable writes the lowercased attribute columns plus the split
// type_1/type_2 columns.
func (t *Transformer) writePokemonTable(attrs []api.Record) error {
	keys := sortedKeys(attrs)
	header := append(append([]string{}, keys...), "type_1", "type_2")

	rows := make([][]string, 0, len(attrs))
	for _, r := range attrs {
		row := make([]string, 0, len(header))
		for _, k := range keys {
			row = append(row, cellString(r[k]))
		}
		primary, secondary := splitTypes(cellString(r["types"]))
		rows = append(rows, append(row, primary, secondary))
	}

	return t.writeCSV(constants.PokemonCSV, header, rows)
}

// normalizeCombats keeps the three relevant columns and replaces numeric
// pokemon identities with their names when the identity is known.
func normalizeCombats(combats []api.Record, typed []pokemonFields) []combatRow {
	names := make(map[int]string, len(typed))
	for _, p := range typed {
		names[p.ID] = p.Name
	}

	rows := make([]combatRow, 0, len(combats))
	for _, r := range combats {
		rows = append(rows, combatRow{
			First:  normalizeName(r["first_pokemon"], names),
			Second: normalizeName(r["second_pokemon"], names),
			Winner: normalizeName(r["winner"], names),
		})
	}
	return rows
}

// normalizeName converts a numeric pokemon identity into its name, if known.
func normalizeName(v any, names map[int]string) string {
	s := cellString(v)
	if id, err := strconv.Atoi(s); err == nil {
		if name, ok := names[id]; ok {
			return name
		}
	}
	return s
}

func (t *Transformer) writeCombatsTable(rows []combatRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, []string{r.First, r.Second, r.Winner})
	}
	return t.writeCSV(constants.CombatsCSV, []string{"first_pokemon", "second_pokemon", "winner"}, out)
}

// computeStats derives per-pokemon win/loss counts and win rates from the
// normalized combats, joined with the typed attributes by name.
//
// A loss is only attributed when the winner matches one of the two
// participants; a win is counted for whatever the winner column says.
func computeStats(rows []combatRow, typed []pokemonFields) []statsRow {
	wins := make(map[string]int)
	losses := make(map[string]int)
	for _, r := range rows {
		wins[r.Winner]++
		switch r.Winner {
		case r.First:
			losses[r.Second]++
		case r.Second:
			losses[r.First]++
		}
	}

	byName := make(map[string]pokemonFields, len(typed))
	for _, p := range typed {
		byName[p.Name] = p
	}

	seen := make(map[string]struct{}, len(wins)+len(losses))
	var stats []statsRow
	for _, m := range []map[string]int{wins, losses} {
		for name := range m {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}

			row := statsRow{
				Name:   name,
				Wins:   wins[name],
				Losses: losses[name],
			}
			row.Total = row.Wins + row.Losses
			if row.Total > 0 {
				row.WinRate = round4(float64(row.Wins) / float64(row.Total))
			}
			if attrs, ok := byName[name]; ok {
				row.attrs = attrs
				row.hasAttrs = true
			}
			stats = append(stats, row)
		}
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].WinRate != stats[j].WinRate {
			return stats[i].WinRate > stats[j].WinRate
		}
		if stats[i].Wins != stats[j].Wins {
			return stats[i].Wins > stats[j].Wins
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

var statsHeader = []string{"name", "wins", "losses", "total_combats", "win_rate", "id", "types", "attack", "defense", "hp", "speed"}

func statsCSVRow(s statsRow) []string {
	row := []string{
		s.Name,
		strconv.Itoa(s.Wins),
		strconv.Itoa(s.Losses),
		strconv.Itoa(s.Total),
		strconv.FormatFloat(s.WinRate, 'f', -1, 64),
	}
	if !s.hasAttrs {
		return append(row, "", "", "", "", "", "")
	}
	return append(row,
		strconv.Itoa(s.attrs.ID),
		s.attrs.Types,
		strconv.FormatFloat(s.attrs.Attack, 'f', -1, 64),
		strconv.FormatFloat(s.attrs.Defense, 'f', -1, 64),
		strconv.FormatFloat(s.attrs.HP, 'f', -1, 64),
		strconv.FormatFloat(s.attrs.Speed, 'f', -1, 64),
	)
}

// writeStatsTables writes the full statistics table and the two top-10
// ranking subsets.
func (t *Transformer) writeStatsTables(stats []statsRow) error {
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, statsCSVRow(s))
	}
	if err := t.writeCSV(constants.StatsCSV, statsHeader, rows); err != nil {
		return err
	}

	if err := t.writeCSV(constants.TopWinnersCSV, statsHeader, topRows(stats, func(s statsRow) int { return s.Wins })); err != nil {
		return err
	}
	return t.writeCSV(constants.TopLosersCSV, statsHeader, topRows(stats, func(s statsRow) int { return s.Losses }))
}

// topRows returns the CSV rows of the 10 largest entries by key, ties broken
// by the statistics table order.
func topRows(stats []statsRow, key func(statsRow) int) [][]string {
	ranked := append([]statsRow{}, stats...)
	sort.SliceStable(ranked, func(i, j int) bool { return key(ranked[i]) > key(ranked[j]) })
	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	rows := make([][]string, 0, len(ranked))
	for _, s := range ranked {
		rows = append(rows, statsCSVRow(s))
	}
	return rows
}

// writeByTypeTable writes the pokemon count per type, with composite types
// exploded on the separator.
func (t *Transformer) writeByTypeTable(typed []pokemonFields) error {
	counts := make(map[string]int)
	for _, p := range typed {
		for _, part := range splitAllTypes(p.Types) {
			counts[part]++
		}
	}

	types := make([]string, 0, len(counts))
	for typ := range counts {
		types = append(types, typ)
	}
	sort.Strings(types)

	rows := make([][]string, 0, len(types))
	for _, typ := range types {
		rows = append(rows, []string{typ, strconv.Itoa(counts[typ])})
	}
	return t.writeCSV(constants.ByTypeCSV, []string{"type", "count"}, rows)
}

// cellString renders a raw JSON value into its CSV cell representation.
// Numbers lose the float64 artifacts of JSON decoding ("5", not "5.000000").
func cellString(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(n)
	case int:
		return strconv.Itoa(n)
	case json.Number:
		return n.String()
	default:
		return fmt.Sprint(n)
	}
}
