// Package constants is responsible for defining the constants used in the application.
package constants

import (
	"log/slog"
	"time"
)

var (
	// Version is the version of the application.
	Version = "Dev"
)

const (
	// CmdName is the name of the command line tool.
	CmdName = "pokemon-insights"

	// DefaultLogLevel is the default log level selected without any verbosity flags.
	DefaultLogLevel = slog.LevelWarn

	// DefaultRawDir is the default directory for raw cache artifacts.
	DefaultRawDir = "data/raw"

	// DefaultProcessedDir is the default directory for derived CSV tables.
	DefaultProcessedDir = "data/processed"

	// PokemonBasicFile is the cache artifact holding the basic pokemon listing.
	PokemonBasicFile = "pokemon_basic.json"

	// PokemonAttributesFile is the cache artifact holding the per-pokemon attributes.
	PokemonAttributesFile = "pokemon_attributes.json"

	// CombatsFile is the cache artifact holding the capped combats collection.
	CombatsFile = "combats.json"

	// SmokeFile is the file the smoke command saves its sample page to.
	SmokeFile = "pokemon.json"

	// PokemonCSV is the derived per-pokemon attributes table.
	PokemonCSV = "pokemon.csv"

	// CombatsCSV is the derived normalized combats table.
	CombatsCSV = "combats.csv"

	// StatsCSV is the derived per-pokemon win/loss statistics table.
	StatsCSV = "pokemon_stats.csv"

	// TopWinnersCSV is the top 10 pokemon ranked by wins.
	TopWinnersCSV = "top10_winners.csv"

	// TopLosersCSV is the top 10 pokemon ranked by losses.
	TopLosersCSV = "top10_losers.csv"

	// ByTypeCSV is the derived pokemon count per type table.
	ByTypeCSV = "pokemon_by_type.csv"

	// DefaultPerPagePokemon is the default page size for the pokemon listing endpoint.
	DefaultPerPagePokemon = 50

	// DefaultPerPageCombats is the default page size for the combats endpoint.
	DefaultPerPageCombats = 100

	// DefaultMaxCombats caps how many combat records an extraction will fetch.
	DefaultMaxCombats = 5000

	// DefaultMaxAttempts bounds the request retry loop of the API client.
	DefaultMaxAttempts = 5

	// DefaultLoginTimeout is the HTTP timeout for login requests.
	DefaultLoginTimeout = 30 * time.Second

	// DefaultRequestTimeout is the HTTP timeout for data requests.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultPacingInterval spaces out per-pokemon attribute fetches to stay
	// under the informal API rate limit.
	DefaultPacingInterval = 20 * time.Millisecond

	// DefaultCheckpointEvery is the number of accumulated combat records
	// between checkpoint writes during a long combats fetch.
	DefaultCheckpointEvery = 500
)
