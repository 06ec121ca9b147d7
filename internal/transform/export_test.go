package transform

// Private entry points exported for tests.
var (
	ComputeStats     = computeStats
	NormalizeCombats = normalizeCombats
)

type (
	CombatRow     = combatRow
	StatsRow      = statsRow
	PokemonFields = pokemonFields
)
