// Package extractor implements the extraction component.
// The extractor component is responsible for pulling the three raw
// collections from the API, merging them with any previously cached data, and
// persisting the result as local cache artifacts.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/ubuntu/decorate"
	"golang.org/x/time/rate"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
)

var (
	// ErrMissingID is returned when a fetched record lacks a numeric identity field.
	ErrMissingID = errors.New("record has no numeric id field")
)

// Client is the slice of the API client the extractor needs.
type Client interface {
	PokemonPage(ctx context.Context, page, perPage int) (api.Page, error)
	PokemonAttributes(ctx context.Context, id int) (api.Record, error)
	CombatsPage(ctx context.Context, page, perPage int) (api.Page, error)
}

// Config represents the extractor specific settings.
type Config struct {
	Refresh bool

	PerPagePokemon int
	PerPageCombats int
	MaxCombats     int
}

// Sanitize sets defaults on the Config.
func (c *Config) Sanitize(l *slog.Logger) error {
	if c.PerPagePokemon <= 0 {
		c.PerPagePokemon = constants.DefaultPerPagePokemon
	}
	if c.PerPageCombats <= 0 {
		c.PerPageCombats = constants.DefaultPerPageCombats
	}
	if c.MaxCombats <= 0 {
		c.MaxCombats = constants.DefaultMaxCombats
		l.Debug("No combats cap provided, defaulting", "maxCombats", c.MaxCombats)
	}
	return nil
}

// Artifacts holds the paths of the cache artifacts an extraction produced.
type Artifacts struct {
	PokemonBasic      string
	PokemonAttributes string
	Combats           string
}

// Extractor runs the three cached extraction phases against a store.
type Extractor struct {
	client Client
	store  *cache.Store
	cfg    Config

	limiter         *rate.Limiter
	checkpointEvery int

	log *slog.Logger
}

type options struct {
	// Private members exported for tests.
	pacing          *rate.Limiter
	checkpointEvery int
}

var defaultOptions = options{
	pacing:          rate.NewLimiter(rate.Every(constants.DefaultPacingInterval), 1),
	checkpointEvery: constants.DefaultCheckpointEvery,
}

// Options represents an optional function to override Extractor default values.
type Options func(*options)

// New returns a new Extractor using the given client and store.
// The configuration must have been sanitized beforehand.
func New(l *slog.Logger, client Client, store *cache.Store, cfg Config, args ...Options) *Extractor {
	opts := defaultOptions
	for _, opt := range args {
		opt(&opts)
	}

	return &Extractor{
		client:          client,
		store:           store,
		cfg:             cfg,
		limiter:         opts.pacing,
		checkpointEvery: opts.checkpointEvery,
		// Tag every log line of a run so interleaved runs can be told apart.
		log: l.With("run", uuid.NewString()),
	}
}

// ExtractAll runs the three extraction phases in order and returns the
// artifact paths. Partial progress already persisted stays on disk when a
// later phase fails.
func (e *Extractor) ExtractAll(ctx context.Context) (Artifacts, error) {
	e.log.Info("Starting extraction", "refresh", e.cfg.Refresh, "cacheDir", e.store.Dir())

	basic, err := e.pokemon(ctx)
	if err != nil {
		return Artifacts{}, err
	}

	if err := e.attributes(ctx, basic); err != nil {
		return Artifacts{}, err
	}

	if err := e.combats(ctx); err != nil {
		return Artifacts{}, err
	}

	return Artifacts{
		PokemonBasic:      e.store.Path(constants.PokemonBasicFile),
		PokemonAttributes: e.store.Path(constants.PokemonAttributesFile),
		Combats:           e.store.Path(constants.CombatsFile),
	}, nil
}

// pokemon runs the full refresh phase for the basic listing: an existing
// artifact is reused verbatim unless the refresh override is set.
func (e *Extractor) pokemon(ctx context.Context) (records []api.Record, err error) {
	defer decorate.OnError(&err, "pokemon extraction failed")

	if e.store.Exists(constants.PokemonBasicFile) && !e.cfg.Refresh {
		e.log.Info("Reusing cached pokemon listing")
		return e.store.Load(constants.PokemonBasicFile)
	}

	p := api.NewPager(func(page, perPage int) (api.Page, error) {
		return e.client.PokemonPage(ctx, page, perPage)
	}, e.cfg.PerPagePokemon)
	for p.Next() {
		records = append(records, p.Record())
	}
	if err := p.Err(); err != nil {
		return nil, err
	}

	if err := e.store.Save(constants.PokemonBasicFile, records); err != nil {
		return nil, err
	}
	e.log.Info("Fetched pokemon listing", "records", len(records))
	return records, nil
}

// attributes runs the incremental detail phase: only identities present in
// the basic listing but absent from the cached details are fetched, and the
// result is merged keyed by identity with the newest fetch winning.
func (e *Extractor) attributes(ctx context.Context, basic []api.Record) (err error) {
	defer decorate.OnError(&err, "pokemon attributes extraction failed")

	var cached []api.Record
	existing := make(map[int]struct{})
	if e.store.Exists(constants.PokemonAttributesFile) && !e.cfg.Refresh {
		if cached, err = e.store.Load(constants.PokemonAttributesFile); err != nil {
			return err
		}
		for _, r := range cached {
			if id, ok := r.ID(); ok {
				existing[id] = struct{}{}
			}
		}
	}

	var missing []int
	for _, r := range basic {
		id, ok := r.ID()
		if !ok {
			return fmt.Errorf("%w: basic record %v", ErrMissingID, r)
		}
		if _, ok := existing[id]; !ok {
			missing = append(missing, id)
		}
	}

	fetched := make([]api.Record, 0, len(missing))
	for _, id := range missing {
		// Pace detail fetches to stay under the informal rate limit.
		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		r, err := e.client.PokemonAttributes(ctx, id)
		if err != nil {
			return err
		}
		if _, ok := r.ID(); !ok {
			return fmt.Errorf("%w: attributes of pokemon %d", ErrMissingID, id)
		}
		fetched = append(fetched, r)
	}
	e.log.Info("Fetched pokemon attributes", "missing", len(missing), "cached", len(cached))

	return e.store.Save(constants.PokemonAttributesFile, mergeByID(e.log, cached, fetched))
}

// mergeByID merges fresh records into old ones keyed by identity, the newest
// winning on collision. First-seen order is preserved so re-runs produce
// identical artifacts. Cached records without an identity are dropped.
func mergeByID(l *slog.Logger, old, fresh []api.Record) []api.Record {
	merged := make([]api.Record, 0, len(old)+len(fresh))
	index := make(map[int]int, len(old))

	for _, r := range append(append([]api.Record{}, old...), fresh...) {
		id, ok := r.ID()
		if !ok {
			l.Warn("Dropping cached record without id", "record", r)
			continue
		}
		if i, ok := index[id]; ok {
			merged[i] = r
			continue
		}
		index[id] = len(merged)
		merged = append(merged, r)
	}

	return merged
}

// combats runs the capped phase: an existing artifact is trusted wholesale,
// otherwise up to MaxCombats records are paginated with a checkpoint snapshot
// written every checkpointEvery accumulated records.
func (e *Extractor) combats(ctx context.Context) (err error) {
	defer decorate.OnError(&err, "combats extraction failed")

	if e.store.Exists(constants.CombatsFile) && !e.cfg.Refresh {
		// Cache presence is treated as done, even for a partial checkpoint
		// left behind by an interrupted run.
		e.log.Info("Reusing cached combats")
		return nil
	}

	var records []api.Record
	p := api.NewCappedPager(func(page, perPage int) (api.Page, error) {
		return e.client.CombatsPage(ctx, page, perPage)
	}, e.cfg.PerPageCombats, e.cfg.MaxCombats)
	for p.Next() {
		records = append(records, p.Record())
		if len(records)%e.checkpointEvery == 0 {
			if err := e.store.Save(constants.CombatsFile, records); err != nil {
				return err
			}
			e.log.Debug("Checkpointed combats", "records", len(records))
		}
	}
	if err := p.Err(); err != nil {
		// Keep whatever the last checkpoint captured.
		return err
	}

	if err := e.store.Save(constants.CombatsFile, records); err != nil {
		return err
	}
	e.log.Info("Fetched combats", "records", len(records))
	return nil
}
