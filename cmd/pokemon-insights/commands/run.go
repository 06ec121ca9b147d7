package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
)

func (a *App) installRun() {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full pipeline, extract then transform",
		Long: `Run the full pipeline, extract then transform.

Equivalent to running the extract and transform commands back to back, with a
short summary of the produced tables printed at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running full pipeline")
			return a.runRun(cmd.Context())
		},
	}

	installExtractFlags(runCmd, &a.config.Extract)
	installTransformFlags(runCmd, &a.config.Transform)

	a.cmd.AddCommand(runCmd)
}

func (a *App) runRun(ctx context.Context) error {
	if _, err := a.extractRun(ctx); err != nil {
		return err
	}
	out, err := a.transformRun()
	if err != nil {
		return err
	}

	l := slog.Default()
	store, err := cache.New(l, a.config.RawDir)
	if err != nil {
		return err
	}
	attrs, err := store.Load(constants.PokemonAttributesFile)
	if err != nil {
		return err
	}
	combats, err := store.Load(constants.CombatsFile)
	if err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("Extracted %d pokemons and %d combats into %s\n", len(attrs), len(combats), store.Dir())
	for _, table := range []string{out.Pokemon, out.Combats, out.Stats, out.ByType} {
		if table != "" {
			p.Printf("Wrote %s\n", table)
		}
	}

	return nil
}
