package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/extractor"
)

func (a *App) installExtract() {
	extractCmd := &cobra.Command{
		Use:   "extract",
		Short: "Pull the raw pokemon collections into local JSON artifacts",
		Long: `Pull the raw pokemon collections into local JSON artifacts.

The basic listing, the per-pokemon attributes and the combat records are
fetched from the API and cached under the raw directory. Cached artifacts are
reused: the listing is only refetched with --refresh, attributes are fetched
incrementally for pokemons not detailed yet, and a present combats artifact is
trusted as complete.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running extract command")
			_, err := a.extractRun(cmd.Context())
			return err
		},
	}

	installExtractFlags(extractCmd, &a.config.Extract)

	a.cmd.AddCommand(extractCmd)
}

// extractRun runs the extraction and returns the artifact paths.
func (a *App) extractRun(ctx context.Context) (extractor.Artifacts, error) {
	l := slog.Default()
	if err := a.config.API.Sanitize(l); err != nil {
		return extractor.Artifacts{}, err
	}
	if err := a.config.Extract.Sanitize(l); err != nil {
		return extractor.Artifacts{}, err
	}

	store, err := cache.New(l, a.config.RawDir)
	if err != nil {
		return extractor.Artifacts{}, err
	}

	client := api.New(l, a.config.API)
	return extractor.New(l, client, store, a.config.Extract).ExtractAll(ctx)
}
