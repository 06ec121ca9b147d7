package commands

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
)

func (a *App) installSmoke() {
	smokeCmd := &cobra.Command{
		Use:   "smoke",
		Short: "Check connectivity and credentials against the API",
		Long: `Check connectivity and credentials against the API.

Logs in, fetches the first page of the pokemon listing and saves it under the
raw directory, without touching the pipeline artifacts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running smoke command")
			return a.smokeRun(cmd.Context())
		},
	}

	a.cmd.AddCommand(smokeCmd)
}

// smokeRun logs in and saves one sample page of the listing.
func (a *App) smokeRun(ctx context.Context) error {
	l := slog.Default()
	if err := a.config.API.Sanitize(l); err != nil {
		return err
	}

	client := api.New(l, a.config.API)
	if err := client.Login(ctx); err != nil {
		return err
	}

	page, err := client.PokemonPage(ctx, 1, 10)
	if err != nil {
		return err
	}

	store, err := cache.New(l, a.config.RawDir)
	if err != nil {
		return err
	}
	if err := store.Save(constants.SmokeFile, page.Records); err != nil {
		return err
	}

	p := message.NewPrinter(language.English)
	p.Printf("Login OK, %d pokemons available, sample of %d saved to %s\n",
		page.Total, len(page.Records), store.Path(constants.SmokeFile))
	return nil
}
