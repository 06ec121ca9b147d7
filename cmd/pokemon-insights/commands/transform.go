package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pokeapi-lab/pokemon-insights/internal/cache"
	"github.com/pokeapi-lab/pokemon-insights/internal/transform"
)

func (a *App) installTransform() {
	transformCmd := &cobra.Command{
		Use:   "transform",
		Short: "Derive CSV tables from the cached raw artifacts",
		Long: `Derive CSV tables from the cached raw artifacts.

No API access happens: the attributes and combats artifacts under the raw
directory are read as-is and the per-pokemon table, the combat statistics and
the type breakdown are written to the processed directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("Running transform command")
			_, err := a.transformRun()
			return err
		},
	}

	installTransformFlags(transformCmd, &a.config.Transform)

	a.cmd.AddCommand(transformCmd)
}

// transformRun runs the transform and returns the table paths.
func (a *App) transformRun() (transform.Outputs, error) {
	l := slog.Default()
	if err := a.config.Transform.Sanitize(l); err != nil {
		return transform.Outputs{}, err
	}

	store, err := cache.New(l, a.config.RawDir)
	if err != nil {
		return transform.Outputs{}, err
	}

	return transform.New(l, store, a.config.Transform).Run()
}
