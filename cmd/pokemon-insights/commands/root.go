// Package commands contains the commands of the pokemon-insights command
// line tool.
package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pokeapi-lab/pokemon-insights/internal/api"
	"github.com/pokeapi-lab/pokemon-insights/internal/cli"
	"github.com/pokeapi-lab/pokemon-insights/internal/constants"
	"github.com/pokeapi-lab/pokemon-insights/internal/extractor"
	"github.com/pokeapi-lab/pokemon-insights/internal/transform"
)

// App represents the application.
type App struct {
	cmd    *cobra.Command
	viper  *viper.Viper
	config appConfig
}

// appConfig holds the configuration for the application.
type appConfig struct {
	Verbosity int
	RawDir    string

	API       api.Config
	Extract   extractor.Config
	Transform transform.Config
}

// New creates a new App instance with default values.
func New() (*App, error) {
	a := App{}

	a.cmd = &cobra.Command{
		Use:           constants.CmdName,
		Short:         "Extract and transform pokemon combat data",
		Long: `Pokemon Insights pulls pokemons, their attributes and combat records from the
pokemon REST API into local JSON artifacts, and derives CSV tables with combat
statistics from them.`,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Command parsing has been successful. Returns to not print usage anymore.
			a.cmd.SilenceUsage = true
			cli.SetVerbosity(a.config.Verbosity) // Set verbosity before loading config
			if err := cli.InitViperConfig(constants.CmdName, a.cmd, a.viper); err != nil {
				return err
			}
			if err := a.viper.Unmarshal(&a.config); err != nil {
				return fmt.Errorf("unable to strictly decode configuration into struct: %w", err)
			}
			slog.Debug("got app config", "rawDir", a.config.RawDir, "api", a.config.API)

			cli.SetVerbosity(a.config.Verbosity)
			return nil
		},
	}
	a.viper = viper.New()
	a.cmd.CompletionOptions.HiddenDefaultCmd = true

	installRootCmd(&a)
	cli.InstallConfigFlag(a.cmd)

	if err := a.viper.BindPFlags(a.cmd.PersistentFlags()); err != nil {
		return nil, err
	}

	a.installExtract()
	a.installTransform()
	a.installRun()
	a.installSmoke()
	a.installVersion()

	return &a, nil
}

func installRootCmd(app *App) {
	cmd := app.cmd

	cmd.PersistentFlags().CountVarP(&app.config.Verbosity, "verbose", "v", "issue INFO (-v), DEBUG (-vv)")

	cmd.PersistentFlags().StringVar(&app.config.API.BaseURL, "base-url", "", "base URL of the pokemon API")
	cmd.PersistentFlags().StringVar(&app.config.API.Username, "username", "", "username to authenticate against the API with")
	cmd.PersistentFlags().StringVar(&app.config.API.Password, "password", "", "password to authenticate against the API with")
	cmd.PersistentFlags().StringVar(&app.config.RawDir, "raw-dir", constants.DefaultRawDir, "directory to store raw JSON artifacts in")

	if err := cmd.MarkPersistentFlagDirname("raw-dir"); err != nil {
		// This should never happen.
		panic(fmt.Sprintf("failed to mark raw-dir flag as dirname: %v", err))
	}
}

// installExtractFlags installs the extraction tuning flags shared by the
// extract and run commands.
func installExtractFlags(cmd *cobra.Command, cfg *extractor.Config) {
	cmd.Flags().BoolVar(&cfg.Refresh, "refresh", false, "refetch everything, ignoring cached artifacts")
	cmd.Flags().IntVar(&cfg.PerPagePokemon, "per-page", constants.DefaultPerPagePokemon, "page size for the pokemon listing")
	cmd.Flags().IntVar(&cfg.PerPageCombats, "combats-per-page", constants.DefaultPerPageCombats, "page size for the combats listing")
	cmd.Flags().IntVar(&cfg.MaxCombats, "max-combats", constants.DefaultMaxCombats, "maximum number of combat records to fetch")
}

// installTransformFlags installs the transform flags shared by the transform
// and run commands.
func installTransformFlags(cmd *cobra.Command, cfg *transform.Config) {
	cmd.Flags().StringVar(&cfg.ProcessedDir, "processed-dir", constants.DefaultProcessedDir, "directory to write derived CSV tables in")
}

// Run executes the command and associated process, returning an error if any.
func (a *App) Run() error {
	return a.cmd.Execute()
}

// UsageError returns if the error is a command parsing or runtime one.
func (a *App) UsageError() bool {
	return !a.cmd.SilenceUsage
}

// RootCmd returns the root command.
func (a *App) RootCmd() cobra.Command {
	return *a.cmd
}
