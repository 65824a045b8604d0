package cli

import (
	"fmt"
	"os"

	"github.com/fmueller/voxd/internal/config"
	"github.com/fmueller/voxd/internal/logging"
	"github.com/fmueller/voxd/internal/version"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/spf13/cobra"
)

type appState struct {
	configFile string
	envFile    string

	cfg    config.Config
	logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	app := &appState{}

	cmd := &cobra.Command{
		Use:           "voxd",
		Short:         "Speech-to-text over HTTP with whisper.cpp",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Resolve(),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.load(cmd)
		},
	}

	cmd.SetVersionTemplate("{{.Name}} v{{.Version}}\n")

	cmd.PersistentFlags().StringVar(&app.configFile, "config", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&app.envFile, "env-file", "", "File with VOXD_* variables to load into the environment")
	config.RegisterFlags(cmd.PersistentFlags(), config.Default())

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newTranscribeCmd(app))
	cmd.AddCommand(newSetupCmd(app))
	cmd.AddCommand(newLocateCmd(app))
	cmd.AddCommand(newModelsCmd(app))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

func (a *appState) load(cmd *cobra.Command) error {
	cfg, err := config.Load(config.LoadOptions{
		ConfigFile: a.configFile,
		EnvFile:    a.envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Verbose: cfg.Verbose, JSON: cfg.JSON, Service: cfg.ServiceName})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *appState) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

func (a *appState) progressEnabled() bool {
	if a.cfg.NoProgress {
		return false
	}
	return term.IsTerminal(int(os.Stderr.Fd()))
}
