package cmd

import (
	"context"
	"io"
	"os"

	"github.com/Azure/aspire-deploy/pkg/config"
	"github.com/Azure/aspire-deploy/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is what every subcommand gets once the root has loaded configuration.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	newClients ClientsFactory
	out        io.Writer
}

// NewRootCommand builds the aspire-deploy command tree. newClients creates the
// external tool clients once configuration is known.
func NewRootCommand(newClients ClientsFactory) *cobra.Command {
	a := &app{newClients: newClients, out: os.Stdout}

	rootCmd := &cobra.Command{
		Use:           "aspire-deploy",
		Short:         "Compile an Aspire manifest into Kubernetes or Docker Compose deployments",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a.out = cmd.OutOrStdout()
			envFile, _ := cmd.Flags().GetString("env-file")
			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			applyFlags(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger.New(logger.Options{
				Level:  cfg.LogLevel,
				Format: cfg.LogFormat,
				Stdout: cmd.OutOrStdout(),
				Stderr: cmd.ErrOrStderr(),
			})
			logger.SetDefault(a.logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().String("log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("env-file", ".env", "Optional .env file with ASPIRE_DEPLOY_* settings")

	rootCmd.AddCommand(newGenerateCommand(a), newApplyCommand(a), newDestroyCommand(a))
	return rootCmd
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := NewRootCommand(DefaultClients)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		printErrorHelp(rootCmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}
