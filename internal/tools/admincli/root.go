package admincli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mayoristas-py/directory-admin/internal/config"
	"github.com/mayoristas-py/directory-admin/internal/repository"
	"github.com/mayoristas-py/directory-admin/internal/service"
	"github.com/mayoristas-py/directory-admin/internal/tools/common"
)

type options struct {
	envFile string
}

// NewRootCommand builds the directory-admin CLI. Without a subcommand it
// serves HTTP.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "directory-admin",
		Short:         "Wholesalers directory admin backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return common.LoadEnvFile(opts.envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "env file merged into the environment before loading config")
	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newHashPasswordCommand())
	cmd.AddCommand(newDevicesCommand())
	cmd.AddCommand(newDoctorCommand())
	return cmd
}

func openStore(ctx context.Context, cfg *config.Config) (*repository.Store, error) {
	backend, err := repository.NewBackend(cfg)
	if err != nil {
		return nil, fmt.Errorf("open backend: %w", err)
	}
	return repository.NewStore(ctx, backend)
}

func openRegistry(ctx context.Context) (*service.Registry, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return service.NewRegistry(store, nil, nil), nil
}
