//go:build wireinject

package app

import (
	"context"
	"log/slog"

	"github.com/google/wire"

	"github.com/mayoristas-py/directory-admin/internal/config"
	"github.com/mayoristas-py/directory-admin/internal/observability"
)

func Initialize(ctx context.Context, cfg *config.Config, logger *slog.Logger, runtime *observability.Runtime) (*App, func(), error) {
	wire.Build(ProviderSet)
	return nil, nil, nil
}
