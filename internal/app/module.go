package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/database"
	"github.com/userdesk/userdesk/internal/migration"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/server"
	"github.com/userdesk/userdesk/internal/user"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Infrastructure
		database.Module(),
		migration.Module(),

		// Feature modules
		notify.NewModule(),
		user.NewModule(),
		auth.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("failed to start server", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop()
		},
	})
}
