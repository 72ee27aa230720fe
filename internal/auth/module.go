package auth

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/user"
)

// NewModule returns the auth module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig, log *zap.Logger, repo user.Repository, notifier notify.Notifier) *Service {
					return NewService(&cfg.Auth, cfg.App.FrontendURL, log, repo, notifier)
				},
			),
			fx.Annotate(
				func(svc *Service, cfg *config.AppConfig, log *zap.Logger) *Handler {
					return NewHandler(svc, &cfg.Auth, log)
				},
			),
			fx.Annotate(
				func(svc *Service, cfg *config.AppConfig, repo user.Repository, log *zap.Logger) *Middleware {
					return NewMiddleware(svc, &cfg.Auth, repo, log)
				},
			),
		),
	)
}
