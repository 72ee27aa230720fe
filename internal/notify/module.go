package notify

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/config"
)

// NewModule returns the notify module options
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig, log *zap.Logger) Notifier {
					return NewSMTPNotifier(&cfg.Email, log)
				},
			),
		),
	)
}
