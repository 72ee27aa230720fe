package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/user"
)

type Server struct {
	config *config.AppConfig
	log    *zap.Logger
	app    *fiber.App
}

type Params struct {
	fx.In

	Config         *config.AppConfig
	Logger         *zap.Logger
	AuthHandler    *auth.Handler
	AuthMiddleware *auth.Middleware
	UserHandler    *user.Handler
}

func NewServer(p Params) *Server {
	app := fiber.New(fiber.Config{
		AppName:               "userdesk",
		DisableStartupMessage: true,
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     p.Config.App.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept",
		AllowMethods:     "GET, POST, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	registerRoutes(app, p.AuthHandler, p.AuthMiddleware, p.UserHandler)

	return &Server{
		config: p.Config,
		log:    p.Logger,
		app:    app,
	}
}

func registerRoutes(app *fiber.App, authHandler *auth.Handler, mw *auth.Middleware, userHandler *user.Handler) {
	api := app.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Post("/register", authHandler.Register)
	authRoutes.Post("/login", authHandler.Login)
	authRoutes.Get("/confirm-email", authHandler.ConfirmEmail)
	authRoutes.Post("/logout", mw.RequireSession(), authHandler.Logout)
	authRoutes.Get("/me", mw.RequireSession(), authHandler.Me)

	users := api.Group("/users", mw.RequireSession())
	users.Get("/", userHandler.List)
	users.Post("/block", userHandler.Block)
	users.Post("/unblock", userHandler.Unblock)
	users.Delete("/", userHandler.Delete)
	users.Delete("/unverified", userHandler.DeleteUnverified)
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.Server.Host, s.config.Server.Port)

	s.log.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.app.Listen(addr); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

func (s *Server) Stop() error {
	s.log.Info("shutting down HTTP server")
	return s.app.Shutdown()
}
