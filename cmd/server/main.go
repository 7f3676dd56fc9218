package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"textile-backend/internal/audit"
	"textile-backend/internal/auth"
	"textile-backend/internal/config"
	"textile-backend/internal/database"
	"textile-backend/internal/logging"
	"textile-backend/internal/models"
	"textile-backend/internal/production"
)

func main() {
	cfg := config.Load()

	log, err := logging.New(cfg.IsProduction(), cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	warnings, err := cfg.ValidateServer()
	for _, w := range warnings {
		log.Warn("config", zap.String("warning", w))
	}
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	db, err := database.Connect(cfg, log)
	if err != nil {
		log.Fatal("database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("database close", zap.Error(err))
		}
	}()
	if err := db.Migrate(); err != nil {
		log.Fatal("migration", zap.Error(err))
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var e *fiber.Error
			if errors.As(err, &e) {
				return c.Status(e.Code).JSON(fiber.Map{
					"error": e.Message,
				})
			}
			log.Error("unexpected error",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "unexpected server error",
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(cfg.CORSOriginList(), ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	store := production.NewGormStore(db.DB)
	logs := audit.NewDBSink(db.DB)
	svc := production.NewService(store, store, logs, log.Named("production"))

	api := app.Group("/api")

	// Public auth
	api.Post("/auth/register-admin", auth.RegisterAdminHandler(db.DB))
	api.Post("/auth/login", auth.LoginHandler(cfg.JWTSecret, db.DB))

	protected := api.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))

	protected.Get("/auth/me", auth.MeHandler())
	protected.Post("/admin/users", auth.RequireRole(models.RoleAdmin), auth.CreateUserHandler(db.DB))

	production.Routes(protected, svc, logs)

	go func() {
		log.Info("server listening", zap.String("port", cfg.HTTPPort), zap.String("env", cfg.AppEnv))
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Error("listen", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
