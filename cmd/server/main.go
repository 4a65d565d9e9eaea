package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"

	"prombank/internal/adapter/auth"
	"prombank/internal/adapter/store"
	"prombank/internal/handler"
	"prombank/internal/mcp"
	"prombank/internal/middleware"
	"prombank/internal/service"
	"prombank/internal/token"
	"prombank/internal/web"
	"prombank/pkg/config"

	_ "github.com/lib/pq"
)

const version = "1.0.0"

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting Prombank",
		"port", cfg.Port,
		"mcp_enabled", cfg.MCPEnabled,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := pgStore.Migrate(migrateCtx); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// ── Adapters ─────────────────────────────────────────────────────────
	googleAuth := auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL)

	jwt := token.NewJWT(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	stateSigner := token.NewStateSigner(cfg.JWTSecret)

	// ── Services ─────────────────────────────────────────────────────────
	authService := service.NewAuthService(googleAuth, pgStore, jwt, stateSigner)
	tokenService := service.NewTokenService(pgStore)
	guard := service.NewGuard(pgStore, jwt)
	promptService := service.NewPromptService(pgStore, cfg.DefaultPageSize, cfg.MaxPageSize)
	categoryService := service.NewCategoryService(pgStore)
	tagService := service.NewTagService(pgStore)
	ieService := service.NewImportExportService(promptService, categoryService)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// ── Public Routes ────────────────────────────────────────────────────
	authHandler := handler.NewAuthHandler(authService, cfg.FrontendURL)
	authHandler.RegisterPublic(app)

	// Embedded UI
	app.Get("/", func(c fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
		return c.Send(web.IndexHTML)
	})

	// Health check
	app.Get("/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": version,
		})
	})

	// ── Protected Routes ─────────────────────────────────────────────────
	api := app.Group("/api/v1", middleware.AuthMiddleware(guard))

	authHandler.RegisterProtected(api)

	tokenHandler := handler.NewTokenHandler(tokenService)
	tokenHandler.Register(api)

	promptHandler := handler.NewPromptHandler(promptService)
	promptHandler.Register(api)

	ieHandler := handler.NewImportExportHandler(ieService)
	ieHandler.Register(api)

	categoryHandler := handler.NewCategoryHandler(categoryService)
	categoryHandler.Register(api)

	tagHandler := handler.NewTagHandler(tagService)
	tagHandler.Register(api)

	// ── MCP Server (separate port) ───────────────────────────────────────
	if cfg.MCPEnabled {
		mcpServer := mcp.NewServer(version, guard, promptService, categoryService, tagService, ieService)
		go func() {
			slog.Info("🔌 MCP server listening", "port", cfg.MCPPort)
			if err := mcpServer.Start(":" + cfg.MCPPort); err != nil {
				slog.Error("MCP server failed", "error", err)
			}
		}()
	}

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}
