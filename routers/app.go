// Package routers assembles the Fiber application from the per-area route packages.
package routers

import (
	"time"

	"tutorhub/config"
	supportControllers "tutorhub/controllers/support"
	"tutorhub/metrics"
	"tutorhub/middleware"
	authRoutes "tutorhub/routers/authRoutes"
	chatRoutes "tutorhub/routers/chatRoutes"
	courseRoutes "tutorhub/routers/courseRoutes"
	enrollmentRoutes "tutorhub/routers/enrollmentRoutes"
	gamificationRoutes "tutorhub/routers/gamificationRoutes"
	superAdminRoutes "tutorhub/routers/superAdmin"
	supportRoutes "tutorhub/routers/supportRoutes"
	userRoutes "tutorhub/routers/userRoutes"
	chatService "tutorhub/services/chat"
	enrollmentService "tutorhub/services/enrollment"
	gamificationService "tutorhub/services/gamification"
	reportingService "tutorhub/services/reporting"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

// Deps are the wired services the routes call into.
type Deps struct {
	DB         *gorm.DB
	Enrollment *enrollmentService.Service
	Chat       *chatService.Service
	Ledger     *gamificationService.Ledger
	Reporting  *reportingService.Service
	Relay      supportControllers.Relay
}

func NewApp(cfg *config.Config, deps Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "tutorhub",
		ErrorHandler: middleware.ErrorHandler,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CorsOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders:     "Content-Type,Authorization",
		AllowCredentials: cfg.CorsOrigins != "*",
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	if cfg.MetricsEnabled {
		app.Use(metrics.Middleware())
		app.Get("/metrics", metrics.Handler())
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "OK", nil)
	})

	limit := limiter.New(limiter.Config{
		Max:        cfg.PublicRateLimit,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			return middleware.JsonResponse(c, fiber.StatusTooManyRequests, false, "Too many requests, please try again later!", nil)
		},
	})

	authRoutes.SetupAuthRoutes(app, deps.DB, limit)
	userRoutes.SetupUserRoutes(app, deps.DB)
	courseRoutes.SetupCourseRoutes(app, deps.DB)
	enrollmentRoutes.SetupEnrollmentRoutes(app, deps.DB, deps.Enrollment, limit)
	chatRoutes.SetupChatRoutes(app, deps.DB, deps.Chat)
	gamificationRoutes.SetupGamificationRoutes(app, deps.DB, deps.Ledger)
	superAdminRoutes.SetupSuperAdminRoutes(app, deps.DB, deps.Reporting)
	supportRoutes.SetupSupportRoutes(app, deps.Relay, limit)

	app.Use(func(c *fiber.Ctx) error {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Route not found!", nil)
	})

	return app
}
