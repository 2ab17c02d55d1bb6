package internal

import (
	"sync"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"

	v1 "anchorprint/api/v1"
	"anchorprint/internal/http"
)

// publicCORSConfig lets browser collectors on any origin report signals.
var publicCORSConfig = cors.Config{
	AllowOrigins: "*",
	AllowMethods: "POST,GET,OPTIONS",
	AllowHeaders: "Origin, Content-Type, Accept",
}

// httpMetrics registers the request collectors once per process; every
// Application shares them.
var httpMetrics = sync.OnceValue(func() *fiberprometheus.FiberPrometheus {
	return fiberprometheus.New("anchorprint")
})

// MountAppRoutes mounts all application routes.
func MountAppRoutes(a *Application) {
	srv := a.Server
	srv.Use(recover.New())

	prom := httpMetrics()
	prom.RegisterAt(srv, "/metrics")
	srv.Use(prom.Middleware)

	// Rate limiting only runs in production.
	publicRateLimiter := func(c *fiber.Ctx) error { return c.Next() }
	if a.Config.IsProduction() {
		publicRateLimiter = limiter.New(limiter.Config{
			Max:        70,
			Expiration: time.Minute,
		})
	}

	health := http.HealthIndexAction(a.Agent.Ready)
	srv.Get("/health", health)
	srv.Head("/health", health)

	handler := v1.NewHandler(a.Logger, a.Config.Policy(), a.Agent, a.Visitors)
	api := srv.Group("/api/v1", cors.New(publicCORSConfig), publicRateLimiter)
	api.Post("/identify", handler.IdentifyHandler)
	api.Get("/visitors/:id", handler.GetVisitorHandler)
	api.Get("/host", handler.HostHandler)
}
