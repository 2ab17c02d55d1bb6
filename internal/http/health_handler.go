// Package http holds the service-level handlers that sit outside the
// versioned API.
package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// HealthStatus represents the health check response
type HealthStatus struct {
	Status     string    `json:"status"`
	Timestamp  time.Time `json:"timestamp"`
	HostStatus string    `json:"host_status"`
}

// HealthIndexAction handles the health check endpoint. ready reports whether
// the host identity has been computed; a pending host is not a failure.
func HealthIndexAction(ready func() bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hostStatus := "pending"
		if ready != nil && ready() {
			hostStatus = "ready"
		}
		return c.JSON(HealthStatus{
			Status:     "ok",
			Timestamp:  time.Now(),
			HostStatus: hostStatus,
		})
	}
}
