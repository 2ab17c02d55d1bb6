// Package v1 holds the HTTP handlers of the identification API.
package v1

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"

	"anchorprint/internal/agent"
	"anchorprint/internal/anchor"
	"anchorprint/internal/metrics"
	"anchorprint/internal/signals"
	"anchorprint/internal/visitors"
)

// HostIdentifier identifies the machine the service runs on.
type HostIdentifier interface {
	Get(ctx context.Context, opts agent.GetOptions) (*agent.Result, error)
}

// Handler serves the v1 API.
type Handler struct {
	logger  *slog.Logger
	builder *anchor.Builder
	host    HostIdentifier
	cache   *cache.Cache
}

// NewHandler creates a handler. Identified visitors are kept in c.
func NewHandler(logger *slog.Logger, policy anchor.Policy, host HostIdentifier, c *cache.Cache) *Handler {
	return &Handler{
		logger:  logger,
		builder: anchor.NewBuilder(policy),
		host:    host,
		cache:   c,
	}
}

// Identification is the response of the identify and visitor endpoints.
type Identification struct {
	VisitorID    string         `json:"visitorId"`
	VisitorAlias string         `json:"visitorAlias"`
	Anchor       anchor.Payload `json:"anchor"`
	Version      string         `json:"version"`
}

// IdentifyHandler identifies a visitor from a signal bag collected by a
// browser. Unknown bag keys are ignored and missing ones are unknown.
func (h *Handler) IdentifyHandler(c *fiber.Ctx) error {
	body := c.Body()
	if len(body) == 0 {
		return respondError(c, http.StatusBadRequest, "Empty signal bag", CodeInvalidPayload)
	}

	var bag signals.Bag
	if err := json.Unmarshal(body, &bag); err != nil {
		h.logger.Debug("Rejected signal bag", slog.Any("error", err))
		return respondError(c, http.StatusBadRequest, "Invalid signal bag", CodeInvalidPayload)
	}

	payload := h.builder.Build(c.UserContext(), &bag)
	id, err := visitors.ID(payload)
	if err != nil {
		h.logger.Error("Failed to compute visitor id", slog.Any("error", err))
		return respondError(c, http.StatusInternalServerError, "Failed to identify visitor", CodeIdentifyFailed)
	}
	metrics.Identifications.WithLabelValues(metrics.OriginClient).Inc()

	res := Identification{
		VisitorID:    id,
		VisitorAlias: visitors.VisitorAlias(id),
		Anchor:       payload,
		Version:      agent.Version,
	}
	h.cache.SetDefault(id, res)

	h.logger.Info("Visitor identified",
		slog.String("visitor_id", id),
		slog.Any("known", bag.Known()))
	return c.JSON(res)
}

// HostHandler returns the identity of the host running the service. The
// response never changes for the lifetime of the process, so it carries an
// ETag.
func (h *Handler) HostHandler(c *fiber.Ctx) error {
	res, err := h.host.Get(c.UserContext(), agent.GetOptions{})
	if err != nil {
		h.logger.Error("Failed to identify host", slog.Any("error", err))
		return respondError(c, http.StatusServiceUnavailable, "Host identity unavailable", CodeHostUnavailable)
	}

	content, err := json.Marshal(fiber.Map{
		"visitorId":    res.VisitorID,
		"visitorAlias": visitors.VisitorAlias(res.VisitorID),
		"anchor":       res.Anchor,
		"signals":      res.Signals,
		"version":      res.Version,
	})
	if err != nil {
		h.logger.Error("Failed to encode host identity", slog.Any("error", err))
		return respondError(c, http.StatusInternalServerError, "Failed to encode host identity", CodeIdentifyFailed)
	}

	etag := generateETag(content)
	if c.Get("If-None-Match") == etag {
		return c.Status(fiber.StatusNotModified).Send(nil)
	}

	c.Set("ETag", etag)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(content)
}
