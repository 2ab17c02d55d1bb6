package v1

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"anchorprint/internal/visitors"
)

// GetVisitorHandler returns a recently identified visitor from memory.
func (h *Handler) GetVisitorHandler(c *fiber.Ctx) error {
	id := strings.ToLower(strings.TrimSpace(c.Params("id")))
	if !visitors.ValidID(id) {
		return respondError(c, http.StatusBadRequest, "Invalid visitor id", CodeInvalidVisitorID)
	}

	cached, found := h.cache.Get(id)
	if !found {
		return respondError(c, http.StatusNotFound, "Visitor not found", CodeVisitorNotFound)
	}
	res, ok := cached.(Identification)
	if !ok {
		h.cache.Delete(id)
		return respondError(c, http.StatusNotFound, "Visitor not found", CodeVisitorNotFound)
	}
	return c.JSON(res)
}
