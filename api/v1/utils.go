package v1

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gofiber/fiber/v2"
)

// Error codes returned in the "code" field of error responses.
const (
	CodeInvalidPayload   = "INVALID_PAYLOAD"
	CodeInvalidVisitorID = "INVALID_VISITOR_ID"
	CodeVisitorNotFound  = "VISITOR_NOT_FOUND"
	CodeHostUnavailable  = "HOST_UNAVAILABLE"
	CodeIdentifyFailed   = "IDENTIFY_FAILED"
)

func respondError(c *fiber.Ctx, status int, message, code string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

// generateETag creates a strong ETag from content using SHA-256
func generateETag(content []byte) string {
	hash := sha256.Sum256(content)
	return `"` + hex.EncodeToString(hash[:]) + `"`
}
