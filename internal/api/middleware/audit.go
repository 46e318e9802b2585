package middleware

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"github.com/notesai/notes-backend/internal/audit"
)

// AuditConfig holds audit middleware configuration
type AuditConfig struct {
	Service   *audit.Service
	SkipPaths []string // Paths to skip audit logging
}

// AuditMiddleware records sensitive and mutating requests once they complete.
// Events are written on another goroutine, so every string taken from the
// request is copied out of fasthttp's reusable buffers first.
func AuditMiddleware(config AuditConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		path := utils.CopyString(c.Path())
		for _, skipPath := range config.SkipPaths {
			if strings.HasPrefix(path, skipPath) {
				return c.Next()
			}
		}

		startTime := time.Now()
		err := c.Next()

		method := utils.CopyString(c.Method())
		action := determineAction(method, path)
		if !ShouldAudit(action) {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		// read after c.Next so the auth middleware has run
		var userID *uuid.UUID
		if id, idErr := GetUserID(c); idErr == nil {
			userID = &id
		}

		event := audit.NewEvent(audit.EventType(action), userID,
			utils.CopyString(c.IP()), utils.CopyString(c.Get(fiber.HeaderUserAgent)))
		event.Resource, event.ResourceID = extractResourceInfo(path)
		event.Metadata["method"] = method
		event.Metadata["path"] = path
		event.Metadata["status"] = status
		event.Metadata["duration_ms"] = time.Since(startTime).Milliseconds()

		if err != nil || status >= fiber.StatusBadRequest {
			event.Result = audit.ResultError
			if err != nil {
				event.ErrorMessage = utils.CopyString(err.Error())
			} else {
				event.ErrorMessage = fmt.Sprintf("HTTP %d", status)
			}
		}

		// Log asynchronously to avoid blocking
		go config.Service.Record(context.Background(), event)

		return err
	}
}

// determineAction determines the action from HTTP method and path
func determineAction(method, path string) string {
	// Auth actions
	if strings.Contains(path, "/auth/login") {
		return string(audit.EventLogin)
	}
	if strings.Contains(path, "/auth/logout") {
		return string(audit.EventLogout)
	}
	if strings.Contains(path, "/auth/signup") {
		return string(audit.EventSignup)
	}
	if strings.Contains(path, "/auth/refresh") {
		return string(audit.EventRefresh)
	}
	if strings.Contains(path, "/auth/password") {
		return string(audit.EventPasswordChange)
	}

	if strings.HasSuffix(path, "/summarize") {
		return string(audit.EventSummarize)
	}

	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 3 {
		resource := parts[2] // e.g., "notes"
		if len(parts) == 5 && parts[4] == "summary" && method == fiber.MethodPost {
			return fmt.Sprintf("%s.summarize", resource)
		}
		switch method {
		case fiber.MethodGet:
			if len(parts) > 3 {
				return fmt.Sprintf("%s.read", resource)
			}
			return fmt.Sprintf("%s.list", resource)
		case fiber.MethodPost:
			return fmt.Sprintf("%s.create", resource)
		case fiber.MethodPut, fiber.MethodPatch:
			return fmt.Sprintf("%s.update", resource)
		case fiber.MethodDelete:
			return fmt.Sprintf("%s.delete", resource)
		}
	}

	return fmt.Sprintf("%s.%s", strings.ToLower(method), path)
}

// extractResourceInfo extracts resource type and ID from path
func extractResourceInfo(path string) (string, *uuid.UUID) {
	parts := strings.Split(strings.Trim(path, "/"), "/")

	if len(parts) < 3 {
		return "", nil
	}

	resourceType := parts[2]

	if len(parts) > 3 {
		if id, err := uuid.Parse(parts[3]); err == nil {
			return resourceType, &id
		}
	}

	return resourceType, nil
}

// SensitiveActions that should always be logged
var SensitiveActions = []string{
	string(audit.EventLogin),
	string(audit.EventLogout),
	string(audit.EventSignup),
	string(audit.EventPasswordChange),
	string(audit.EventNoteSummarize),
	string(audit.EventSummarize),
}

// ShouldAudit determines if an action should be audited
func ShouldAudit(action string) bool {
	for _, sensitive := range SensitiveActions {
		if action == sensitive {
			return true
		}
	}
	// Audit all write operations by default
	return strings.HasSuffix(action, ".create") ||
		strings.HasSuffix(action, ".update") ||
		strings.HasSuffix(action, ".delete")
}
