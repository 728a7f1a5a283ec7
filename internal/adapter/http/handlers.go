package http

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
)

// Check tests one dependency; a nil error means healthy.
type Check func(ctx context.Context) error

const checkTimeout = 2 * time.Second

type Handler struct {
	checks map[string]Check
}

func NewHandler(checks map[string]Check) *Handler { return &Handler{checks: checks} }

// Health answers 200 when every dependency responds and 503 otherwise.
func (h *Handler) Health(c echo.Context) error {
	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	code, state := http.StatusOK, "ok"
	results := make(map[string]string, len(names))
	for _, name := range names {
		ctx, cancel := context.WithTimeout(c.Request().Context(), checkTimeout)
		err := h.checks[name](ctx)
		cancel()
		if err != nil {
			code, state = http.StatusServiceUnavailable, "degraded"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	body := map[string]any{
		"status": state,
		"time":   time.Now().UTC().Format(time.RFC3339Nano),
	}
	if len(results) > 0 {
		body["checks"] = results
	}
	return c.JSON(code, body)
}
