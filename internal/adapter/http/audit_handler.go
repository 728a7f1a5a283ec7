package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/usecase/access"
	"loan-origination/internal/usecase/audit"
	"loan-origination/internal/usecase/snapshot"
)

// AuditHandler serves the read side of the audit trail and the approval
// snapshots. Every route first checks the caller may see the application.
type AuditHandler struct {
	guard     *access.Guard
	audits    *audit.Writer
	snapshots *snapshot.Writer
	log       logrus.FieldLogger
}

func NewAuditHandler(guard *access.Guard, audits *audit.Writer, snapshots *snapshot.Writer, log logrus.FieldLogger) *AuditHandler {
	return &AuditHandler{guard: guard, audits: audits, snapshots: snapshots, log: log}
}

// authorize writes the rejection itself; ok is false when it did.
func (h *AuditHandler) authorize(c echo.Context) (appID string, ok bool, err error) {
	sub, ok := actor(c)
	if !ok {
		return "", false, nil
	}
	appID = c.Param("application_id")
	if _, _, err := h.guard.Viewer(c.Request().Context(), sub, appID); err != nil {
		return "", false, writeError(c, h.log, err)
	}
	return appID, true, nil
}

func (h *AuditHandler) Trail(c echo.Context) error {
	appID, ok, err := h.authorize(c)
	if !ok {
		return err
	}
	limit, offset := pageParams(c)
	page, err := h.audits.GetAuditTrail(c.Request().Context(), appID, audit.TrailQuery{
		Limit:  limit,
		Offset: offset,
		Action: c.QueryParam("action"),
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, page)
}

func (h *AuditHandler) Summary(c echo.Context) error {
	appID, ok, err := h.authorize(c)
	if !ok {
		return err
	}
	sum, err := h.audits.Summary(c.Request().Context(), appID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *AuditHandler) Snapshots(c echo.Context) error {
	appID, ok, err := h.authorize(c)
	if !ok {
		return err
	}
	items, err := h.snapshots.List(c.Request().Context(), appID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"application_id": appID, "items": items, "total": len(items)})
}

func (h *AuditHandler) LatestSnapshot(c echo.Context) error {
	appID, ok, err := h.authorize(c)
	if !ok {
		return err
	}
	v, err := h.snapshots.Latest(c.Request().Context(), appID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *AuditHandler) Snapshot(c echo.Context) error {
	appID, ok, err := h.authorize(c)
	if !ok {
		return err
	}
	v, err := h.snapshots.Get(c.Request().Context(), appID, c.Param("snapshot_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}
