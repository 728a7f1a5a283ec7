package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/usecase/status"
)

type StatusHandler struct {
	orch *status.Orchestrator
	log  logrus.FieldLogger
}

func NewStatusHandler(orch *status.Orchestrator, log logrus.FieldLogger) *StatusHandler {
	return &StatusHandler{orch: orch, log: log}
}

// The status value and the rejection reason are checked by the
// orchestrator so they surface as INVALID_STATUS / REJECTION_REASON_REQUIRED.
type updateStatusReq struct {
	Status          string         `json:"status"           validate:"required"`
	Reason          string         `json:"reason"           validate:"max=2000"`
	RejectionReason string         `json:"rejection_reason" validate:"max=2000"`
	Metadata        map[string]any `json:"metadata"`
}

type approveReq struct {
	Reason   string         `json:"reason"   validate:"max=2000"`
	Metadata map[string]any `json:"metadata"`
}

type rejectReq struct {
	RejectionReason string         `json:"rejection_reason" validate:"max=2000"`
	Reason          string         `json:"reason"           validate:"max=2000"`
	Metadata        map[string]any `json:"metadata"`
}

func (h *StatusHandler) Get(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	v, err := h.orch.GetStatus(c.Request().Context(), sub, c.Param("application_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *StatusHandler) Update(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req updateStatusReq
	if done, err := bind(c, &req); done {
		return err
	}
	res, err := h.orch.UpdateStatus(c.Request().Context(), status.UpdateStatusInput{
		ApplicationID:   c.Param("application_id"),
		Status:          req.Status,
		ActorExternalID: sub,
		Reason:          req.Reason,
		RejectionReason: req.RejectionReason,
		Metadata:        req.Metadata,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StatusHandler) History(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	limit, offset := pageParams(c)
	hist, err := h.orch.History(c.Request().Context(), sub, c.Param("application_id"), limit, offset)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, hist)
}

func (h *StatusHandler) Approve(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req approveReq
	if done, err := bind(c, &req); done {
		return err
	}
	res, err := h.orch.Approve(c.Request().Context(), c.Param("application_id"), sub, req.Reason, req.Metadata)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StatusHandler) Reject(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req rejectReq
	if done, err := bind(c, &req); done {
		return err
	}
	res, err := h.orch.Reject(c.Request().Context(), c.Param("application_id"), sub, req.RejectionReason, req.Reason, req.Metadata)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}
