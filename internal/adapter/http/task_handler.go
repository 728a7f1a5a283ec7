package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	taskUC "loan-origination/internal/usecase/task"
)

type TaskHandler struct {
	uc  *taskUC.Usecase
	log logrus.FieldLogger
}

func NewTaskHandler(uc *taskUC.Usecase, log logrus.FieldLogger) *TaskHandler {
	return &TaskHandler{uc: uc, log: log}
}

func (h *TaskHandler) Dead(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	limit, _ := pageParams(c)
	out, err := h.uc.ListDead(c.Request().Context(), sub, limit)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
