package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/usecase/application"
)

type ApplicationHandler struct {
	uc  *application.Usecase
	log logrus.FieldLogger
}

func NewApplicationHandler(uc *application.Usecase, log logrus.FieldLogger) *ApplicationHandler {
	return &ApplicationHandler{uc: uc, log: log}
}

type createApplicationReq struct {
	ProductID       string          `json:"product_id"       validate:"required,hex32"`
	BusinessID      string          `json:"business_id"      validate:"omitempty,hex32"`
	RequestedAmount decimal.Decimal `json:"requested_amount" validate:"money"`
	TermMonths      int             `json:"term_months"      validate:"gte=1"`
	Currency        string          `json:"currency"         validate:"required,len=3"`
	Purpose         string          `json:"purpose"          validate:"max=2000"`
}

type updateApplicationReq struct {
	RequestedAmount *decimal.Decimal `json:"requested_amount"`
	TermMonths      *int             `json:"term_months"      validate:"omitempty,gte=1"`
	Purpose         *string          `json:"purpose"          validate:"omitempty,max=2000"`
}

func (h *ApplicationHandler) Create(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req createApplicationReq
	if done, err := bind(c, &req); done {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), application.CreateInput{
		ActorExternalID: sub,
		ProductID:       req.ProductID,
		BusinessID:      req.BusinessID,
		RequestedAmount: req.RequestedAmount,
		TermMonths:      req.TermMonths,
		Currency:        req.Currency,
		Purpose:         req.Purpose,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

func (h *ApplicationHandler) List(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	limit, offset := pageParams(c)
	res, err := h.uc.List(c.Request().Context(), application.ListInput{
		ActorExternalID: sub,
		Status:          c.QueryParam("status"),
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ApplicationHandler) Get(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	dto, err := h.uc.Get(c.Request().Context(), sub, c.Param("application_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApplicationHandler) Update(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req updateApplicationReq
	if done, err := bind(c, &req); done {
		return err
	}
	dto, err := h.uc.Update(c.Request().Context(), application.UpdateInput{
		ActorExternalID: sub,
		ApplicationID:   c.Param("application_id"),
		RequestedAmount: req.RequestedAmount,
		TermMonths:      req.TermMonths,
		Purpose:         req.Purpose,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *ApplicationHandler) Delete(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	if err := h.uc.Delete(c.Request().Context(), sub, c.Param("application_id")); err != nil {
		return writeError(c, h.log, err)
	}
	return c.NoContent(http.StatusNoContent)
}
