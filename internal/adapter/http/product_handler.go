package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/usecase/product"
)

type ProductHandler struct {
	uc  *product.Usecase
	log logrus.FieldLogger
}

func NewProductHandler(uc *product.Usecase, log logrus.FieldLogger) *ProductHandler {
	return &ProductHandler{uc: uc, log: log}
}

type productReq struct {
	Name          string          `json:"name"            validate:"required,max=120"`
	Description   string          `json:"description"`
	MinAmount     decimal.Decimal `json:"min_amount"      validate:"money"`
	MaxAmount     decimal.Decimal `json:"max_amount"      validate:"money"`
	MinTermMonths int             `json:"min_term_months" validate:"gte=1"`
	MaxTermMonths int             `json:"max_term_months" validate:"gte=1"`
	InterestRate  decimal.Decimal `json:"interest_rate"   validate:"rate"`
	Currency      string          `json:"currency"        validate:"required,len=3"`
}

func (r productReq) input() product.Input {
	return product.Input{
		Name:          r.Name,
		Description:   r.Description,
		MinAmount:     r.MinAmount,
		MaxAmount:     r.MaxAmount,
		MinTermMonths: r.MinTermMonths,
		MaxTermMonths: r.MaxTermMonths,
		InterestRate:  r.InterestRate,
		Currency:      r.Currency,
	}
}

func (h *ProductHandler) Create(c echo.Context) error {
	var req productReq
	if done, err := bind(c, &req); done {
		return err
	}
	p, err := h.uc.Create(c.Request().Context(), req.input())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProductHandler) List(c echo.Context) error {
	activeOnly := c.QueryParam("active") == "true"
	items, err := h.uc.List(c.Request().Context(), activeOnly)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.uc.Get(c.Request().Context(), c.Param("product_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) Update(c echo.Context) error {
	var req productReq
	if done, err := bind(c, &req); done {
		return err
	}
	p, err := h.uc.Update(c.Request().Context(), c.Param("product_id"), req.input())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Deactivate backs DELETE; products stay readable for existing applications.
func (h *ProductHandler) Deactivate(c echo.Context) error {
	p, err := h.uc.Deactivate(c.Request().Context(), c.Param("product_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, p)
}
