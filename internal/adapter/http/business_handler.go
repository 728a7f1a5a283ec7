package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/usecase/business"
)

type BusinessHandler struct {
	uc  *business.Usecase
	log logrus.FieldLogger
}

func NewBusinessHandler(uc *business.Usecase, log logrus.FieldLogger) *BusinessHandler {
	return &BusinessHandler{uc: uc, log: log}
}

type createBusinessReq struct {
	LegalName          string          `json:"legal_name"          validate:"required,max=255"`
	RegistrationNumber string          `json:"registration_number" validate:"max=64"`
	Industry           string          `json:"industry"            validate:"max=120"`
	YearsInOperation   int             `json:"years_in_operation"  validate:"gte=0"`
	AnnualRevenue      decimal.Decimal `json:"annual_revenue"`
	Address            string          `json:"address"`
}

func (h *BusinessHandler) Create(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req createBusinessReq
	if done, err := bind(c, &req); done {
		return err
	}
	b, err := h.uc.Create(c.Request().Context(), sub, business.CreateInput(req))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *BusinessHandler) Get(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	b, err := h.uc.Get(c.Request().Context(), sub, c.Param("business_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, b)
}
