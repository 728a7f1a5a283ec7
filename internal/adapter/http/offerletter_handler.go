package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"loan-origination/internal/usecase/offerletter"
)

const signingSecretHeader = "X-Signing-Secret"

type OfferLetterHandler struct {
	uc            *offerletter.Usecase
	webhookSecret string
	log           logrus.FieldLogger
}

func NewOfferLetterHandler(uc *offerletter.Usecase, webhookSecret string, log logrus.FieldLogger) *OfferLetterHandler {
	return &OfferLetterHandler{uc: uc, webhookSecret: webhookSecret, log: log}
}

type signingWebhookReq struct {
	EnvelopeID string `json:"envelopeId" validate:"required"`
	Status     string `json:"status"     validate:"required"`
}

func (h *OfferLetterHandler) List(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	items, err := h.uc.List(c.Request().Context(), sub, c.Param("application_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *OfferLetterHandler) Get(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	o, err := h.uc.Get(c.Request().Context(), sub, c.Param("offer_letter_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, o)
}

// SigningWebhook receives envelope updates. It is authenticated by a shared
// secret instead of a bearer token; an empty configured secret rejects all calls.
func (h *OfferLetterHandler) SigningWebhook(c echo.Context) error {
	got := c.Request().Header.Get(signingSecretHeader)
	if h.webhookSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.webhookSecret)) != 1 {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid webhook secret", Code: "UNAUTHORIZED"})
	}
	var req signingWebhookReq
	if done, err := bind(c, &req); done {
		return err
	}
	res, err := h.uc.HandleWebhook(c.Request().Context(), req.EnvelopeID, req.Status)
	if err != nil {
		return writeError(c, h.log, err)
	}
	h.log.WithFields(logrus.Fields{
		"envelope_id":        req.EnvelopeID,
		"envelope_status":    res.EnvelopeStatus,
		"application_status": res.ApplicationStatus,
	}).Info("signing webhook applied")
	return c.JSON(http.StatusOK, res)
}
