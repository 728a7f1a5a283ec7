package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	domain "loan-origination/internal/domain/document"
	"loan-origination/internal/usecase/document"
)

type DocumentHandler struct {
	uc  *document.Usecase
	log logrus.FieldLogger
}

func NewDocumentHandler(uc *document.Usecase, log logrus.FieldLogger) *DocumentHandler {
	return &DocumentHandler{uc: uc, log: log}
}

type uploadDocumentReq struct {
	DocumentType string `json:"document_type" validate:"required,max=64"`
	FileName     string `json:"file_name"     validate:"required,max=255"`
	FileURL      string `json:"file_url"      validate:"required,url"`
	MimeType     string `json:"mime_type"     validate:"max=128"`
	SizeBytes    int64  `json:"size_bytes"    validate:"gte=0"`
	RequestID    string `json:"request_id"    validate:"omitempty,hex32"`
}

type documentRequestReq struct {
	DocumentKind string     `json:"document_kind" validate:"required,oneof=personal business"`
	DocumentType string     `json:"document_type" validate:"required,max=64"`
	Description  string     `json:"description"   validate:"max=2000"`
	DueAt        *time.Time `json:"due_at"`
}

type fulfilReq struct {
	DocumentID string `json:"document_id" validate:"required,hex32"`
}

// Upload returns the handler for one document kind.
func (h *DocumentHandler) Upload(kind domain.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		sub, ok := actor(c)
		if !ok {
			return nil
		}
		var req uploadDocumentReq
		if done, err := bind(c, &req); done {
			return err
		}
		doc, err := h.uc.Upload(c.Request().Context(), document.UploadInput{
			ActorExternalID: sub,
			ApplicationID:   c.Param("application_id"),
			Kind:            kind,
			DocumentType:    req.DocumentType,
			FileName:        req.FileName,
			FileURL:         req.FileURL,
			MimeType:        req.MimeType,
			SizeBytes:       req.SizeBytes,
			RequestID:       req.RequestID,
		})
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(http.StatusCreated, doc)
	}
}

func (h *DocumentHandler) List(kind domain.Kind) echo.HandlerFunc {
	return func(c echo.Context) error {
		sub, ok := actor(c)
		if !ok {
			return nil
		}
		docs, err := h.uc.List(c.Request().Context(), sub, c.Param("application_id"), kind)
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, map[string]any{"kind": kind, "items": docs, "total": len(docs)})
	}
}

func (h *DocumentHandler) CreateRequest(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req documentRequestReq
	if done, err := bind(c, &req); done {
		return err
	}
	out, err := h.uc.CreateRequest(c.Request().Context(), document.RequestInput{
		ActorExternalID: sub,
		ApplicationID:   c.Param("application_id"),
		Kind:            domain.Kind(req.DocumentKind),
		DocumentType:    req.DocumentType,
		Description:     req.Description,
		DueAt:           req.DueAt,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *DocumentHandler) ListRequests(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	items, err := h.uc.ListRequests(c.Request().Context(), sub, c.Param("application_id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *DocumentHandler) Fulfil(c echo.Context) error {
	sub, ok := actor(c)
	if !ok {
		return nil
	}
	var req fulfilReq
	if done, err := bind(c, &req); done {
		return err
	}
	out, err := h.uc.Fulfil(c.Request().Context(), sub, c.Param("request_id"), req.DocumentID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, out)
}
