package http

import (
	"github.com/labstack/echo/v4"

	"loan-origination/internal/domain/document"
)

type Handlers struct {
	Health       *Handler
	Users        *UserHandler
	Products     *ProductHandler
	Businesses   *BusinessHandler
	Applications *ApplicationHandler
	Statuses     *StatusHandler
	Audits       *AuditHandler
	Documents    *DocumentHandler
	OfferLetters *OfferLetterHandler
	Tasks        *TaskHandler
}

// Register mounts the API on e. protected runs in front of every route
// except /health and the signing webhook.
func Register(e *echo.Echo, h Handlers, protected ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)
	e.POST("/webhooks/signing", h.OfferLetters.SigningWebhook)

	api := e.Group("", protected...)

	api.POST("/users/me", h.Users.SyncMe)

	api.POST("/products", h.Products.Create)
	api.GET("/products", h.Products.List)
	api.GET("/products/:product_id", h.Products.Get)
	api.PUT("/products/:product_id", h.Products.Update)
	api.DELETE("/products/:product_id", h.Products.Deactivate)

	api.POST("/businesses", h.Businesses.Create)
	api.GET("/businesses/:business_id", h.Businesses.Get)

	api.POST("/applications", h.Applications.Create)
	api.GET("/applications", h.Applications.List)
	api.GET("/applications/:application_id", h.Applications.Get)
	api.PATCH("/applications/:application_id", h.Applications.Update)
	api.DELETE("/applications/:application_id", h.Applications.Delete)

	api.GET("/applications/:application_id/status", h.Statuses.Get)
	api.PUT("/applications/:application_id/status", h.Statuses.Update)
	api.GET("/applications/:application_id/status/history", h.Statuses.History)
	api.POST("/applications/:application_id/approve", h.Statuses.Approve)
	api.POST("/applications/:application_id/reject", h.Statuses.Reject)

	api.GET("/applications/:application_id/audit", h.Audits.Trail)
	api.GET("/applications/:application_id/audit/summary", h.Audits.Summary)
	api.GET("/applications/:application_id/snapshots", h.Audits.Snapshots)
	api.GET("/applications/:application_id/snapshots/latest", h.Audits.LatestSnapshot)
	api.GET("/applications/:application_id/snapshots/:snapshot_id", h.Audits.Snapshot)

	api.POST("/applications/:application_id/documents/personal", h.Documents.Upload(document.KindPersonal))
	api.GET("/applications/:application_id/documents/personal", h.Documents.List(document.KindPersonal))
	api.POST("/applications/:application_id/documents/business", h.Documents.Upload(document.KindBusiness))
	api.GET("/applications/:application_id/documents/business", h.Documents.List(document.KindBusiness))
	api.POST("/applications/:application_id/document-requests", h.Documents.CreateRequest)
	api.GET("/applications/:application_id/document-requests", h.Documents.ListRequests)
	api.POST("/document-requests/:request_id/fulfill", h.Documents.Fulfil)

	api.GET("/applications/:application_id/offer-letters", h.OfferLetters.List)
	api.GET("/offer-letters/:offer_letter_id", h.OfferLetters.Get)

	api.GET("/tasks/dead", h.Tasks.Dead)
}
