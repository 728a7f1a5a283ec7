// Package notification turns queued status-change notifications into
// messages for the borrower.
package notification

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/infrastructure/notify"
)

type Handler struct {
	pool     uow.Repos
	notifier notify.Notifier
	log      logrus.FieldLogger
}

func NewHandler(pool uow.Repos, notifier notify.Notifier, log logrus.FieldLogger) *Handler {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Handler{pool: pool, notifier: notifier, log: log}
}

// Handle processes a task.KindNotification task. Errors are retried by the
// dispatcher; the borrower may receive a duplicate after a partial failure.
func (h *Handler) Handle(ctx context.Context, t *task.Task) error {
	var p task.NotificationPayload
	if err := t.Decode(&p); err != nil {
		return err
	}
	a, err := h.pool.Applications.GetByApplicationID(ctx, p.ApplicationID)
	if err != nil {
		return fmt.Errorf("load application %s: %w", p.ApplicationID, err)
	}
	owner, err := h.pool.Users.GetByID(ctx, a.UserID)
	if err != nil {
		return fmt.Errorf("load owner of %s: %w", p.ApplicationID, err)
	}

	msg := notify.Message{
		Recipient: owner.Email,
		Channel:   notify.ChannelEmail,
		Template:  p.Template,
		Data: map[string]any{
			"FullName":          owner.FullName,
			"ApplicationNumber": a.ApplicationNumber,
			"PreviousStatus":    p.PreviousStatus,
			"NewStatus":         p.NewStatus,
			"Reason":            p.Reason,
		},
	}
	if msg.Recipient == "" && owner.Phone != "" {
		msg.Recipient = owner.Phone
		msg.Channel = notify.ChannelSMS
	}
	if msg.Recipient == "" {
		h.log.WithField("application_id", p.ApplicationID).Warn("borrower has no contact, notification dropped")
		return nil
	}
	if err := h.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s notification: %w", p.Template, err)
	}
	return nil
}
