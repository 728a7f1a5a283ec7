package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loan-origination/internal/domain/application"
	"loan-origination/internal/domain/task"
	"loan-origination/internal/domain/uow"
	"loan-origination/internal/domain/user"
	"loan-origination/internal/infrastructure/notify"
	"loan-origination/internal/testutil/appmock"
	"loan-origination/internal/testutil/usermock"
)

type captureNotifier struct {
	got []notify.Message
	err error
}

func (c *captureNotifier) Send(_ context.Context, msg notify.Message) error {
	c.got = append(c.got, msg)
	return c.err
}

func repos(owner *user.User) uow.Repos {
	return uow.Repos{
		Applications: &appmock.Repo{GetByApplicationIDFn: func(_ context.Context, id string) (*application.LoanApplication, error) {
			return &application.LoanApplication{ApplicationID: id, ApplicationNumber: "LA-20260101-ABCDEF", UserID: 7}, nil
		}},
		Users: &usermock.Repo{GetByIDFn: func(context.Context, uint64) (*user.User, error) { return owner, nil }},
	}
}

func notificationTask(t *testing.T) *task.Task {
	t.Helper()
	tk, err := task.New("t1", task.KindNotification, task.NotificationPayload{
		ApplicationID: "app1", Template: "application_rejected",
		PreviousStatus: "under_review", NewStatus: "rejected", Reason: "low score",
	}, 3, time.Now())
	require.NoError(t, err)
	return tk
}

func TestHandle_SendsToOwner(t *testing.T) {
	n := &captureNotifier{}
	owner := &user.User{ID: 7, Email: "ani@example.com", FullName: "Ani"}
	logger, _ := test.NewNullLogger()

	require.NoError(t, NewHandler(repos(owner), n, logger).Handle(context.Background(), notificationTask(t)))
	require.Len(t, n.got, 1)
	msg := n.got[0]
	assert.Equal(t, "ani@example.com", msg.Recipient)
	assert.Equal(t, notify.ChannelEmail, msg.Channel)
	assert.Equal(t, "application_rejected", msg.Template)
	assert.Equal(t, "low score", msg.Data["Reason"])

	tpl, err := notify.DefaultTemplates()
	require.NoError(t, err)
	r, err := tpl.Render(msg)
	require.NoError(t, err)
	assert.Contains(t, r.Body, "LA-20260101-ABCDEF")
	assert.Contains(t, r.Body, "Reason: low score")
}

func TestHandle_FallsBackToSMS(t *testing.T) {
	n := &captureNotifier{}
	owner := &user.User{ID: 7, Phone: "+6281100", FullName: "Ani"}
	require.NoError(t, NewHandler(repos(owner), n, nil).Handle(context.Background(), notificationTask(t)))
	require.Len(t, n.got, 1)
	assert.Equal(t, notify.ChannelSMS, n.got[0].Channel)
}

func TestHandle_NoContactIsDropped(t *testing.T) {
	n := &captureNotifier{}
	logger, hook := test.NewNullLogger()
	require.NoError(t, NewHandler(repos(&user.User{ID: 7}), n, logger).Handle(context.Background(), notificationTask(t)))
	assert.Empty(t, n.got)
	require.NotNil(t, hook.LastEntry())
	assert.Contains(t, hook.LastEntry().Message, "notification dropped")
}

func TestHandle_SendFailureIsRetryable(t *testing.T) {
	n := &captureNotifier{err: errors.New("gateway 503")}
	owner := &user.User{ID: 7, Email: "ani@example.com"}
	err := NewHandler(repos(owner), n, nil).Handle(context.Background(), notificationTask(t))
	assert.ErrorContains(t, err, "gateway 503")
}
