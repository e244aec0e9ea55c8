package services

import (
	"context"
	"testing"
	"time"

	"barstock-pos/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminders_DispatchOnce(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()
	now := time.Now()
	e.reminders.now = func() time.Time { return now }

	due, err := e.reminders.Create(ctx, manager, &ReminderInput{
		Title: strPtr("Order limes"),
		Note:  strPtr("Two cases"),
		DueAt: timePtr(now.Add(-time.Minute)),
	})
	require.NoError(t, err)
	_, err = e.reminders.Create(ctx, manager, &ReminderInput{Title: strPtr("Count kegs"), DueAt: timePtr(now.Add(time.Hour))})
	require.NoError(t, err)

	sent, err := e.reminders.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	sent, err = e.reminders.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)

	delivered := e.notifRepo.byType(domain.NotificationReminder)
	require.Len(t, delivered, 1)
	assert.Equal(t, manager.UserID, delivered[0].UserID)
	assert.Equal(t, "Order limes", delivered[0].Title)

	// moving the due time re-arms the reminder
	_, err = e.reminders.Update(ctx, due.ID, &ReminderInput{DueAt: timePtr(now.Add(-time.Second))})
	require.NoError(t, err)
	sent, err = e.reminders.DispatchDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestReminders_Validation(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	_, err := e.reminders.Create(ctx, manager, &ReminderInput{Title: strPtr(" ")})
	assert.ErrorIs(t, err, ErrReminderTitle)
	_, err = e.reminders.Create(ctx, manager, &ReminderInput{Title: strPtr("No due")})
	assert.ErrorIs(t, err, ErrReminderTitle)

	_, err = e.reminders.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrReminderNotFound)
	assert.ErrorIs(t, e.reminders.Delete(ctx, "missing"), ErrReminderNotFound)

	r, err := e.reminders.Create(ctx, manager, &ReminderInput{Title: strPtr("Mop"), DueAt: timePtr(time.Now())})
	require.NoError(t, err)
	done, err := e.reminders.Update(ctx, r.ID, &ReminderInput{Done: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, done.Done)

	open, _, err := e.reminders.List(ctx, false, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestNotifications_ReadState(t *testing.T) {
	e := newTestEnv()
	ctx := context.Background()

	require.NoError(t, e.notifications.Notify(ctx, employee.UserID, domain.NotificationPayment, "Paid", "12.00 usd"))
	require.NoError(t, e.notifications.Notify(ctx, manager.UserID, domain.NotificationPayment, "Paid", "9.00 usd"))
	require.NoError(t, e.notifications.Broadcast(ctx, domain.NotificationLowStock, "Low stock: Gin", "Gin is low"))

	mine, total, err := e.notifications.List(ctx, employee.UserID, false, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	assert.ErrorIs(t, e.notifications.MarkRead(ctx, employee.UserID, "missing"), ErrNotificationNotFound)
	require.NoError(t, e.notifications.MarkRead(ctx, employee.UserID, mine[0].ID))

	unread, _, err := e.notifications.List(ctx, employee.UserID, true, 0, 10)
	require.NoError(t, err)
	assert.Len(t, unread, 1)

	n, err := e.notifications.MarkAllRead(ctx, employee.UserID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
