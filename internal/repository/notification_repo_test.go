package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/glamping-backend/internal/models"
)

func TestNotificationRepository(t *testing.T) {
	db := setupTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()
	readAt := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	bookingID := int64(42)
	require.NoError(t, repo.Create(ctx, &models.Notification{
		BookingID: &bookingID,
		Type:      models.NotificationTypeBookingTotals,
		Title:     "Totals updated",
		Content:   "GL-1 total 880",
		Payload:   models.JSON{"total_amount": "880"},
	}))
	require.NoError(t, repo.Create(ctx, &models.Notification{
		BookingID: &bookingID,
		Type:      models.NotificationTypeBookingStatus,
		Title:     "Status changed",
		Content:   "GL-1 confirmed",
	}))
	require.NoError(t, repo.Create(ctx, &models.Notification{
		Type:    models.NotificationTypeSystem,
		Title:   "Maintenance",
		Content: "Tonight",
	}))

	unread, err := repo.CountUnread(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), unread)

	list, total, err := repo.List(ctx, 0, 10, &NotificationListFilters{
		BookingID: &bookingID,
		Type:      models.NotificationTypeBookingTotals,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "880", list[0].Payload["total_amount"])

	found, err := repo.MarkRead(ctx, list[0].ID, readAt)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.MarkRead(ctx, 9999, readAt)
	require.NoError(t, err)
	assert.False(t, found)

	unread, err = repo.CountUnread(ctx, &bookingID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)

	marked, err := repo.MarkAllRead(ctx, &bookingID, readAt)
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	isRead := false
	list, total, err = repo.List(ctx, 0, 10, &NotificationListFilters{IsRead: &isRead})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, models.NotificationTypeSystem, list[0].Type)
}
