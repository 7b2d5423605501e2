package booking

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testEvent(eventType string) *BookingEvent {
	booking := &models.Booking{ID: 42, BookingNo: "GB20260601ABCDEF", Status: models.BookingStatusConfirmed}
	totals := &Totals{
		SubtotalAmount: dec("800"),
		TaxAmount:      dec("80"),
		TotalAmount:    dec("880"),
		DepositDue:     dec("264"),
		BalanceDue:     dec("880"),
		PaymentStatus:  models.PaymentStatusUnpaid,
	}
	return newBookingEvent(eventType, ActionStatusChanged, booking, totals, testNow)
}

func TestNewNotifier(t *testing.T) {
	assert.Equal(t, "inapp", NewNotifier(nil, nil).Driver())
	assert.Equal(t, "inapp", NewNotifier(&config.NotifyConfig{Driver: "inapp"}, nil).Driver())

	n := NewNotifier(&config.NotifyConfig{Driver: "kafka", KafkaBrokers: []string{"localhost:9092"}, KafkaTopic: "bookings"}, nil)
	require.IsType(t, &KafkaNotifier{}, n)
	assert.Equal(t, "kafka", n.Driver())
	writer, ok := n.(*KafkaNotifier).writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, kafkaBatchTimeout, writer.BatchTimeout)
	assert.Equal(t, kafka.RequireOne, writer.RequiredAcks)
	assert.NoError(t, n.(*KafkaNotifier).Close())
}

func TestInAppNotifier(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	n := NewInAppNotifier(e.notifications)

	require.NoError(t, n.Notify(ctx, testEvent(models.NotificationTypeBookingStatus)))
	require.NoError(t, n.Notify(ctx, testEvent(models.NotificationTypeBookingTotals)))

	bookingID := int64(42)
	list, total, err := e.notifications.List(ctx, 0, 10, &repository.NotificationListFilters{BookingID: &bookingID})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)

	totals, status := list[0], list[1]
	assert.Equal(t, "Booking GB20260601ABCDEF confirmed", status.Title)
	assert.Equal(t, "Booking GB20260601ABCDEF is now confirmed", status.Content)
	assert.Equal(t, "Booking GB20260601ABCDEF totals updated", totals.Title)
	assert.Equal(t, "Subtotal 800.00, tax 80.00, total 880.00", totals.Content)
	assert.Equal(t, "880.00", totals.Payload["total_amount"])
	assert.Equal(t, models.PaymentStatusUnpaid, totals.Payload["payment_status"])
}

func TestKafkaNotifier(t *testing.T) {
	w := &fakeWriter{}
	n := &KafkaNotifier{writer: w}

	require.NoError(t, n.Notify(context.Background(), testEvent(models.NotificationTypeBookingTotals)))
	require.Len(t, w.messages, 1)

	msg := w.messages[0]
	assert.Equal(t, "42", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, "type", msg.Headers[0].Key)
	assert.Equal(t, models.NotificationTypeBookingTotals, string(msg.Headers[0].Value))

	var decoded BookingEvent
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "GB20260601ABCDEF", decoded.BookingNo)
	assert.Equal(t, ActionStatusChanged, decoded.Action)
	assert.Equal(t, "880", decoded.TotalAmount.String())
	assert.True(t, decoded.OccurredAt.Equal(testNow))

	require.NoError(t, n.Close())
	assert.True(t, w.closed)
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Notify(context.Context, *BookingEvent) error {
	f.calls++
	return errors.New("broker down")
}

func (f *failingNotifier) Driver() string { return "failing" }

func TestMutate_NotificationFailureDoesNotRollBack(t *testing.T) {
	e := newTestEnv(t)
	notifier := &failingNotifier{}
	e.svc.notifier = notifier
	booking := e.newBooking(t)

	result, err := e.svc.AddTent(context.Background(), testActorID, booking.ID, &AddTentRequest{
		UnitID: e.unit.ID, CheckIn: day(6, 1), CheckOut: day(6, 3), Quantities: e.adults(2),
	})
	require.NoError(t, err)
	assert.Equal(t, "880", result.Totals.TotalAmount.String())
	assert.Equal(t, 1, notifier.calls)
	assert.Len(t, e.liveTents(t, booking.ID), 1)
}
