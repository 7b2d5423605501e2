package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"

	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

// BookingEvent 提交后发出的预订变更事件
type BookingEvent struct {
	Type           string          `json:"type"`
	BookingID      int64           `json:"booking_id"`
	BookingNo      string          `json:"booking_no"`
	Action         string          `json:"action"`
	Status         string          `json:"status"`
	SubtotalAmount decimal.Decimal `json:"subtotal_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	DepositDue     decimal.Decimal `json:"deposit_due"`
	BalanceDue     decimal.Decimal `json:"balance_due"`
	PaymentStatus  string          `json:"payment_status"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

func newBookingEvent(eventType, action string, b *models.Booking, totals *Totals, now time.Time) *BookingEvent {
	e := &BookingEvent{
		Type:       eventType,
		BookingID:  b.ID,
		BookingNo:  b.BookingNo,
		Action:     action,
		Status:     b.Status,
		OccurredAt: now,
	}
	if totals != nil {
		e.SubtotalAmount = totals.SubtotalAmount
		e.TaxAmount = totals.TaxAmount
		e.TotalAmount = totals.TotalAmount
		e.DepositDue = totals.DepositDue
		e.BalanceDue = totals.BalanceDue
		e.PaymentStatus = totals.PaymentStatus
	}
	return e
}

// Notifier 通知分发；失败不影响已提交的预订
type Notifier interface {
	Notify(ctx context.Context, event *BookingEvent) error
	Driver() string
}

// NewNotifier 按配置创建通知分发器
func NewNotifier(cfg *config.NotifyConfig, repo *repository.NotificationRepository) Notifier {
	if cfg != nil && cfg.Driver == "kafka" {
		return NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
	}
	return NewInAppNotifier(repo)
}

// InAppNotifier 写入站内通知表
type InAppNotifier struct {
	repo *repository.NotificationRepository
}

// NewInAppNotifier 创建站内通知分发器
func NewInAppNotifier(repo *repository.NotificationRepository) *InAppNotifier {
	return &InAppNotifier{repo: repo}
}

// Driver 驱动名
func (n *InAppNotifier) Driver() string { return "inapp" }

// Notify 写入一条通知
func (n *InAppNotifier) Notify(ctx context.Context, event *BookingEvent) error {
	bookingID := event.BookingID
	notification := &models.Notification{
		BookingID: &bookingID,
		Type:      event.Type,
		Payload: models.JSON{
			"action":          event.Action,
			"status":          event.Status,
			"subtotal_amount": money(event.SubtotalAmount),
			"tax_amount":      money(event.TaxAmount),
			"total_amount":    money(event.TotalAmount),
			"deposit_due":     money(event.DepositDue),
			"balance_due":     money(event.BalanceDue),
			"payment_status":  event.PaymentStatus,
		},
	}
	switch event.Type {
	case models.NotificationTypeBookingStatus:
		notification.Title = fmt.Sprintf("Booking %s %s", event.BookingNo, event.Status)
		notification.Content = fmt.Sprintf("Booking %s is now %s", event.BookingNo, event.Status)
	default:
		notification.Title = fmt.Sprintf("Booking %s totals updated", event.BookingNo)
		notification.Content = fmt.Sprintf("Subtotal %s, tax %s, total %s",
			money(event.SubtotalAmount), money(event.TaxAmount), money(event.TotalAmount))
	}
	return n.repo.Create(ctx, notification)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier 将事件发布到 Kafka，键为预订 ID
type KafkaNotifier struct {
	writer messageWriter
}

// kafkaBatchTimeout 提交后同步写入时的最长攒批等待
const kafkaBatchTimeout = 10 * time.Millisecond

// NewKafkaNotifier 创建 Kafka 分发器
func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           kafkaBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// Driver 驱动名
func (n *KafkaNotifier) Driver() string { return "kafka" }

// Notify 发布事件
func (n *KafkaNotifier) Notify(ctx context.Context, event *BookingEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(event.BookingID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	})
}

// Close 关闭写入器
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
