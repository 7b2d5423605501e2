package booking

import (
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/cache"
	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/metrics"
	"github.com/dumeirei/glamping-backend/internal/repository"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// Services 组装好的预订引擎
type Services struct {
	Booking      *BookingService
	Quote        *QuoteService
	Validator    *marketing.VoucherValidator
	Recalculator *Recalculator
	Notifier     Notifier
	Inbox        *NotificationService
}

// NewServices 按配置组装仓储与服务；notifier 为 nil 时按 notify 配置创建
func NewServices(db *gorm.DB, c *cache.Cache, m *metrics.Metrics, cfg *config.Config, notifier Notifier) *Services {
	bookingRepo := repository.NewBookingRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	taxRepo := repository.NewTaxRepository(db)

	resolver := NewPricingResolver(repository.NewPricingRepository(db), unitRepo)
	taxCalc := NewTaxCalculator(bookingRepo, taxRepo)
	validator := marketing.NewVoucherValidator(repository.NewVoucherRepository(db), m)
	recalculator := NewRecalculator(bookingRepo, taxCalc, cfg.Business.Booking.DepositRate, m)
	notificationRepo := repository.NewNotificationRepository(db)
	if notifier == nil {
		notifier = NewNotifier(&cfg.Notify, notificationRepo)
	}

	return &Services{
		Booking: NewBookingService(db, bookingRepo, unitRepo, repository.NewMenuRepository(db),
			resolver, validator, recalculator, notifier, m, cfg.Business.Booking),
		Quote:        NewQuoteService(unitRepo, bookingRepo, resolver, validator, taxCalc, c, m, cfg.Business.Booking),
		Validator:    validator,
		Recalculator: recalculator,
		Notifier:     notifier,
		Inbox:        NewNotificationService(notificationRepo),
	}
}
