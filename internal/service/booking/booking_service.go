package booking

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/common/logger"
	"github.com/dumeirei/glamping-backend/internal/common/metrics"
	"github.com/dumeirei/glamping-backend/internal/common/tracing"
	"github.com/dumeirei/glamping-backend/internal/common/utils"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// BookingService 预订变更编排：每次变更一个事务，结束前重算总额并追加历史
type BookingService struct {
	db           *gorm.DB
	bookingRepo  *repository.BookingRepository
	unitRepo     *repository.UnitRepository
	menuRepo     *repository.MenuRepository
	availability *AvailabilityChecker
	resolver     *PricingResolver
	validator    *marketing.VoucherValidator
	recalculator *Recalculator
	notifier     Notifier
	metrics      *metrics.Metrics
	cfg          config.BookingConfig
	now          func() time.Time
}

// NewBookingService 创建预订服务
func NewBookingService(
	db *gorm.DB,
	bookingRepo *repository.BookingRepository,
	unitRepo *repository.UnitRepository,
	menuRepo *repository.MenuRepository,
	resolver *PricingResolver,
	validator *marketing.VoucherValidator,
	recalculator *Recalculator,
	notifier Notifier,
	m *metrics.Metrics,
	cfg config.BookingConfig,
) *BookingService {
	return &BookingService{
		db:           db,
		bookingRepo:  bookingRepo,
		unitRepo:     unitRepo,
		menuRepo:     menuRepo,
		availability: NewAvailabilityChecker(bookingRepo),
		resolver:     resolver,
		validator:    validator,
		recalculator: recalculator,
		notifier:     notifier,
		metrics:      m,
		cfg:          cfg,
		now:          time.Now,
	}
}

// SetClock 替换时钟
func (s *BookingService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateBookingRequest 创建预订请求
type CreateBookingRequest struct {
	ZoneID        int64   `json:"zone_id" binding:"required,min=1"`
	CustomerName  string  `json:"customer_name" binding:"required,max=100"`
	CustomerEmail *string `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone *string `json:"customer_phone" binding:"omitempty,max=20"`
	Notes         *string `json:"notes"`
}

// MutationResult 变更结果
type MutationResult struct {
	Totals *Totals `json:"totals"`
	LineID int64   `json:"line_id,omitempty"`
}

// BookingDetail 预订详情
type BookingDetail struct {
	*models.Booking
	History []*models.BookingStatusHistory `json:"history"`
}

// BookingListRequest 预订列表请求
type BookingListRequest struct {
	Page      int
	PageSize  int
	ZoneID    *int64
	Status    string
	BookingNo string
}

// statusTransitions 允许的状态流转
var statusTransitions = map[string][]string{
	models.BookingStatusPending:   {models.BookingStatusConfirmed, models.BookingStatusCancelled, models.BookingStatusRejected},
	models.BookingStatusConfirmed: {models.BookingStatusCheckedIn, models.BookingStatusCancelled},
	models.BookingStatusCheckedIn: {models.BookingStatusCheckedOut},
}

type statusGuard int

const (
	requireOpen statusGuard = iota // 已取消/已拒绝的预订不可修改
	anyStatus
)

// txScope 单次变更事务内的上下文，全部读写经由 tx
type txScope struct {
	tx           *gorm.DB
	booking      *models.Booking
	bookings     *repository.BookingRepository
	units        *repository.UnitRepository
	menu         *repository.MenuRepository
	availability *AvailabilityChecker
	resolver     *PricingResolver
	validator    *marketing.VoucherValidator

	description string
	fromStatus  *string
	toStatus    *string
	lineID      int64
}

func (s *BookingService) scope(tx *gorm.DB, booking *models.Booking) *txScope {
	return &txScope{
		tx:           tx,
		booking:      booking,
		bookings:     s.bookingRepo.WithTx(tx),
		units:        s.unitRepo.WithTx(tx),
		menu:         s.menuRepo.WithTx(tx),
		availability: s.availability.WithTx(tx),
		resolver:     s.resolver.WithTx(tx),
		validator:    s.validator.WithTx(tx),
	}
}

// CreateBooking 创建空预订
func (s *BookingService) CreateBooking(ctx context.Context, actorID int64, req *CreateBookingRequest) (*models.Booking, error) {
	ctx, span := tracing.Start(ctx, "booking."+ActionCreated, tracing.WithOperation(ActionCreated))

	booking := &models.Booking{
		BookingNo:     utils.GenerateBookingNo(s.cfg.NoPrefix, s.now()),
		ZoneID:        req.ZoneID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Notes:         req.Notes,
		Status:        models.BookingStatusPending,
		PaymentStatus: models.PaymentStatusUnpaid,
		CreatedBy:     &actorID,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := s.unitRepo.WithTx(tx).GetZone(ctx, req.ZoneID); err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrZoneNotFound
			}
			return err
		}
		bookings := s.bookingRepo.WithTx(tx)
		if err := bookings.Create(ctx, booking); err != nil {
			return err
		}
		to := booking.Status
		return bookings.AppendHistory(ctx, &models.BookingStatusHistory{
			BookingID:   booking.ID,
			ActorID:     &actorID,
			Action:      ActionCreated,
			ToStatus:    &to,
			Description: describeCreated(booking),
		})
	})
	tracing.End(span, err)
	s.metrics.RecordBookingMutation(ActionCreated, err)
	if err != nil {
		return nil, s.fail(ctx, ActionCreated, actorID, 0, err)
	}

	logger.Info("booking created", logger.BookingID(booking.ID), logger.BookingNo(booking.BookingNo), logger.AdminID(actorID))
	return s.bookingRepo.GetByID(ctx, booking.ID)
}

// GetBooking 获取预订详情（含明细行与历史）
func (s *BookingService) GetBooking(ctx context.Context, bookingID int64) (*BookingDetail, error) {
	booking, err := s.bookingRepo.GetByIDWithDetails(ctx, bookingID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	history, err := s.bookingRepo.ListHistory(ctx, bookingID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return &BookingDetail{Booking: booking, History: history}, nil
}

// GetBookingByNo 按预订号获取
func (s *BookingService) GetBookingByNo(ctx context.Context, bookingNo string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByBookingNo(ctx, bookingNo)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrBookingNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	return booking, nil
}

// ListBookings 预订列表
func (s *BookingService) ListBookings(ctx context.Context, req *BookingListRequest) ([]*models.Booking, int64, error) {
	p := utils.Pagination{Page: req.Page, PageSize: req.PageSize}
	p.Normalize()
	bookings, total, err := s.bookingRepo.List(ctx, p.GetOffset(), p.GetLimit(), &repository.BookingListFilters{
		ZoneID:    req.ZoneID,
		Status:    req.Status,
		BookingNo: req.BookingNo,
	})
	if err != nil {
		return nil, 0, errors.ErrDatabaseError.WithError(err)
	}
	return bookings, total, nil
}

// UpdateStatus 变更预订状态；取消/拒绝后库存随即释放
func (s *BookingService) UpdateStatus(ctx context.Context, actorID, bookingID int64, status string) (*MutationResult, error) {
	return s.mutate(ctx, ActionStatusChanged, actorID, bookingID, anyStatus, func(ctx context.Context, m *txScope) error {
		from := m.booking.Status
		if !utils.Contains(statusTransitions[from], status) {
			return errors.ErrBookingStatusError.WithMessage(fmt.Sprintf("预订状态不允许从 %s 变更为 %s", from, status))
		}
		if err := m.bookings.UpdateStatus(ctx, m.booking.ID, status); err != nil {
			return err
		}
		m.booking.Status = status
		m.fromStatus, m.toStatus = &from, &status
		m.description = describeStatus(from, status)
		return nil
	})
}

// Recalculate 运维触发的总额重算
func (s *BookingService) Recalculate(ctx context.Context, actorID, bookingID int64) (*MutationResult, error) {
	var before *models.Booking
	return s.mutate(ctx, ActionRecalculated, actorID, bookingID, anyStatus, func(ctx context.Context, m *txScope) error {
		b := *m.booking
		before = &b
		return nil
	}, func(totals *Totals) string {
		return describeRecalculated(before, totals)
	})
}

// DeleteBooking 删除已取消或已拒绝的预订及其全部明细
func (s *BookingService) DeleteBooking(ctx context.Context, actorID, bookingID int64) error {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return errors.ErrBookingNotFound
		}
		return errors.ErrDatabaseError.WithError(err)
	}
	if !booking.IsTerminal() {
		return errors.ErrBookingStatusError.WithMessage("只能删除已取消或已拒绝的预订")
	}
	if err := s.bookingRepo.Delete(ctx, bookingID); err != nil {
		return s.fail(ctx, "deleted", actorID, bookingID, err)
	}
	logger.Info("booking deleted", logger.BookingID(bookingID), logger.AdminID(actorID))
	return nil
}

// mutate 在事务内执行变更：锁定预订、执行 fn、重算总额、追加历史；提交后发通知
// describe 可选，用于依赖重算结果的历史描述
func (s *BookingService) mutate(ctx context.Context, action string, actorID, bookingID int64, guard statusGuard, fn func(ctx context.Context, m *txScope) error, describe ...func(*Totals) string) (*MutationResult, error) {
	ctx, span := tracing.Start(ctx, "booking."+action,
		tracing.WithBookingID(bookingID),
		tracing.WithOperation(action),
		tracing.WithActorID(actorID),
	)

	var (
		booking *models.Booking
		totals  *Totals
		lineID  int64
		status  bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.bookingRepo.GetForUpdate(ctx, tx, bookingID)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				return errors.ErrBookingNotFound
			}
			return err
		}
		if guard == requireOpen && locked.IsTerminal() {
			return errors.ErrBookingStatusError
		}

		m := s.scope(tx, locked)
		if err := fn(ctx, m); err != nil {
			return err
		}

		totals, err = s.recalculator.WithTx(tx).Recalculate(ctx, bookingID)
		if err != nil {
			return err
		}

		description := m.description
		for _, d := range describe {
			description = d(totals)
		}
		if err := m.bookings.AppendHistory(ctx, &models.BookingStatusHistory{
			BookingID:   bookingID,
			ActorID:     &actorID,
			Action:      action,
			FromStatus:  m.fromStatus,
			ToStatus:    m.toStatus,
			Description: description,
			Metadata:    historyMetadata(m.lineID, totals),
		}); err != nil {
			return err
		}

		booking, lineID, status = m.booking, m.lineID, m.toStatus != nil
		return nil
	})
	tracing.End(span, err)
	s.metrics.RecordBookingMutation(action, err)
	if err != nil {
		return nil, s.fail(ctx, action, actorID, bookingID, err)
	}

	eventType := models.NotificationTypeBookingTotals
	if status {
		eventType = models.NotificationTypeBookingStatus
	}
	s.notify(ctx, eventType, action, booking, totals)
	return &MutationResult{Totals: totals, LineID: lineID}, nil
}

func historyMetadata(lineID int64, totals *Totals) models.JSON {
	meta := models.JSON{
		"subtotal_amount": money(totals.SubtotalAmount),
		"tax_amount":      money(totals.TaxAmount),
		"total_amount":    money(totals.TotalAmount),
	}
	if lineID != 0 {
		meta["line_id"] = lineID
	}
	return meta
}

// fail 校验类错误原样返回，其余错误记录日志后统一为操作失败
func (s *BookingService) fail(ctx context.Context, action string, actorID, bookingID int64, err error) error {
	var (
		conflict *AvailabilityConflictError
		missing  *MissingPricingError
		rejected *marketing.VoucherRejectedError
		appErr   *errors.AppError
	)
	switch {
	case stderrors.As(err, &conflict):
		s.metrics.RecordAvailabilityConflict(conflict.UnitID)
		return err
	case stderrors.As(err, &missing), stderrors.As(err, &rejected), stderrors.As(err, &appErr):
		return err
	}

	fields := []zap.Field{
		logger.Action(action),
		logger.AdminID(actorID),
		zap.Error(err),
	}
	if bookingID != 0 {
		fields = append(fields, logger.BookingID(bookingID))
	}
	if traceID := tracing.TraceID(ctx); traceID != "" {
		fields = append(fields, zap.String("trace_id", traceID))
	}
	logger.Ctx(ctx).Error("booking mutation failed", fields...)
	return errors.ErrOperationFailed.WithError(err)
}

// notify 提交后通知，失败只记录日志
func (s *BookingService) notify(ctx context.Context, eventType, action string, booking *models.Booking, totals *Totals) {
	if s.notifier == nil || booking == nil {
		return
	}
	event := newBookingEvent(eventType, action, booking, totals, s.now())
	err := s.notifier.Notify(context.WithoutCancel(ctx), event)
	s.metrics.RecordNotification(s.notifier.Driver(), err)
	if err != nil {
		logger.Ctx(ctx).Warn("booking notification failed",
			logger.BookingID(booking.ID),
			logger.Action(action),
			zap.String("driver", s.notifier.Driver()),
			zap.Error(err),
		)
	}
}
