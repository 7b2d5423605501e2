package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/dumeirei/glamping-backend/internal/common/logger"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
)

// systemActorID 定时任务写入历史时使用的操作员
const systemActorID int64 = 0

const driftPageSize = 100

// driftStatuses 仍可能被修改的预订状态
var driftStatuses = []string{
	models.BookingStatusPending,
	models.BookingStatusConfirmed,
	models.BookingStatusCheckedIn,
}

// TaskHandler 任务处理器
type TaskHandler struct {
	bookingRepo    *repository.BookingRepository
	recalculator   *bookingService.Recalculator
	bookingService *bookingService.BookingService
}

// NewTaskHandler 创建任务处理器
func NewTaskHandler(
	bookingRepo *repository.BookingRepository,
	recalculator *bookingService.Recalculator,
	bookingSvc *bookingService.BookingService,
) *TaskHandler {
	return &TaskHandler{
		bookingRepo:    bookingRepo,
		recalculator:   recalculator,
		bookingService: bookingSvc,
	}
}

// RepairTotalsDrift 找出持久化总额与有效行不一致的预订并重算
// 一致的预订不写任何东西，返回修复数量
func (h *TaskHandler) RepairTotalsDrift(ctx context.Context) (int, error) {
	repaired := 0
	for _, status := range driftStatuses {
		for offset := 0; ; offset += driftPageSize {
			bookings, total, err := h.bookingRepo.List(ctx, offset, driftPageSize, &repository.BookingListFilters{Status: status})
			if err != nil {
				return repaired, err
			}
			for _, b := range bookings {
				drifted, err := h.recalculator.Drifted(ctx, b)
				if err != nil {
					logger.Warn("drift check failed", logger.BookingID(b.ID), zap.Error(err))
					continue
				}
				if !drifted {
					continue
				}
				if _, err := h.bookingService.Recalculate(ctx, systemActorID, b.ID); err != nil {
					logger.Warn("drift repair failed", logger.BookingID(b.ID), zap.Error(err))
					continue
				}
				logger.Info("booking totals repaired", logger.BookingID(b.ID), logger.BookingNo(b.BookingNo))
				repaired++
			}
			if len(bookings) < driftPageSize || int64(offset+len(bookings)) >= total {
				break
			}
		}
	}
	return repaired, nil
}

// RepairTotalsDriftTask 适配调度器签名
func (h *TaskHandler) RepairTotalsDriftTask(ctx context.Context) error {
	_, err := h.RepairTotalsDrift(ctx)
	return err
}
