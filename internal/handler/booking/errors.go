package booking

import (
	stderrors "errors"

	"github.com/gin-gonic/gin"

	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/common/handler"
	bookingService "github.com/dumeirei/glamping-backend/internal/service/booking"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

// voucherReasonErrors 拒绝原因对应的错误码，未列出的归为 ErrVoucherNotApplicable
var voucherReasonErrors = map[string]*errors.AppError{
	marketing.ReasonNotFound:          errors.ErrVoucherNotFound,
	marketing.ReasonInactive:          errors.ErrVoucherInactive,
	marketing.ReasonNotStarted:        errors.ErrVoucherExpired,
	marketing.ReasonExpired:           errors.ErrVoucherExpired,
	marketing.ReasonAlreadyUsed:       errors.ErrVoucherUsed,
	marketing.ReasonUsageLimitReached: errors.ErrVoucherUsed,
}

// toAppError 将计价引擎的类型化错误转换为带数据的 AppError
func toAppError(err error) error {
	var (
		conflict *bookingService.AvailabilityConflictError
		missing  *bookingService.MissingPricingError
		rejected *marketing.VoucherRejectedError
	)
	switch {
	case stderrors.As(err, &conflict):
		return errors.ErrBookingConflict.WithError(err).WithData(gin.H{
			"unit_id":      conflict.UnitID,
			"check_in":     conflict.CheckIn.Format(handler.DateFormat),
			"check_out":    conflict.CheckOut.Format(handler.DateFormat),
			"booked_count": conflict.BookedCount,
			"capacity":     conflict.Capacity,
		})
	case stderrors.As(err, &missing):
		return errors.ErrPricingMissing.WithError(err).WithData(gin.H{
			"unit_id":        missing.UnitID,
			"parameter_id":   missing.ParameterID,
			"parameter_name": missing.ParameterName,
			"night":          missing.Night.Format(handler.DateFormat),
		})
	case stderrors.As(err, &rejected):
		appErr, ok := voucherReasonErrors[rejected.Reason]
		if !ok {
			appErr = errors.ErrVoucherNotApplicable
		}
		return appErr.WithError(err).WithData(gin.H{
			"code":   rejected.Code,
			"reason": rejected.Reason,
		})
	}
	return err
}

// handleError 转换类型化错误后统一响应
func handleError(c *gin.Context, err error) bool {
	return handler.HandleError(c, toAppError(err))
}

// mustSucceed 同 handler.MustSucceed，先转换类型化错误
func mustSucceed(c *gin.Context, err error, data interface{}) {
	handler.MustSucceed(c, toAppError(err), data)
}
