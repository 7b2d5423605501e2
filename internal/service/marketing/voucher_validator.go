package marketing

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/metrics"
	"github.com/dumeirei/glamping-backend/internal/common/utils"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

var hundred = decimal.NewFromInt(100)

// VoucherContext 校验上下文
type VoucherContext struct {
	ZoneID          int64
	ItemID          *int64
	CheckInDate     *time.Time
	TotalAmount     decimal.Decimal
	ApplicationType string
}

// ValidationResult 校验结果；Valid 为 false 时只有 Reason 有意义
type ValidationResult struct {
	Valid          bool                 `json:"valid"`
	Reason         string               `json:"reason,omitempty"`
	VoucherID      int64                `json:"voucher_id,omitempty"`
	Code           string               `json:"code,omitempty"`
	DiscountType   string               `json:"discount_type,omitempty"`
	DiscountValue  decimal.Decimal      `json:"discount_value"`
	DiscountAmount decimal.Decimal      `json:"discount_amount"`
	Target         models.VoucherTarget `json:"target,omitempty"`

	Voucher *models.Voucher `json:"-"`
}

// Err 将拒绝结果转换为错误
func (r *ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	return &VoucherRejectedError{Code: r.Code, Reason: r.Reason}
}

// Snapshot 生成订单行上的优惠快照
func (r *ValidationResult) Snapshot() models.VoucherSnapshot {
	if !r.Valid || r.Voucher == nil {
		return models.VoucherSnapshot{}
	}
	id := r.VoucherID
	target := r.Target
	discountType := r.DiscountType
	snap := models.VoucherSnapshot{
		VoucherID:      &id,
		DiscountType:   &discountType,
		DiscountValue:  r.DiscountValue,
		VoucherTarget:  &target,
		DiscountAmount: r.DiscountAmount,
	}
	if r.Code != "" {
		snap.VoucherCode = utils.StringPtr(r.Code)
	}
	return snap
}

// VoucherValidator 优惠券校验器，校验不消耗使用次数
type VoucherValidator struct {
	voucherRepo *repository.VoucherRepository
	metrics     *metrics.Metrics
	now         func() time.Time
}

// NewVoucherValidator 创建优惠券校验器
func NewVoucherValidator(voucherRepo *repository.VoucherRepository, m *metrics.Metrics) *VoucherValidator {
	return &VoucherValidator{
		voucherRepo: voucherRepo,
		metrics:     m,
		now:         time.Now,
	}
}

// WithTx 返回绑定到事务的校验器
func (v *VoucherValidator) WithTx(tx *gorm.DB) *VoucherValidator {
	c := *v
	c.voucherRepo = v.voucherRepo.WithTx(tx)
	return &c
}

// SetClock 替换时钟
func (v *VoucherValidator) SetClock(now func() time.Time) {
	v.now = now
}

// Validate 按优惠码校验，只有数据库错误会返回 error
func (v *VoucherValidator) Validate(ctx context.Context, code string, vctx VoucherContext) (*ValidationResult, error) {
	voucher, err := v.Find(ctx, code)
	var rejected *VoucherRejectedError
	if errors.As(err, &rejected) {
		return &ValidationResult{Code: rejected.Code, Reason: rejected.Reason}, nil
	}
	if err != nil {
		return nil, err
	}
	return v.Check(voucher, vctx), nil
}

// Find 按优惠码查找，不存在时返回 *VoucherRejectedError
func (v *VoucherValidator) Find(ctx context.Context, code string) (*models.Voucher, error) {
	code = utils.NormalizeCode(code)
	voucher, err := v.voucherRepo.GetByCode(ctx, code)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		v.metrics.RecordVoucherRejection(ReasonNotFound)
		return nil, &VoucherRejectedError{Code: code, Reason: ReasonNotFound}
	}
	if err != nil {
		return nil, err
	}
	return voucher, nil
}

// Check 校验已加载的优惠券并记录拒绝原因
func (v *VoucherValidator) Check(voucher *models.Voucher, vctx VoucherContext) *ValidationResult {
	result := v.Evaluate(voucher, vctx)
	if !result.Valid {
		v.metrics.RecordVoucherRejection(result.Reason)
	}
	return result
}

// Evaluate 对已加载的优惠券执行规则检查（第 2 步起）
func (v *VoucherValidator) Evaluate(voucher *models.Voucher, vctx VoucherContext) *ValidationResult {
	result := &ValidationResult{
		VoucherID: voucher.ID,
		Code:      utils.SafeString(voucher.Code),
		Voucher:   voucher,
	}
	if reason := v.reject(voucher, vctx); reason != "" {
		result.Reason = reason
		return result
	}
	result.Valid = true
	result.DiscountType = voucher.DiscountType
	result.DiscountValue = voucher.Value
	result.Target = voucher.Target
	result.DiscountAmount = ComputeDiscount(voucher.DiscountType, voucher.Value, vctx.TotalAmount)
	return result
}

func (v *VoucherValidator) reject(voucher *models.Voucher, vctx VoucherContext) string {
	if voucher.Status != models.StatusActive {
		return ReasonInactive
	}
	if voucher.MaxUses != nil && voucher.CurrentUses >= *voucher.MaxUses {
		return ReasonUsageLimitReached
	}

	switch voucher.Recurrence {
	case models.RecurrenceDateRange:
		today := models.DateOnly(v.now())
		if voucher.StartDate != nil && today.Before(models.DateOnly(*voucher.StartDate)) {
			return ReasonNotStarted
		}
		if voucher.EndDate != nil && today.After(models.DateOnly(*voucher.EndDate)) {
			return ReasonExpired
		}
	case models.RecurrenceOneTime:
		if voucher.CurrentUses > 0 {
			return ReasonAlreadyUsed
		}
	}

	if len(voucher.WeeklyDays) > 0 && vctx.CheckInDate != nil {
		if !voucher.WeeklyDays.Allows(vctx.CheckInDate.Weekday()) {
			return ReasonWeekdayNotAllowed
		}
	}
	if voucher.ZoneID != nil && *voucher.ZoneID != vctx.ZoneID {
		return ReasonZoneMismatch
	}
	if voucher.ApplicationType != vctx.ApplicationType {
		return ReasonApplicationTypeMismatch
	}
	if len(voucher.ItemIDs) > 0 && (vctx.ItemID == nil || !voucher.ItemIDs.Contains(*vctx.ItemID)) {
		return ReasonItemNotEligible
	}
	return ""
}

// Consume 原子核销一次；失败时返回 *VoucherRejectedError
func (v *VoucherValidator) Consume(ctx context.Context, voucher *models.Voucher) error {
	ok, err := v.voucherRepo.Consume(ctx, voucher.ID)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	reason := ReasonUsageLimitReached
	if voucher.Recurrence == models.RecurrenceOneTime {
		reason = ReasonAlreadyUsed
	}
	v.metrics.RecordVoucherRejection(reason)
	return &VoucherRejectedError{Code: utils.SafeString(voucher.Code), Reason: reason}
}

// FindAutomatic 返回区域内当前可用的自动优惠（无优惠码），按折扣金额从高到低
func (v *VoucherValidator) FindAutomatic(ctx context.Context, vctx VoucherContext) ([]*ValidationResult, error) {
	vouchers, err := v.voucherRepo.ListAutomatic(ctx, vctx.ZoneID, vctx.ApplicationType)
	if err != nil {
		return nil, err
	}
	results := make([]*ValidationResult, 0, len(vouchers))
	for _, voucher := range vouchers {
		if r := v.Evaluate(voucher, vctx); r.Valid {
			results = append(results, r)
		}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].DiscountAmount.GreaterThan(results[j].DiscountAmount)
	})
	return results, nil
}

// ComputeDiscount 计算折扣金额，结果落在 [0, total]
func ComputeDiscount(discountType string, value, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() || !value.IsPositive() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch discountType {
	case models.DiscountTypePercentage:
		discount = total.Mul(value).Div(hundred).Round(2)
	case models.DiscountTypeFixed:
		discount = value
	default:
		return decimal.Zero
	}
	return decimal.Min(discount, total)
}
