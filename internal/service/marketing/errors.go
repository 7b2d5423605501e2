// Package marketing 提供优惠券校验与核销
package marketing

import "fmt"

// 优惠券拒绝原因，按校验顺序排列
const (
	ReasonNotFound                = "not_found"
	ReasonInactive                = "inactive"
	ReasonUsageLimitReached       = "usage_limit_reached"
	ReasonNotStarted              = "not_started"
	ReasonExpired                 = "expired"
	ReasonAlreadyUsed             = "already_used"
	ReasonWeekdayNotAllowed       = "weekday_not_allowed"
	ReasonZoneMismatch            = "zone_mismatch"
	ReasonApplicationTypeMismatch = "application_type_mismatch"
	ReasonItemNotEligible         = "item_not_eligible"
)

// VoucherRejectedError 优惠券被拒绝，Reason 为上述原因之一
type VoucherRejectedError struct {
	Code   string
	Reason string
}

// Error 实现 error 接口
func (e *VoucherRejectedError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("voucher rejected: %s", e.Reason)
	}
	return fmt.Sprintf("voucher %q rejected: %s", e.Code, e.Reason)
}
