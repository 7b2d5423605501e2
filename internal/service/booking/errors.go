// Package booking 提供营地预订的计价、库存、税费与总额重算
package booking

import (
	"fmt"
	"time"
)

// AvailabilityConflictError 所选日期库存不足
type AvailabilityConflictError struct {
	UnitID      int64
	CheckIn     time.Time
	CheckOut    time.Time
	BookedCount int64
	Capacity    int
}

// Error 实现 error 接口
func (e *AvailabilityConflictError) Error() string {
	return fmt.Sprintf("unit %d fully booked for %s..%s (%d/%d)",
		e.UnitID, e.CheckIn.Format(dateLayout), e.CheckOut.Format(dateLayout), e.BookedCount, e.Capacity)
}

// MissingPricingError 参数在某晚既无事件价也无基础价
type MissingPricingError struct {
	UnitID        int64
	ParameterID   int64
	ParameterName string
	Night         time.Time
}

// Error 实现 error 接口
func (e *MissingPricingError) Error() string {
	name := e.ParameterName
	if name == "" {
		name = fmt.Sprintf("#%d", e.ParameterID)
	}
	return fmt.Sprintf("no rate for parameter %s on unit %d for night %s", name, e.UnitID, e.Night.Format(dateLayout))
}

const dateLayout = "2006-01-02"
