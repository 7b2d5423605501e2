package booking

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
)

// NightRate 某晚某参数的价格
type NightRate struct {
	ParameterID int64           `json:"parameter_id"`
	Amount      decimal.Decimal `json:"amount"`
	PricingMode string          `json:"pricing_mode"`
	FromEvent   bool            `json:"from_event"`
}

// NightBreakdown 单晚明细
type NightBreakdown struct {
	Night     time.Time   `json:"night"`
	EventID   *int64      `json:"event_id,omitempty"`
	EventName string      `json:"event_name,omitempty"`
	Rates     []NightRate `json:"rates"`
}

// PricingResult 计价结果
// PerParameterTotal 为各晚价格之和，与数量无关；按模式乘数量由 Charges 完成
type PricingResult struct {
	UnitID            int64                     `json:"unit_id"`
	CheckIn           time.Time                 `json:"check_in"`
	CheckOut          time.Time                 `json:"check_out"`
	PerParameterTotal map[int64]decimal.Decimal `json:"per_parameter_total"`
	Nightly           []NightBreakdown          `json:"nightly"`
}

// Nights 晚数
func (p *PricingResult) Nights() int {
	return len(p.Nightly)
}

// ItemCharge 按计价模式计算后的参数费用，对应一条 BookingItemLine
type ItemCharge struct {
	ParameterID int64           `json:"parameter_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	PricingMode string          `json:"pricing_mode"`
	Nights      int             `json:"nights"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

// ChargeFor 单晚费用：per_person 乘数量，per_group 每晚计一次
func ChargeFor(mode string, amount decimal.Decimal, quantity int) decimal.Decimal {
	if quantity <= 0 {
		return decimal.Zero
	}
	if mode == models.PricingModePerPerson {
		return amount.Mul(decimal.NewFromInt(int64(quantity)))
	}
	return amount
}

// Charges 按数量计算各参数费用，按参数 ID 排序
func (p *PricingResult) Charges(quantities map[int64]int) []ItemCharge {
	charges := make([]ItemCharge, 0, len(p.PerParameterTotal))
	for _, paramID := range sortedParamIDs(quantities) {
		stay, ok := p.PerParameterTotal[paramID]
		if !ok {
			continue
		}
		qty := quantities[paramID]
		charge := ItemCharge{
			ParameterID: paramID,
			Quantity:    qty,
			UnitPrice:   stay,
			Nights:      p.Nights(),
			TotalPrice:  decimal.Zero,
		}
		for _, night := range p.Nightly {
			for _, rate := range night.Rates {
				if rate.ParameterID != paramID {
					continue
				}
				charge.TotalPrice = charge.TotalPrice.Add(ChargeFor(rate.PricingMode, rate.Amount, qty))
				switch charge.PricingMode {
				case "":
					charge.PricingMode = rate.PricingMode
				case rate.PricingMode:
				default:
					charge.PricingMode = models.PricingModeMixed
				}
			}
		}
		charges = append(charges, charge)
	}
	return charges
}

// SumCharges 费用合计
func SumCharges(charges []ItemCharge) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.TotalPrice)
	}
	return total
}

// PricingResolver 逐晚计价
type PricingResolver struct {
	pricingRepo *repository.PricingRepository
	unitRepo    *repository.UnitRepository
}

// NewPricingResolver 创建计价器
func NewPricingResolver(pricingRepo *repository.PricingRepository, unitRepo *repository.UnitRepository) *PricingResolver {
	return &PricingResolver{pricingRepo: pricingRepo, unitRepo: unitRepo}
}

// WithTx 返回绑定到事务的计价器
func (r *PricingResolver) WithTx(tx *gorm.DB) *PricingResolver {
	return &PricingResolver{
		pricingRepo: r.pricingRepo.WithTx(tx),
		unitRepo:    r.unitRepo.WithTx(tx),
	}
}

type rateKey struct {
	eventID     int64 // 0 为基础价
	parameterID int64
}

// Resolve 计算 [checkIn, checkOut) 每晚每个参数的价格
// 每晚取最近绑定且命中的事件，事件未配置的参数回退基础价
func (r *PricingResolver) Resolve(ctx context.Context, unitID int64, checkIn, checkOut time.Time, quantities map[int64]int) (*PricingResult, error) {
	checkIn, checkOut = models.DateOnly(checkIn), models.DateOnly(checkOut)

	links, err := r.pricingRepo.ListAttachedEvents(ctx, unitID)
	if err != nil {
		return nil, err
	}
	sortByAttachment(links)

	eventIDs := make([]int64, 0, len(links))
	for _, l := range links {
		eventIDs = append(eventIDs, l.EventID)
	}
	rates, err := r.pricingRepo.ListRates(ctx, unitID, eventIDs)
	if err != nil {
		return nil, err
	}
	byKey := make(map[rateKey]*models.PricingRate, len(rates))
	for _, rate := range rates {
		key := rateKey{parameterID: rate.ParameterID}
		if rate.EventID != nil {
			key.eventID = *rate.EventID
		}
		byKey[key] = rate
	}

	params := requestedParams(quantities)
	result := &PricingResult{
		UnitID:            unitID,
		CheckIn:           checkIn,
		CheckOut:          checkOut,
		PerParameterTotal: make(map[int64]decimal.Decimal, len(params)),
	}

	for night := checkIn; night.Before(checkOut); night = night.AddDate(0, 0, 1) {
		breakdown := NightBreakdown{Night: night, Rates: make([]NightRate, 0, len(params))}
		event := matchEvent(links, night)
		if event != nil {
			id := event.ID
			breakdown.EventID = &id
			breakdown.EventName = event.Name
		}

		for _, paramID := range params {
			var rate *models.PricingRate
			fromEvent := false
			if event != nil {
				rate, fromEvent = byKey[rateKey{eventID: event.ID, parameterID: paramID}]
			}
			if rate == nil {
				rate = byKey[rateKey{parameterID: paramID}]
			}
			if rate == nil {
				return nil, r.missing(ctx, unitID, paramID, night)
			}
			breakdown.Rates = append(breakdown.Rates, NightRate{
				ParameterID: paramID,
				Amount:      rate.Amount,
				PricingMode: rate.PricingMode,
				FromEvent:   fromEvent,
			})
			result.PerParameterTotal[paramID] = result.PerParameterTotal[paramID].Add(rate.Amount)
		}
		result.Nightly = append(result.Nightly, breakdown)
	}
	return result, nil
}

func (r *PricingResolver) missing(ctx context.Context, unitID, paramID int64, night time.Time) error {
	e := &MissingPricingError{UnitID: unitID, ParameterID: paramID, Night: night}
	if params, err := r.unitRepo.GetParameters(ctx, []int64{paramID}); err == nil {
		if p, ok := params[paramID]; ok {
			e.ParameterName = p.Name
		}
	}
	return e
}

// sortByAttachment 最近绑定的事件排在前面，绑定时间相同按 ID 倒序
func sortByAttachment(links []*models.UnitPricingEvent) {
	sort.SliceStable(links, func(i, j int) bool {
		if !links[i].AttachedAt.Equal(links[j].AttachedAt) {
			return links[i].AttachedAt.After(links[j].AttachedAt)
		}
		return links[i].ID > links[j].ID
	})
}

// matchEvent 返回第一个命中该晚的事件，links 需已排序
func matchEvent(links []*models.UnitPricingEvent, night time.Time) *models.PricingEvent {
	for _, l := range links {
		if l.Event != nil && l.Event.Matches(night) {
			return l.Event
		}
	}
	return nil
}

// requestedParams 数量大于 0 的参数
func requestedParams(quantities map[int64]int) []int64 {
	ids := make([]int64, 0, len(quantities))
	for _, id := range sortedParamIDs(quantities) {
		if quantities[id] > 0 {
			ids = append(ids, id)
		}
	}
	return ids
}

func sortedParamIDs(quantities map[int64]int) []int64 {
	ids := make([]int64, 0, len(quantities))
	for id := range quantities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
