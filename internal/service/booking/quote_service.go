package booking

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/glamping-backend/internal/common/cache"
	"github.com/dumeirei/glamping-backend/internal/common/config"
	"github.com/dumeirei/glamping-backend/internal/common/errors"
	"github.com/dumeirei/glamping-backend/internal/common/logger"
	"github.com/dumeirei/glamping-backend/internal/common/metrics"
	"github.com/dumeirei/glamping-backend/internal/models"
	"github.com/dumeirei/glamping-backend/internal/repository"
	"github.com/dumeirei/glamping-backend/internal/service/marketing"
)

const quoteCacheName = "quote"

// QuoteRequest 报价请求
type QuoteRequest struct {
	UnitID      int64
	CheckIn     time.Time
	CheckOut    time.Time
	Quantities  map[int64]int
	VoucherCode string
}

// Quote 报价结果，只读，不占用库存也不核销优惠
type Quote struct {
	UnitID       int64                         `json:"unit_id"`
	UnitName     string                        `json:"unit_name"`
	CheckIn      time.Time                     `json:"check_in"`
	CheckOut     time.Time                     `json:"check_out"`
	Nights       int                           `json:"nights"`
	Availability *AvailabilityResult           `json:"availability"`
	Nightly      []NightBreakdown              `json:"nightly"`
	Charges      []ItemCharge                  `json:"charges"`
	Subtotal     decimal.Decimal               `json:"subtotal"`
	Discount     decimal.Decimal               `json:"discount"`
	TaxAmount    decimal.Decimal               `json:"tax_amount"`
	Total        decimal.Decimal               `json:"total"`
	Voucher      *marketing.ValidationResult   `json:"voucher,omitempty"`
	Automatic    []*marketing.ValidationResult `json:"automatic_vouchers"`
	Cached       bool                          `json:"cached"`
}

// QuoteService 报价服务；逐晚价格缓存在 Redis，库存与优惠每次实时计算
type QuoteService struct {
	unitRepo     *repository.UnitRepository
	availability *AvailabilityChecker
	resolver     *PricingResolver
	validator    *marketing.VoucherValidator
	taxCalc      *TaxCalculator
	cache        *cache.Cache
	metrics      *metrics.Metrics
	cfg          config.BookingConfig
}

// NewQuoteService 创建报价服务
func NewQuoteService(
	unitRepo *repository.UnitRepository,
	bookingRepo *repository.BookingRepository,
	resolver *PricingResolver,
	validator *marketing.VoucherValidator,
	taxCalc *TaxCalculator,
	c *cache.Cache,
	m *metrics.Metrics,
	cfg config.BookingConfig,
) *QuoteService {
	return &QuoteService{
		unitRepo:     unitRepo,
		availability: NewAvailabilityChecker(bookingRepo),
		resolver:     resolver,
		validator:    validator,
		taxCalc:      taxCalc,
		cache:        c,
		metrics:      m,
		cfg:          cfg,
	}
}

// Quote 计算一段住宿的报价
func (s *QuoteService) Quote(ctx context.Context, req *QuoteRequest) (*Quote, error) {
	checkIn, checkOut := models.DateOnly(req.CheckIn), models.DateOnly(req.CheckOut)
	if !checkOut.After(checkIn) {
		return nil, errors.ErrDateRangeInvalid
	}
	if s.cfg.MaxNights > 0 && models.NightsBetween(checkIn, checkOut) > s.cfg.MaxNights {
		return nil, errors.ErrDateRangeInvalid.WithMessage("入住晚数超过上限")
	}

	unit, err := s.unitRepo.GetByID(ctx, req.UnitID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrUnitNotFound
		}
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if unit.Status != models.StatusActive {
		return nil, errors.ErrUnitDisabled
	}

	params, err := s.unitRepo.ListParameters(ctx, unit.ID)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	if err := validateQuantities(params, req.Quantities); err != nil {
		return nil, err
	}

	pricing, cached, err := s.pricing(ctx, unit.ID, checkIn, checkOut, req.Quantities)
	if err != nil {
		return nil, err
	}
	availability, err := s.availability.CheckAvailability(ctx, unit, checkIn, checkOut, nil)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	charges := pricing.Charges(req.Quantities)
	quote := &Quote{
		UnitID:       unit.ID,
		UnitName:     unit.Name,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Nights:       pricing.Nights(),
		Availability: availability,
		Nightly:      pricing.Nightly,
		Charges:      charges,
		Subtotal:     SumCharges(charges),
		Discount:     decimal.Zero,
		Cached:       cached,
	}

	vctx := marketing.VoucherContext{
		ZoneID:          unit.ZoneID,
		ItemID:          &unit.ID,
		CheckInDate:     &checkIn,
		TotalAmount:     quote.Subtotal,
		ApplicationType: models.ApplicationAccommodation,
	}
	tent := &models.BookingTent{UnitID: unit.ID, CheckIn: checkIn, CheckOut: checkOut, Subtotal: quote.Subtotal}
	if req.VoucherCode != "" {
		result, err := s.validator.Validate(ctx, req.VoucherCode, vctx)
		if err != nil {
			return nil, errors.ErrDatabaseError.WithError(err)
		}
		quote.Voucher = result
		if result.Valid {
			quote.Discount = result.DiscountAmount
			tent.VoucherSnapshot = result.Snapshot()
		}
	}
	if quote.Automatic, err = s.validator.FindAutomatic(ctx, vctx); err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}

	tax, err := s.taxCalc.CalculateLines(ctx, []*models.BookingTent{tent}, nil, nil)
	if err != nil {
		return nil, errors.ErrDatabaseError.WithError(err)
	}
	quote.TaxAmount = tax.TotalTax
	quote.Total = quote.Subtotal.Sub(quote.Discount).Add(quote.TaxAmount)
	return quote, nil
}

// InvalidateUnit 价格配置变化后清除单元的报价缓存
func (s *QuoteService) InvalidateUnit(ctx context.Context, unitID int64) error {
	removed, err := s.cache.DeletePrefix(ctx, cache.BuildKey(cache.KeyPrefixQuote, strconv.FormatInt(unitID, 10), ""))
	if err != nil {
		return errors.ErrCacheError.WithError(err)
	}
	logger.Info("quote cache invalidated", logger.UnitID(unitID), zap.Int("removed", removed))
	return nil
}

// pricing 读取逐晚价格，缓存未命中时计算并回写
func (s *QuoteService) pricing(ctx context.Context, unitID int64, checkIn, checkOut time.Time, quantities map[int64]int) (*PricingResult, bool, error) {
	key := quoteKey(unitID, checkIn, checkOut, quantities)

	var result PricingResult
	err := s.cache.Get(ctx, key, &result)
	if err == nil {
		s.metrics.RecordCacheHit(quoteCacheName)
		return &result, true, nil
	}
	if !stderrors.Is(err, cache.ErrMiss) {
		logger.Ctx(ctx).Warn("quote cache read failed", zap.String("key", key), zap.Error(err))
	}
	s.metrics.RecordCacheMiss(quoteCacheName)

	resolved, err := s.resolver.Resolve(ctx, unitID, checkIn, checkOut, quantities)
	if err != nil {
		var missing *MissingPricingError
		if stderrors.As(err, &missing) {
			return nil, false, err
		}
		return nil, false, errors.ErrDatabaseError.WithError(err)
	}
	if err := s.cache.Set(ctx, key, resolved, s.cfg.QuoteCacheDuration()); err != nil {
		logger.Ctx(ctx).Warn("quote cache write failed", zap.String("key", key), zap.Error(err))
	}
	return resolved, false, nil
}

// quoteKey quote:<unit>:<check_in>:<check_out>:<param>x<qty>,...
func quoteKey(unitID int64, checkIn, checkOut time.Time, quantities map[int64]int) string {
	ids := make([]int64, 0, len(quantities))
	for id, qty := range quantities {
		if qty > 0 {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%dx%d", id, quantities[id]))
	}
	return cache.BuildKey(cache.KeyPrefixQuote,
		strconv.FormatInt(unitID, 10),
		checkIn.Format(dateLayout),
		checkOut.Format(dateLayout),
		strings.Join(parts, ","),
	)
}
