// Package priceengine implements the Price Update Engine:
// periodic concurrent batched price mutation with row-level conflict
// resolution and append-only history journaling. Struct shape and metrics
// grounded on DynamicPricingEngine.go; the mutation algorithm itself is
// taken unchanged from original_source/app/core/price_updater.py.
package priceengine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/quickdeals/price-intel/common/config"
	"github.com/quickdeals/price-intel/common/db"
	"github.com/quickdeals/price-intel/common/models"
	"github.com/quickdeals/price-intel/common/workerpool"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	minPrice        = decimal.NewFromFloat(5.00)
	stockChoices    = []models.StockStatus{models.StockInStock, models.StockLowStock, models.StockOutOfStock}
	errPriceNotFound = errors.New("price engine: current price row not found")
)

// Config holds the engine's runtime tunables.
type Config struct {
	UpdateIntervalSeconds int
	BatchSize             int
	MaxWorkers            int
	MaxPriceChangePercent float64
	DiscountProbability   float64
	SurgeProbability      float64
}

func ConfigFromEnv(c *config.Config) Config {
	return Config{
		UpdateIntervalSeconds: c.PriceUpdateIntervalSeconds,
		BatchSize:             c.PriceBatchSize,
		MaxWorkers:            c.PriceWorkerPoolSize,
		MaxPriceChangePercent: c.PriceMaxChangePercent,
		DiscountProbability:   c.PriceDiscountProbability,
		SurgeProbability:      c.PriceSurgeProbability,
	}
}

// Engine runs update cycles against the database. It holds no package-level
// state; one Engine is constructed in main and passed by reference.
type Engine struct {
	cfg      Config
	static   *config.StaticConfig
	database *db.DB
	log      *zap.Logger
	metrics  *Metrics

	rng *rand.Rand
}

func New(cfg Config, static *config.StaticConfig, database *db.DB, log *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		static:   static,
		database: database,
		log:      log,
		metrics:  NewMetrics(),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (e *Engine) Metrics() Snapshot { return e.metrics.Snapshot() }

// priceUpdate is the computed outcome of one mutation, equivalent to
// price_updater.py's calculate_price_change return dict.
type priceUpdate struct {
	NewPrice           decimal.Decimal
	OriginalPrice      *decimal.Decimal
	DiscountPercentage *decimal.Decimal
	IsSurge            bool
	ChangeType         models.ChangeType
	ChangeAmount       decimal.Decimal
	ChangePercentage   decimal.Decimal
}

// calculatePriceChange mirrors calculate_price_change/_get_category_volatility/
// _get_time_adjustment/_calculate_discount_surge verbatim.
func (e *Engine) calculatePriceChange(oldPrice decimal.Decimal, productName string) priceUpdate {
	volatility := e.static.Volatility(productName)
	maxChange := e.cfg.MaxPriceChangePercent * volatility / 100

	changePercent := uniform(e.rng, -maxChange, maxChange)
	changePercent += e.timeAdjustment()

	newPrice := oldPrice.Mul(decimal.NewFromFloat(1 + changePercent)).Round(2)
	if newPrice.LessThan(minPrice) {
		newPrice = minPrice
	}

	final, original, discountPct, isSurge := e.calculateDiscountSurge(newPrice)
	if final.LessThan(minPrice) {
		final = minPrice
		if discountPct != nil {
			pct := original.Sub(final).Div(*original).Mul(decimal.NewFromInt(100)).Round(2)
			discountPct = &pct
		}
	}

	var changeType models.ChangeType
	var changeAmount decimal.Decimal
	switch {
	case final.GreaterThan(oldPrice):
		changeType = models.ChangeIncrease
		changeAmount = final.Sub(oldPrice)
	case final.LessThan(oldPrice):
		changeType = models.ChangeDecrease
		changeAmount = oldPrice.Sub(final)
	default:
		changeType = models.ChangeNoChange
		changeAmount = decimal.Zero
	}

	return priceUpdate{
		NewPrice:           final,
		OriginalPrice:      original,
		DiscountPercentage: discountPct,
		IsSurge:            isSurge,
		ChangeType:         changeType,
		ChangeAmount:       changeAmount,
		ChangePercentage:   decimal.NewFromFloat(absFloat(changePercent * 100)),
	}
}

func (e *Engine) timeAdjustment() float64 {
	hour := time.Now().Hour()
	ta := config.DefaultTimeAdjustments
	if e.static != nil {
		ta = e.static.TimeAdjustments
	}
	switch {
	case hour >= 7 && hour <= 9:
		return uniform(e.rng, 0, ta.MorningRush)
	case hour >= 18 && hour <= 20:
		return uniform(e.rng, 0, ta.EveningRush)
	case hour >= 23 || hour <= 6:
		return uniform(e.rng, ta.LateNight, 0)
	default:
		return 0
	}
}

func (e *Engine) calculateDiscountSurge(basePrice decimal.Decimal) (final decimal.Decimal, original *decimal.Decimal, discountPct *decimal.Decimal, isSurge bool) {
	if e.rng.Float64() < e.cfg.DiscountProbability {
		pct := e.rng.Intn(26) + 5 // 5..30 inclusive
		discount := decimal.NewFromInt(int64(pct))
		f := basePrice.Mul(decimal.NewFromInt(1).Sub(discount.Div(decimal.NewFromInt(100)))).Round(2)
		return f, &basePrice, &discount, false
	}
	if e.rng.Float64() < e.cfg.SurgeProbability {
		mult := uniform(e.rng, 1.2, 1.8)
		f := basePrice.Mul(decimal.NewFromFloat(mult)).Round(2)
		return f, nil, nil, true
	}
	return basePrice, nil, nil, false
}

// updateSinglePrice runs the transactional row-lock-and-mutate protocol of
// price_updater.py's update_single_price, with exponential backoff retry
// on conflict.
func (e *Engine) updateSinglePrice(ctx context.Context, productID, platformID uint, productName string) error {
	const maxRetries = 3
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := e.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var fresh models.CurrentPrice
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("product_id = ? AND platform_id = ?", productID, platformID).
				First(&fresh).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return errPriceNotFound
				}
				return err
			}

			update := e.calculatePriceChange(fresh.Price, productName)

			fresh.Price = update.NewPrice
			fresh.OriginalPrice = update.OriginalPrice
			fresh.DiscountPercentage = update.DiscountPercentage
			fresh.LastUpdated = time.Now().UTC()

			if e.rng.Float64() < 0.05 {
				fresh.IsAvailable = !fresh.IsAvailable
				fresh.StockStatus = stockChoices[e.rng.Intn(len(stockChoices))]
			}

			if err := tx.Save(&fresh).Error; err != nil {
				return err
			}

			history := models.PriceHistory{
				ProductID:          productID,
				PlatformID:         platformID,
				NewPrice:           update.NewPrice,
				OriginalPrice:      update.OriginalPrice,
				DiscountPercentage: update.DiscountPercentage,
				ChangeType:         update.ChangeType,
				ChangeAmount:       update.ChangeAmount,
				ChangePercentage:   update.ChangePercentage,
				StockStatus:        fresh.StockStatus,
				RecordedAt:         time.Now().UTC(),
				Source:             "price_update_engine",
			}
			if err := tx.Create(&history).Error; err != nil {
				return err
			}

			e.metrics.recordSuccess(update.ChangeType, update.DiscountPercentage != nil, update.IsSurge, attempt > 0)
			return nil
		})

		if err == nil {
			return nil
		}
		if errors.Is(err, errPriceNotFound) {
			e.log.Warn("price row not found", zap.Uint("product_id", productID), zap.Uint("platform_id", platformID))
			return err
		}

		lastErr = err
		if attempt < maxRetries-1 {
			e.log.Warn("price update conflict, retrying",
				zap.Uint("product_id", productID), zap.Int("attempt", attempt+1), zap.Error(err))
			time.Sleep(time.Duration(100*(attempt+1)) * time.Millisecond)
			continue
		}
	}

	e.metrics.recordFailure()
	return fmt.Errorf("update price after %d retries: %w", maxRetries, lastErr)
}

type batchRow struct {
	ProductID   uint
	PlatformID  uint
	ProductName string
}

// getUpdateBatch selects a random batch of (product, platform) pairs whose
// current price is available and whose product is active, mirroring
// get_update_batch's ORDER BY random() LIMIT query.
func (e *Engine) getUpdateBatch(ctx context.Context) ([]batchRow, error) {
	var rows []batchRow
	err := e.database.WithContext(ctx).
		Table("current_prices").
		Select("current_prices.product_id, current_prices.platform_id, products.name as product_name").
		Joins("JOIN products ON products.id = current_prices.product_id").
		Where("current_prices.is_available = ? AND products.is_active = ?", true, true).
		Order("RANDOM()").
		Limit(e.cfg.BatchSize).
		Scan(&rows).Error
	return rows, err
}

// processBatch dispatches each row to the bounded worker pool, mirroring
// process_batch's ThreadPoolExecutor fan-out and per-future timeout.
func (e *Engine) processBatch(ctx context.Context, batch []batchRow) int {
	if len(batch) == 0 {
		return 0
	}
	pool := workerpool.New(ctx, e.cfg.MaxWorkers)
	for _, row := range batch {
		row := row
		pool.Submit(ctx, func(ctx context.Context) error {
			stepCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return e.updateSinglePrice(stepCtx, row.ProductID, row.PlatformID, row.ProductName)
		})
	}
	errs := pool.Wait()
	e.metrics.recordBatch(int64(len(batch)))
	return len(batch) - len(errs)
}

// RunCycle executes one full update cycle: fetch a batch, process it
// concurrently, report counts. This is the unit the scheduler invokes on
// every tick.
func (e *Engine) RunCycle(ctx context.Context) (successful, total int, err error) {
	batch, err := e.getUpdateBatch(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("get update batch: %w", err)
	}
	if len(batch) == 0 {
		e.log.Warn("no products available for update")
		return 0, 0, nil
	}
	successful = e.processBatch(ctx, batch)
	e.log.Info("update cycle completed",
		zap.Int("successful", successful), zap.Int("total", len(batch)))
	return successful, len(batch), nil
}

func uniform(r *rand.Rand, lo, hi float64) float64 {
	if lo == hi {
		return lo
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + r.Float64()*(hi-lo)
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
