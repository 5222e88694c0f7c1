package priceengine

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/quickdeals/price-intel/common/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testEngine(t *testing.T) *Engine {
	t.Helper()
	static, err := config.LoadStatic("")
	require.NoError(t, err)
	return &Engine{
		cfg: Config{
			MaxPriceChangePercent: 15.0,
			DiscountProbability:   0.15,
			SurgeProbability:      0.05,
		},
		static:  static,
		metrics: NewMetrics(),
		rng:     rand.New(rand.NewSource(1)),
	}
}

func TestCalculatePriceChangeNeverBelowFloor(t *testing.T) {
	e := testEngine(t)
	for i := 0; i < 200; i++ {
		update := e.calculatePriceChange(decimal.NewFromFloat(6.00), "fresh fruits")
		assert.True(t, update.NewPrice.GreaterThanOrEqual(minPrice),
			"price fell below floor: %s", update.NewPrice)
	}
}

func TestCalculatePriceChangeDiscountBoundedPercent(t *testing.T) {
	e := testEngine(t)
	e.cfg.DiscountProbability = 1.0
	e.cfg.SurgeProbability = 0
	update := e.calculatePriceChange(decimal.NewFromFloat(100), "snacks")
	require.NotNil(t, update.DiscountPercentage)
	pctFloat, _ := update.DiscountPercentage.Float64()
	assert.GreaterOrEqual(t, pctFloat, 5.0)
	assert.LessOrEqual(t, pctFloat, 30.0)
	assert.True(t, update.NewPrice.LessThanOrEqual(decimal.NewFromFloat(100)))
}

func TestCalculatePriceChangeSurgeMultiplierRange(t *testing.T) {
	e := testEngine(t)
	e.cfg.DiscountProbability = 0
	e.cfg.SurgeProbability = 1.0
	update := e.calculatePriceChange(decimal.NewFromFloat(50), "staples")
	assert.True(t, update.IsSurge)
	assert.Nil(t, update.OriginalPrice)

	base := decimal.NewFromFloat(50)
	final, _, _, surged := e.calculateDiscountSurge(base)
	require.True(t, surged)
	ratio, _ := final.Div(base).Float64()
	assert.GreaterOrEqual(t, ratio, 1.2)
	assert.LessOrEqual(t, ratio, 1.8)
}

func TestCategoryVolatilityMatchesKnownCategory(t *testing.T) {
	static, err := config.LoadStatic("")
	require.NoError(t, err)
	assert.Equal(t, 0.8, static.Volatility("Fresh Fruits Basket"))
	assert.Equal(t, 0.1, static.Volatility("Basmati Staples Rice"))
	assert.Equal(t, config.DefaultVolatility, static.Volatility("electronics accessory"))
}

func TestTimeAdjustmentBands(t *testing.T) {
	e := testEngine(t)
	adj := e.timeAdjustment()
	assert.True(t, adj >= -0.02 && adj <= 0.02)
}

func TestMetricsSnapshotSuccessRate(t *testing.T) {
	m := NewMetrics()
	m.recordBatch(10)
	m.recordSuccess("increase", false, false, false)
	m.recordSuccess("increase", true, false, true)
	snap := m.Snapshot()
	assert.Equal(t, int64(10), snap.TotalUpdates)
	assert.Equal(t, int64(2), snap.SuccessfulUpdates)
	assert.InDelta(t, 20.0, snap.SuccessRate, 0.01)
	assert.Equal(t, int64(1), snap.ConflictsResolved)
	assert.Equal(t, int64(1), snap.NewDiscounts)
}

func TestUniformHandlesReversedBounds(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	v := uniform(r, 0.02, -0.02)
	assert.True(t, v >= -0.02 && v <= 0.02)
}

func TestSchedulerStartStop(t *testing.T) {
	e := testEngine(t)
	s := NewScheduler(e, zap.NewNop())
	require.NoError(t, s.Start(context.Background(), 1))
	time.Sleep(10 * time.Millisecond)
	s.Stop()
}
