// Package db wraps the GORM/postgres connection pool, generalized from
// services/order_service/src/database/connection.go's Connect/HealthCheck/
// GetStats/createIndexes pattern to the price-intel schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/quickdeals/price-intel/common/config"
	"github.com/quickdeals/price-intel/common/models"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB wraps *gorm.DB together with the instrumentation hook the monitoring
// service (H) installs via SetQueryHook.
type DB struct {
	*gorm.DB
	log     *zap.Logger
	onQuery func(sqlText string, dur time.Duration, rows int64, err error)
}

// Connect opens the pool and tunes it per this service's "bounded connection
// pool" requirement: pool size, overflow, 1h recycle. PoolAcquireTimeout
// (30s) bounds only the startup ping; later connection acquisitions wait as
// long as the caller's context allows.
func Connect(cfg *config.Config, log *zap.Logger) (*DB, error) {
	gormLog := gormlogger.New(
		zapWriter{log},
		gormlogger.Config{
			SlowThreshold:             time.Duration(cfg.SlowQueryThresholdMS) * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	gdb, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: gormLog,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("acquire sql.DB handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.DBPoolSize + cfg.DBMaxOverflow)
	sqlDB.SetMaxIdleConns(cfg.DBPoolSize)
	sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), config.PoolAcquireTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	log.Info("database connected",
		zap.String("host", cfg.DBHost),
		zap.Int("pool_size", cfg.DBPoolSize),
		zap.Int("max_overflow", cfg.DBMaxOverflow),
	)

	return &DB{DB: gdb, log: log}, nil
}

// SetQueryHook installs the callback the DatabaseMonitor (H) uses to record
// every statement's latency into its ring buffer.
func (d *DB) SetQueryHook(fn func(sqlText string, dur time.Duration, rows int64, err error)) {
	d.onQuery = fn
}

// Instrumented runs fn (typically a raw SQL call via d.Raw/d.Exec) and
// reports its duration through the query hook, mirroring the Python
// monitoring.py's around-query timing.
func (d *DB) Instrumented(sqlText string, fn func() (int64, error)) error {
	start := time.Now()
	rows, err := fn()
	dur := time.Since(start)
	if d.onQuery != nil {
		d.onQuery(sqlText, dur, rows, err)
	}
	return err
}

// AutoMigrate creates/updates the schema for every model.
func (d *DB) AutoMigrate() error {
	return d.DB.AutoMigrate(
		&models.Platform{},
		&models.ProductCategory{},
		&models.Brand{},
		&models.Product{},
		&models.CurrentPrice{},
		&models.PriceHistory{},
		&models.Discount{},
		&models.PromotionalCampaign{},
		&models.CampaignProduct{},
	)
}

// CreateIndexes adds the composite/partial indexes GORM tags alone can't
// express, following a createIndexes()-style helper.
func (d *DB) CreateIndexes() error {
	statements := []string{
		`CREATE INDEX IF NOT EXISTS idx_current_prices_available ON current_prices (product_id, platform_id) WHERE is_available = true`,
		`CREATE INDEX IF NOT EXISTS idx_price_history_recorded_at ON price_history (recorded_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_products_category_active ON products (category_id) WHERE is_active = true`,
	}
	for _, stmt := range statements {
		if err := d.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// HealthCheck pings the underlying connection, used by the /health endpoint.
func (d *DB) HealthCheck(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Stats reports pool occupancy for the monitoring endpoints.
func (d *DB) Stats() sql.DBStats {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return sql.DBStats{}
	}
	return sqlDB.Stats()
}

// Close releases the underlying pool.
func (d *DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// zapWriter adapts *zap.Logger to gorm's logger.Writer interface.
type zapWriter struct{ log *zap.Logger }

func (w zapWriter) Printf(format string, args ...interface{}) {
	w.log.Sugar().Debugf(format, args...)
}
