package telemetry

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// DBConfig configures database instrumentation
type DBConfig struct {
	// Tracing registers otelgorm so every statement becomes a span
	Tracing bool
	// SlowQueryThreshold logs statements slower than this; zero disables it
	SlowQueryThreshold time.Duration
}

// DBInstrumentation records statement latency and pool usage for one *gorm.DB
type DBInstrumentation struct {
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	pool     metric.Registration
	cfg      DBConfig
	logger   *zap.Logger
}

// InstrumentDB attaches tracing, latency metrics, slow query logging and
// connection pool gauges to db
func InstrumentDB(db *gorm.DB, meter metric.Meter, cfg DBConfig, logger *zap.Logger) (*DBInstrumentation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Tracing {
		if err := db.Use(otelgorm.NewPlugin(
			otelgorm.WithDBName("postgres"),
			otelgorm.WithoutQueryVariables(),
		)); err != nil {
			return nil, err
		}
	}

	duration, err := meter.Float64Histogram("db.query.duration",
		metric.WithDescription("Duration of database statements"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500))
	if err != nil {
		return nil, err
	}
	errCounter, err := meter.Int64Counter("db.query.errors",
		metric.WithDescription("Database statements that returned an error"))
	if err != nil {
		return nil, err
	}

	inst := &DBInstrumentation{duration: duration, errors: errCounter, cfg: cfg, logger: logger}
	if err := inst.registerCallbacks(db); err != nil {
		return nil, err
	}
	if err := inst.registerPoolGauges(db, meter); err != nil {
		return nil, err
	}

	logger.Info("Database instrumentation enabled",
		zap.Bool("tracing", cfg.Tracing),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThreshold))
	return inst, nil
}

// Close unregisters the pool gauge callback
func (i *DBInstrumentation) Close() error {
	if i.pool == nil {
		return nil
	}
	return i.pool.Unregister()
}

func (i *DBInstrumentation) registerCallbacks(db *gorm.DB) error {
	cb := db.Callback()
	before := func(db *gorm.DB) { db.InstanceSet(queryStartKey, time.Now()) }
	after := func(op string) func(*gorm.DB) {
		return func(db *gorm.DB) { i.observe(db, op) }
	}

	hooks := []struct {
		op       string
		register func(name string, fn func(*gorm.DB)) error
		done     func(name string, fn func(*gorm.DB)) error
	}{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
	}
	for _, h := range hooks {
		if err := h.register("telemetry:before_"+h.op, before); err != nil {
			return err
		}
		if err := h.done("telemetry:after_"+h.op, after(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func (i *DBInstrumentation) observe(db *gorm.DB, op string) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return
	}
	start, ok := v.(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}

	attrs := metric.WithAttributes(
		attribute.String("db.operation", op),
		attribute.String("db.table", db.Statement.Table),
	)
	i.duration.Record(ctx, float64(elapsed.Microseconds())/1000, attrs)

	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		i.errors.Add(ctx, 1, attrs)
	}

	if i.cfg.SlowQueryThreshold > 0 && elapsed > i.cfg.SlowQueryThreshold {
		i.logger.Warn("Slow query detected",
			zap.String("operation", op),
			zap.String("table", db.Statement.Table),
			zap.Duration("duration", elapsed),
			zap.String("sql", truncateSQL(db.Statement.SQL.String(), 500)))
	}
}

func (i *DBInstrumentation) registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	open, err := meter.Int64ObservableGauge("db.pool.open_connections",
		metric.WithDescription("Open connections, in use and idle"))
	if err != nil {
		return err
	}
	inUse, err := meter.Int64ObservableGauge("db.pool.in_use",
		metric.WithDescription("Connections currently in use"))
	if err != nil {
		return err
	}
	waits, err := meter.Int64ObservableCounter("db.pool.wait_count",
		metric.WithDescription("Total number of waits for a connection"))
	if err != nil {
		return err
	}

	i.pool, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(open, int64(stats.OpenConnections))
		o.ObserveInt64(inUse, int64(stats.InUse))
		o.ObserveInt64(waits, stats.WaitCount)
		return nil
	}, open, inUse, waits)
	return err
}

func truncateSQL(sql string, limit int) string {
	sql = strings.TrimSpace(sql)
	if len(sql) <= limit {
		return sql
	}
	return sql[:limit] + "..."
}
