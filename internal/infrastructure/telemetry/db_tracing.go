package telemetry

import (
	"time"

	"github.com/aquapet/backend/internal/infrastructure/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const slowQueryStartKey = "telemetry:query_start"

// RegisterDBTracing installs otelgorm on db and flags spans of queries slower
// than cfg.DBSlowQueryThresh. Query variables are left out unless full SQL
// logging is enabled.
func RegisterDBTracing(db *gorm.DB, cfg config.TelemetryConfig, dbSystem string, logger *zap.Logger) error {
	if !cfg.Enabled || !cfg.DBTraceEnabled {
		logger.Debug("Database tracing disabled")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(dbSystem)}
	if !cfg.DBLogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	if cfg.DBSlowQueryThresh > 0 {
		if err := registerSlowQueryCallbacks(db, cfg.DBSlowQueryThresh); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("full_sql", cfg.DBLogFullSQL),
		zap.Duration("slow_query_threshold", cfg.DBSlowQueryThresh))
	return nil
}

func registerSlowQueryCallbacks(db *gorm.DB, threshold time.Duration) error {
	start := func(tx *gorm.DB) {
		tx.InstanceSet(slowQueryStartKey, time.Now())
	}
	finish := func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(slowQueryStartKey)
		if !ok {
			return
		}
		elapsed := time.Since(v.(time.Time))
		if elapsed < threshold {
			return
		}
		span := trace.SpanFromContext(tx.Statement.Context)
		if !span.IsRecording() {
			return
		}
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
	}

	// finish must run while the otelgorm span is still open
	cb := db.Callback()
	registrations := []error{
		cb.Create().Before("gorm:create").Register("telemetry:slow_start_create", start),
		cb.Create().After("gorm:create").Before("otel:after_create").Register("telemetry:slow_end_create", finish),
		cb.Query().Before("gorm:query").Register("telemetry:slow_start_query", start),
		cb.Query().After("gorm:query").Before("otel:after_query").Register("telemetry:slow_end_query", finish),
		cb.Update().Before("gorm:update").Register("telemetry:slow_start_update", start),
		cb.Update().After("gorm:update").Before("otel:after_update").Register("telemetry:slow_end_update", finish),
		cb.Delete().Before("gorm:delete").Register("telemetry:slow_start_delete", start),
		cb.Delete().After("gorm:delete").Before("otel:after_delete").Register("telemetry:slow_end_delete", finish),
	}
	for _, err := range registrations {
		if err != nil {
			return err
		}
	}
	return nil
}
