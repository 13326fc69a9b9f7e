package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// queryLogger bridges GORM's logger.Interface onto slog. SQL statements
// surface at Debug, so a journal running at the default INFO level stays
// quiet while `--log-level DEBUG` shows every query with its row count
// and duration.
type queryLogger struct{}

// LogMode is a no-op; slog's level decides what gets through.
func (l queryLogger) LogMode(logger.LogLevel) logger.Interface { return l }

func (l queryLogger) Info(_ context.Context, msg string, args ...any) {
	slog.Info(fmt.Sprintf(msg, args...))
}

func (l queryLogger) Warn(_ context.Context, msg string, args ...any) {
	slog.Warn(fmt.Sprintf(msg, args...))
}

func (l queryLogger) Error(_ context.Context, msg string, args ...any) {
	slog.Error(fmt.Sprintf(msg, args...))
}

// sqlLogLimit caps how much of a statement lands in a log line; bulk
// embedding upserts can run to kilobytes of placeholders.
const sqlLogLimit = 200

// abridgeSQL keeps the head and tail of an oversized statement with an
// ellipsis in between, so both the verb and the trailing clause stay
// visible.
func abridgeSQL(sql string) string {
	if len(sql) <= sqlLogLimit {
		return sql
	}
	half := (sqlLogLimit - 3) / 2
	return sql[:half] + "..." + sql[len(sql)-half:]
}

// Trace runs after every statement. ErrRecordNotFound is the ordinary
// empty result of First and logs like a success; real errors log at Error
// level. The Debug-enabled check comes before fc() so the SQL string is
// never rendered when nobody will see it.
func (l queryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		sql, rows := fc()
		slog.Error("query failed",
			"sql", abridgeSQL(sql),
			"rows", rows,
			"duration", elapsed,
			"error", err,
		)
		return
	}

	if !slog.Default().Enabled(ctx, slog.LevelDebug) {
		return
	}

	sql, rows := fc()
	slog.Debug("query",
		"sql", abridgeSQL(sql),
		"rows", rows,
		"duration", elapsed,
	)
}
