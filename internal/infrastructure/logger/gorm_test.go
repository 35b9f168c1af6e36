package logger

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), recorded
}

func query(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 1 }
}

func TestGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Warn,
		WithSlowThreshold(time.Second),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, time.Second, gl.slowThreshold)
	assert.False(t, gl.ignoreNotFound)
	var _ gormlogger.Interface = gl
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)
	changed, ok := gl.LogMode(gormlogger.Error).(*GormLogger)
	require.True(t, ok)

	assert.Equal(t, gormlogger.Info, gl.level)
	assert.Equal(t, gormlogger.Error, changed.level)
}

func TestGormLogger_Messages(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Warn)
	ctx := context.Background()

	gl.Info(ctx, "migrated %s", "kv_entries")
	gl.Warn(ctx, "slow %d", 1)
	gl.Error(ctx, "failed %d", 2)

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "slow 1", entries[0].Message)
	assert.Equal(t, "failed 2", entries[1].Message)
}

func TestGormLogger_Trace(t *testing.T) {
	ctx := context.Background()

	t.Run("error", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), query("INSERT INTO kv_entries"), errors.New("disk full"))
		assert.Equal(t, 1, recorded.FilterMessage("sql failed").Len())
	})

	t.Run("record not found is ignored", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), query("SELECT * FROM kv_entries"), gormlogger.ErrRecordNotFound)
		assert.Zero(t, recorded.Len())
	})

	t.Run("slow query", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Millisecond))
		gl.Trace(ctx, time.Now().Add(-time.Second), query("SELECT * FROM kv_entries"), nil)
		require.Equal(t, 1, recorded.Len())
		assert.True(t, strings.HasPrefix(recorded.All()[0].Message, "slow sql"))
	})

	t.Run("normal query only at info", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Warn)
		gl.Trace(ctx, time.Now(), query("SELECT 1"), nil)
		assert.Zero(t, recorded.Len())

		gl, recorded = newObservedGormLogger(gormlogger.Info)
		gl.Trace(ctx, time.Now(), query("SELECT 1"), nil)
		assert.Equal(t, 1, recorded.FilterMessage("sql").Len())
	})

	t.Run("silent", func(t *testing.T) {
		gl, recorded := newObservedGormLogger(gormlogger.Silent)
		gl.Trace(ctx, time.Now(), query("SELECT 1"), errors.New("x"))
		assert.Zero(t, recorded.Len())
	})
}

func TestGormLogger_TraceRedactsSeals(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Info)
	uri := "data:image/png;base64," + strings.Repeat("A", 4096)
	sql := "INSERT INTO kv_entries VALUES ('sealImage','" + uri + "')"

	gl.Trace(context.Background(), time.Now(), query(sql), nil)

	logged := recorded.All()[0].ContextMap()["sql"].(string)
	assert.NotContains(t, logged, "AAAA")
	assert.Contains(t, logged, "data:image/png;base64,<4118 bytes>")
}

func TestRedactSQL_Truncates(t *testing.T) {
	sql := "SELECT '" + strings.Repeat("x", 2000) + "'"

	logged := redactSQL(sql)

	assert.Len(t, logged, maxLoggedSQL+len("...(truncated)"))
	assert.True(t, strings.HasSuffix(logged, "...(truncated)"))
	assert.Equal(t, "SELECT 1", redactSQL("SELECT 1"))
}

func TestGormLogger_TraceWithRequestID(t *testing.T) {
	gl, recorded := newObservedGormLogger(gormlogger.Info)
	ctx, _ := WithRequestID(context.Background(), zap.NewNop(), "req-9")

	gl.Trace(ctx, time.Now(), query("SELECT 1"), nil)

	assert.Equal(t, "req-9", recorded.All()[0].ContextMap()["request_id"])
}

func TestMapGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"silent":  gormlogger.Silent,
		"error":   gormlogger.Error,
		"warn":    gormlogger.Warn,
		"info":    gormlogger.Warn,
		"DEBUG":   gormlogger.Info,
		"unknown": gormlogger.Warn,
		"":        gormlogger.Warn,
	}
	for in, want := range tests {
		assert.Equal(t, want, MapGormLogLevel(in), "level %q", in)
	}
}
