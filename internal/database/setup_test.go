package database

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tesseract-hub/sales-analytics-service/internal/changefeed"
)

func TestTriggerStatements(t *testing.T) {
	stmts := triggerStatements("sales")
	require.Len(t, stmts, 2)
	assert.Equal(t, "DROP TRIGGER IF EXISTS sales_change_notify ON sales", stmts[0])
	assert.Contains(t, stmts[1], "AFTER INSERT OR UPDATE OR DELETE ON sales")
	assert.Contains(t, stmts[1], notifyFunction+"()")
}

func TestNotifyFunctionMatchesFeedPayload(t *testing.T) {
	sql := notifyFunctionSQL()

	assert.Contains(t, sql, "pg_notify('"+changefeed.Channel+"'")
	for _, key := range []string{"'collection'", "'operation'", "'id'", "'occurredAt'"} {
		assert.Contains(t, sql, key)
	}
}

func TestIndexStatementsAreIdempotent(t *testing.T) {
	for _, stmt := range indexStatements {
		assert.True(t, strings.HasPrefix(stmt, "CREATE INDEX IF NOT EXISTS"), stmt)
	}
}

func TestNewManager_Defaults(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	m := NewManager(nil, Config{}, logger)
	assert.Equal(t, 1, m.config.MaxRetries)
	assert.False(t, m.ChangeFeedReady())

	status := m.Status()
	assert.Equal(t, false, status["initialized"])
	assert.NotContains(t, status, "last_error")

	cfg := DefaultConfig()
	assert.True(t, cfg.ChangeFeedEnabled)
	assert.Equal(t, 3, cfg.MaxRetries)
}
