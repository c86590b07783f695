package logs

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erp/config"
)

func TestNewLogger_JSONCarriesServiceFields(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Env = "test"
	cfg.Env.ServiceName = "erp"
	cfg.Env.Log.Level = "warn"

	var buf bytes.Buffer
	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "order_id", 7)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "kept", record["msg"])
	assert.Equal(t, "erp", record["service"])
	assert.Equal(t, "test", record["env"])
	assert.InDelta(t, 7, record["order_id"], 0)
}

func TestNewLogger_PrettyUsesTextHandler(t *testing.T) {
	cfg := &config.Config{}
	cfg.Env.Log.Pretty = true

	var buf bytes.Buffer
	logger, err := newLogger(&buf, cfg)
	require.NoError(t, err)

	logger.Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestParseLogLevel(t *testing.T) {
	_, err := parseLogLevel("verbose")
	require.Error(t, err)

	level, err := parseLogLevel(" WARNING ")
	require.NoError(t, err)
	assert.Equal(t, "WARN", level.String())
}
