package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentLoggersCarryFields(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_LEVEL", "debug")
	InitWithWriter(&buf)
	buf.Reset()

	ForCrawler("Depop").Info().Str("run_id", "abc").Msg("crawl started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Depop", entry["merchant"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "crawl started", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestForCacheTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_LEVEL", "debug")
	InitWithWriter(&buf)
	buf.Reset()

	ForCache().Debug().Str("key", "blocked:shop.test").Msg("Cache entry removed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, "blocked:shop.test", entry["key"])
	assert.Equal(t, "debug", entry["level"])
}

func TestLogErrorIncludesComponent(t *testing.T) {
	var buf bytes.Buffer
	t.Setenv("LOG_LEVEL", "info")
	InitWithWriter(&buf)
	buf.Reset()

	LogError("publisher", errors.New("boom"), "publish %d items", 3)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "publisher", entry["component"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "publish 3 items", entry["message"])
}

func TestNopDiscards(t *testing.T) {
	l := Nop().WithFields(Fields{"a": 1})
	assert.NotPanics(t, func() {
		l.Error().Msg("ignored")
	})
}
