package xlog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   LevelDebug,
		" INFO ":  LevelInfo,
		"warn":    LevelWarn,
		"Warning": LevelWarn,
		"error":   LevelError,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	got, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrUnknownLevel)
	assert.Equal(t, LevelInfo, got)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "ERROR", LevelError.String())
	assert.Equal(t, "INFO+2", Level(2).String())
}

func TestLevel_Text(t *testing.T) {
	var cfg struct {
		Level Level `json:"level"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"level":"warn"}`), &cfg))
	assert.Equal(t, LevelWarn, cfg.Level)

	out, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.JSONEq(t, `{"level":"WARN"}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"level":"loud"}`), &cfg))
}
