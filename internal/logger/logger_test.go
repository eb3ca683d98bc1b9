package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestSetupJSONWritesComponentField(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(LogConfig{Level: "debug", Format: "json", Output: &buf}))
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	log := WithComponent("store")
	log.Info().Str("id", "INV001").Msg("invoice added")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "store", entry["component"])
	require.Equal(t, "INV001", entry["id"])
	require.Equal(t, "invoice added", entry["message"])
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	require.Error(t, Setup(LogConfig{Level: "loud", Format: "json"}))
}
