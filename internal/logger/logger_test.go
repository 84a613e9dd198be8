package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup_JSON(t *testing.T) {
	var buf bytes.Buffer
	Logger{Level: "debug", Format: "json"}.setup(&buf)
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())

	log.Debug().Str("dataset", "no2_strasse_2019").Msg("Reading dataset")
	log.Trace().Msg("dropped")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "no2_strasse_2019", entry["dataset"])
	assert.Equal(t, "Reading dataset", entry["message"])
}

func TestSetup_Console(t *testing.T) {
	var buf bytes.Buffer
	Logger{Level: "bogus", Format: "console", NoColor: true}.setup(&buf)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Info().Str("layer", "dresden_grenze").Msg("Boundary written")
	assert.Contains(t, buf.String(), "Boundary written")
	assert.Contains(t, buf.String(), "layer=dresden_grenze")
}
