package observability_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"

	"runesdex-intents/pkg/observability"
)

func TestConfigureLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	observability.ConfigureLogger("warn", &buf)

	log.Info().Msg("hidden")
	log.Warn().Str("status", "failed").Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "failed")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	observability.ConfigureLogger("nonsense", &buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
