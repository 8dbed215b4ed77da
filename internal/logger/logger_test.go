package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
)

func TestWithComponentTagsOutput(t *testing.T) {
	var buf bytes.Buffer
	orig := log.Logger
	log.Logger = zerolog.New(&buf)
	defer func() { log.Logger = orig }()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// zerolog level methods take a pointer receiver, so callers must bind the
	// returned logger to a variable before emitting.
	l := WithComponent("sweep")
	l.Info().Msg("klart")

	assert.Contains(t, buf.String(), `"component":"sweep"`)
	assert.Contains(t, buf.String(), "klart")
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	t.Setenv("LOG_OUTPUT", "")

	cfg := FromEnv()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "console", cfg.Format)
	assert.Equal(t, "stderr", cfg.Output)
}
