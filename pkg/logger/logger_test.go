package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/xades-detached/pkg/logger"
)

func TestNew_JSONEnProduccion(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})
	l.Info().Str("id", "id-1").Msg("firma generada")
	l.Debug().Msg("no debe aparecer")

	out := buf.String()
	assert.Contains(t, out, `"level":"info"`)
	assert.Contains(t, out, `"id":"id-1"`)
	assert.NotContains(t, out, "no debe aparecer")
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.Config{Env: "production", Level: "debug", Out: &buf})
	c := l.Component("xades")
	c.Debug().Msg("manifiesto")
	assert.Contains(t, buf.String(), `"component":"xades"`)
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() { logger.Nop().Error().Msg("descartado") })
}
