package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	previous := log.Logger
	t.Cleanup(func() {
		zerolog.DefaultContextLogger = nil
		log.Logger = previous
	})

	t.Run("json at info by default", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := Setup(Config{Out: &buf})
		require.NoError(t, err)

		log.Debug().Msg("hidden")
		log.Info().Msg("shown")

		require.NotContains(t, buf.String(), "hidden")
		require.Contains(t, buf.String(), `"message":"shown"`)
	})

	t.Run("dev enables debug console output", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := Setup(Config{Dev: true, Out: &buf})
		require.NoError(t, err)

		log.Debug().Msg("visible")
		require.Contains(t, buf.String(), "visible")
		require.NotContains(t, buf.String(), `"message"`)
	})

	t.Run("level override", func(t *testing.T) {
		var buf bytes.Buffer
		log, err := Setup(Config{Level: "warn", Out: &buf})
		require.NoError(t, err)

		log.Info().Msg("dropped")
		require.Empty(t, buf.String())
	})

	t.Run("global logger follows level and output", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Setup(Config{Level: "error", Out: &buf})
		require.NoError(t, err)

		log.Debug().Msg("debug line")
		log.Info().Msg("info line")
		require.Empty(t, buf.String())

		log.Error().Msg("error line")
		require.Contains(t, buf.String(), "error line")
	})

	t.Run("invalid level", func(t *testing.T) {
		_, err := Setup(Config{Level: "loud"})
		require.Error(t, err)
	})

	t.Run("installs default context logger", func(t *testing.T) {
		var buf bytes.Buffer
		_, err := Setup(Config{Out: &buf})
		require.NoError(t, err)

		zerolog.Ctx(context.Background()).Info().Msg("via context")
		require.Contains(t, buf.String(), "via context")
	})
}
