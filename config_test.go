package main

import (
	"testing"

	env "github.com/Netflix/go-env"
	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/require"
)

func TestConfigFromEnvironment(t *testing.T) {
	t.Setenv("APP_PORT", "8080")
	t.Setenv("LIVEKIT_URL", "ws://localhost:7880")
	t.Setenv("LIVEKIT_API_KEY", "key")
	t.Setenv("LIVEKIT_API_SECRET", "secret")
	t.Setenv("WEBHOOK_URLS", "http://a/hook, http://b/hook,")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	require.NoError(t, err)

	require.Equal(t, "8080", config.Port)
	require.Equal(t, "reports", config.ReportsDir)
	require.Equal(t, 256, config.EventBufferSize)
	require.Equal(t, log.ERROR, config.Verbosity())
	require.Equal(t, []string{"http://a/hook", "http://b/hook"}, config.Webhooks())
	require.False(t, config.UploadsToS3())
}

func TestConfigRequiresLiveKit(t *testing.T) {
	t.Setenv("APP_PORT", "8080")

	var config Config
	_, err := env.UnmarshalFromEnviron(&config)
	require.Error(t, err)
}

func TestVerbosity(t *testing.T) {
	require.Equal(t, log.DEBUG, Config{LogLevel: "DEBUG"}.Verbosity())
	require.Equal(t, log.WARN, Config{LogLevel: "warn"}.Verbosity())
	require.Empty(t, Config{}.Webhooks())
}
