package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-provider-router/internal/config"
)

func TestSetupLogger_DevAndProd(t *testing.T) {
	lg := SetupLogger(config.Config{AppEnv: "dev", OTELServiceName: "svc"})
	require.NotNil(t, lg)
	lg2 := SetupLogger(config.Config{AppEnv: "prod", OTELServiceName: "svc"})
	require.NotNil(t, lg2)
}

func TestNewLogger_EmitsServiceFields(t *testing.T) {
	var buf bytes.Buffer
	lg := newLogger(&buf, config.Config{AppEnv: "prod", OTELServiceName: "router"})
	lg.Debug("hidden")
	lg.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "hello", line["msg"])
	assert.Equal(t, "router", line["service"])
	assert.Equal(t, "prod", line["env"])
}
