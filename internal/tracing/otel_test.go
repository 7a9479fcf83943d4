package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nextlevelbuilder/goalkeeper/internal/config"
)

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), config.TelemetryConfig{}, "test")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestSetup_UnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), config.TelemetryConfig{Enabled: true, Protocol: "udp"}, "test")
	require.ErrorContains(t, err, "unknown telemetry protocol")
}

func TestNewExporter(t *testing.T) {
	for _, proto := range []string{"", "grpc", "http"} {
		t.Run("protocol="+proto, func(t *testing.T) {
			exp, err := newExporter(context.Background(), config.TelemetryConfig{
				Protocol: proto,
				Endpoint: "localhost:4317",
				Insecure: true,
			})
			require.NoError(t, err)
			require.NoError(t, exp.Shutdown(context.Background()))
		})
	}
}
