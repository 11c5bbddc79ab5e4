// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var otelEnvVars = []string{
	"OTEL_SERVICE_NAME",
	"OTEL_SERVICE_VERSION",
	"OTEL_EXPORTER_OTLP_PROTOCOL",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_INSECURE",
	"OTEL_TRACES_EXPORTER",
	"OTEL_TRACES_SAMPLE_RATIO",
	"OTEL_METRICS_EXPORTER",
	"OTEL_LOGS_EXPORTER",
}

func clearOTelEnv(t *testing.T) {
	t.Helper()
	for _, env := range otelEnvVars {
		t.Setenv(env, "")
	}
}

func disabledOTelConfig() OTelConfig {
	return OTelConfig{
		ServiceName:       "bot-test",
		TracesExporter:    OTelExporterNone,
		TracesSampleRatio: 1.0,
		MetricsExporter:   OTelExporterNone,
		LogsExporter:      OTelExporterNone,
	}
}

func TestOTelConfigFromEnv_Defaults(t *testing.T) {
	clearOTelEnv(t)

	cfg := OTelConfigFromEnv()

	assert.Equal(t, "lfx-v2-meeting-bot-service", cfg.ServiceName)
	assert.Empty(t, cfg.ServiceVersion)
	assert.Equal(t, OTelProtocolGRPC, cfg.Protocol)
	assert.Empty(t, cfg.Endpoint)
	assert.False(t, cfg.Insecure)
	assert.Equal(t, OTelExporterNone, cfg.TracesExporter)
	assert.Equal(t, 1.0, cfg.TracesSampleRatio)
	assert.Equal(t, OTelExporterNone, cfg.MetricsExporter)
	assert.Equal(t, OTelExporterNone, cfg.LogsExporter)
}

func TestOTelConfigFromEnv_CustomValues(t *testing.T) {
	t.Setenv("OTEL_SERVICE_NAME", "bot-worker")
	t.Setenv("OTEL_SERVICE_VERSION", "2.4.0")
	t.Setenv("OTEL_EXPORTER_OTLP_PROTOCOL", "http")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4318")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "true")
	t.Setenv("OTEL_TRACES_EXPORTER", "otlp")
	t.Setenv("OTEL_TRACES_SAMPLE_RATIO", "0.25")
	t.Setenv("OTEL_METRICS_EXPORTER", "otlp")
	t.Setenv("OTEL_LOGS_EXPORTER", "otlp")

	cfg := OTelConfigFromEnv()

	assert.Equal(t, OTelConfig{
		ServiceName:       "bot-worker",
		ServiceVersion:    "2.4.0",
		Protocol:          OTelProtocolHTTP,
		Endpoint:          "collector:4318",
		Insecure:          true,
		TracesExporter:    OTelExporterOTLP,
		TracesSampleRatio: 0.25,
		MetricsExporter:   OTelExporterOTLP,
		LogsExporter:      OTelExporterOTLP,
	}, cfg)
}

func TestOTelConfigFromEnv_TracesSampleRatio(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		expected float64
	}{
		{"zero", "0", 0},
		{"half", "0.5", 0.5},
		{"one", "1", 1},
		{"negative falls back", "-0.5", 1},
		{"above one falls back", "1.5", 1},
		{"garbage falls back", "often", 1},
		{"unset", "", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("OTEL_TRACES_SAMPLE_RATIO", tt.envValue)
			assert.Equal(t, tt.expected, OTelConfigFromEnv().TracesSampleRatio)
		})
	}
}

func TestOTelConfigFromEnv_InsecureFlag(t *testing.T) {
	tests := map[string]bool{
		"true":  true,
		"false": false,
		"":      false,
		"TRUE":  false,
		"1":     false,
	}

	for value, expected := range tests {
		t.Run("value="+value, func(t *testing.T) {
			t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", value)
			assert.Equal(t, expected, OTelConfigFromEnv().Insecure)
		})
	}
}

func TestSetupOTelSDKWithConfig_AllDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := SetupOTelSDKWithConfig(ctx, disabledOTelConfig())
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	assert.NoError(t, shutdown(ctx))
	assert.NoError(t, shutdown(ctx), "shutdown must tolerate repeated calls")
}

func TestSetupOTelSDK_FromEnv(t *testing.T) {
	clearOTelEnv(t)
	ctx := context.Background()

	shutdown, err := SetupOTelSDK(ctx)
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))
}

func TestNewResource(t *testing.T) {
	for _, name := range []string{"lfx-v2-meeting-bot-service", "bot-worker-2", "会议机器人"} {
		t.Run(name, func(t *testing.T) {
			res, err := newResource(OTelConfig{ServiceName: name, ServiceVersion: "1.0.0"})
			require.NoError(t, err)

			value, ok := res.Set().Value("service.name")
			require.True(t, ok)
			assert.Equal(t, name, value.AsString())
		})
	}
}

func TestNewPropagator(t *testing.T) {
	fields := newPropagator().Fields()

	assert.Contains(t, fields, "traceparent")
	assert.Contains(t, fields, "tracestate")
	assert.Contains(t, fields, "baggage")
	assert.Contains(t, fields, "uber-trace-id")
}
