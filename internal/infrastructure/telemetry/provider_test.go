package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/supply-ledger/internal/infrastructure/telemetry"
	"github.com/jhoicas/supply-ledger/pkg/config"
)

func TestSetup_NoopSinEndpoint(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), config.OTelConfig{Enabled: true}, "supply-ledger", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_NoopDeshabilitado(t *testing.T) {
	shutdown, err := telemetry.Setup(context.Background(), config.OTelConfig{Enabled: false, Endpoint: "http://localhost:4318"}, "supply-ledger", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestSetup_CreaProveedorConEndpoint(t *testing.T) {
	// Dirección no enrutable: no se exporta nada.
	shutdown, err := telemetry.Setup(context.Background(), config.OTelConfig{Enabled: true, Endpoint: "http://192.0.2.1:4318"}, "supply-ledger", "test")
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
