package tracing

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestInitWithoutEndpoint(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	shutdown, err := Init(context.Background(), "", "flight-search-web", logger)
	require.NoError(t, err)
	require.NotNil(t, shutdown)
	shutdown()

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestInitWithEndpoint(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	// The exporter connects lazily, so an unreachable endpoint still initialises
	shutdown, err := Init(context.Background(), "127.0.0.1:4318", "flight-search-web", logger)
	require.NoError(t, err)
	shutdown()
}
