package services

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/pkg/flightsapi"
	"github.com/stretchr/testify/mock"
)

type AirportDirectoryMock struct {
	mock.Mock
}

func (m *AirportDirectoryMock) ListAirports(ctx context.Context) ([]flightsapi.Airport, error) {
	args := m.Called(ctx)
	airports, _ := args.Get(0).([]flightsapi.Airport)
	return airports, args.Error(1)
}

type FlightSearcherMock struct {
	mock.Mock
}

func (m *FlightSearcherMock) SearchFlights(ctx context.Context, q flightsapi.FlightQuery) (json.RawMessage, error) {
	args := m.Called(ctx, q)
	data, _ := args.Get(0).(json.RawMessage)
	return data, args.Error(1)
}

type ClientRegistryMock struct {
	mock.Mock
}

func (m *ClientRegistryMock) RecordClient(ctx context.Context, identity models.ClientIdentity) error {
	args := m.Called(ctx, identity)
	return args.Error(0)
}

// recordingNavigator captures navigation targets
type recordingNavigator struct {
	mu      sync.Mutex
	targets []string
}

func (n *recordingNavigator) Navigate(target string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.targets = append(n.targets, target)
}

func (n *recordingNavigator) Targets() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.targets...)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
