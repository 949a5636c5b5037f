package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/smarttransit/flight-search-web/internal/models"
	"github.com/smarttransit/flight-search-web/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type failingStore struct {
	getErr error
	setErr error
}

func (s failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, s.getErr
}

func (s failingStore) Set(context.Context, string, string) error {
	return s.setErr
}

func TestEnsureClientID_MintsUUIDWhenAbsent(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewIdentityService(store, quietLogger())

	clientID, err := service.EnsureClientID(context.Background())
	require.NoError(t, err)

	parsed, err := uuid.Parse(clientID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())

	stored, found, err := store.Get(context.Background(), ClientIDKey)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, clientID, stored)
}

func TestEnsureClientID_Idempotent(t *testing.T) {
	store := storage.NewMemoryStore()
	service := NewIdentityService(store, quietLogger())

	first, err := service.EnsureClientID(context.Background())
	require.NoError(t, err)
	second, err := service.EnsureClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)

	// A new service over the same store behaves like a page reload
	reloaded, err := NewIdentityService(store, quietLogger()).EnsureClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, reloaded)
}

func TestEnsureClientID_DoesNotOverwriteExisting(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), ClientIDKey, "existing-id"))

	service := NewIdentityService(store, quietLogger(), WithIDGenerator(func() string {
		t.Fatal("generator must not be called when an id exists")
		return ""
	}))

	clientID, err := service.EnsureClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "existing-id", clientID)
}

func TestEnsureClientID_RecordsMintedIDOnly(t *testing.T) {
	store := storage.NewMemoryStore()
	registry := &ClientRegistryMock{}
	registry.On("RecordClient", mock.Anything, mock.MatchedBy(func(identity models.ClientIdentity) bool {
		return identity.ClientID == "minted" && identity.DeviceType == "desktop" && !identity.FirstSeenAt.IsZero()
	})).Return(nil).Once()

	service := NewIdentityService(store, quietLogger(),
		WithIDGenerator(func() string { return "minted" }),
		WithClientRegistry(registry, func(clientID string) models.ClientIdentity {
			return models.ClientIdentity{DeviceType: "desktop"}
		}),
	)

	_, err := service.EnsureClientID(context.Background())
	require.NoError(t, err)
	_, err = service.EnsureClientID(context.Background())
	require.NoError(t, err)

	registry.AssertExpectations(t)
}

func TestEnsureClientID_RegistryFailureIsNotFatal(t *testing.T) {
	registry := &ClientRegistryMock{}
	registry.On("RecordClient", mock.Anything, mock.Anything).Return(errors.New("db down"))

	service := NewIdentityService(storage.NewMemoryStore(), quietLogger(),
		WithIDGenerator(func() string { return "minted" }),
		WithClientRegistry(registry, nil),
	)

	clientID, err := service.EnsureClientID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "minted", clientID)
}

func TestEnsureClientID_StoreErrors(t *testing.T) {
	_, err := NewIdentityService(failingStore{getErr: errors.New("read failed")}, quietLogger()).
		EnsureClientID(context.Background())
	assert.ErrorContains(t, err, "read failed")

	_, err = NewIdentityService(failingStore{setErr: errors.New("quota exceeded")}, quietLogger()).
		EnsureClientID(context.Background())
	assert.ErrorContains(t, err, "quota exceeded")
}
