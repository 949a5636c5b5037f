package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/flight-search-web/internal/models"
)

// ClientIDKey is the slot holding the client identifier
const ClientIDKey = "userId"

// SlotStore is the persistent key-value storage the identifier lives in.
// Get reports found=false for an absent key.
type SlotStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
}

// ClientRegistry records newly minted client identifiers server-side
type ClientRegistry interface {
	RecordClient(ctx context.Context, identity models.ClientIdentity) error
}

// ClientDescriber fills device and network details for a minted identifier
type ClientDescriber func(clientID string) models.ClientIdentity

// IdentityService guarantees a durable per-browser identifier exists
type IdentityService struct {
	store    SlotStore
	registry ClientRegistry
	describe ClientDescriber
	logger   *logrus.Logger
	newID    func() string
	now      func() time.Time
}

// IdentityOption configures an IdentityService
type IdentityOption func(*IdentityService)

// WithClientRegistry reports minted identifiers to the registry
func WithClientRegistry(registry ClientRegistry, describe ClientDescriber) IdentityOption {
	return func(s *IdentityService) {
		s.registry = registry
		s.describe = describe
	}
}

// WithIDGenerator replaces the UUID generator
func WithIDGenerator(newID func() string) IdentityOption {
	return func(s *IdentityService) {
		s.newID = newID
	}
}

// NewIdentityService creates an identity service over the given store
func NewIdentityService(store SlotStore, logger *logrus.Logger, opts ...IdentityOption) *IdentityService {
	s := &IdentityService{
		store:  store,
		logger: logger,
		newID:  uuid.NewString,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureClientID returns the stored identifier, minting and storing one
// when the slot is empty. An existing value is never overwritten.
func (s *IdentityService) EnsureClientID(ctx context.Context) (string, error) {
	existing, found, err := s.store.Get(ctx, ClientIDKey)
	if err != nil {
		return "", fmt.Errorf("failed to read client id slot: %w", err)
	}
	if found && existing != "" {
		return existing, nil
	}

	clientID := s.newID()
	if err := s.store.Set(ctx, ClientIDKey, clientID); err != nil {
		return "", fmt.Errorf("failed to store client id: %w", err)
	}

	s.logger.WithField("client_id", clientID).Info("Minted new client id")
	s.record(ctx, clientID)

	return clientID, nil
}

func (s *IdentityService) record(ctx context.Context, clientID string) {
	if s.registry == nil {
		return
	}

	identity := models.ClientIdentity{ClientID: clientID}
	if s.describe != nil {
		identity = s.describe(clientID)
		identity.ClientID = clientID
	}
	now := s.now()
	identity.FirstSeenAt = now
	identity.LastSeenAt = now

	if err := s.registry.RecordClient(ctx, identity); err != nil {
		s.logger.WithError(err).WithField("client_id", clientID).Warn("Failed to record client id")
	}
}
