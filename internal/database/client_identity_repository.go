package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/smarttransit/flight-search-web/internal/models"
)

// ErrClientNotFound is returned when no identity exists for a client id
var ErrClientNotFound = errors.New("client identity not found")

// ClientIdentityRepository handles database operations for client_identities
type ClientIdentityRepository struct {
	db DB
}

// NewClientIdentityRepository creates a new ClientIdentityRepository
func NewClientIdentityRepository(db DB) *ClientIdentityRepository {
	return &ClientIdentityRepository{db: db}
}

// RecordClient inserts a minted identity. A repeated id only bumps last_seen_at.
func (r *ClientIdentityRepository) RecordClient(ctx context.Context, identity models.ClientIdentity) error {
	query := `
		INSERT INTO client_identities (
			client_id, device_type, os, browser, platform, is_bot, ip_hash,
			first_seen_at, last_seen_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (client_id) DO UPDATE SET last_seen_at = EXCLUDED.last_seen_at
	`

	_, err := r.db.ExecContext(ctx, query,
		identity.ClientID, identity.DeviceType, identity.OS, identity.Browser,
		identity.Platform, identity.IsBot, identity.IPHash,
		identity.FirstSeenAt, identity.LastSeenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record client identity: %w", err)
	}
	return nil
}

// GetByClientID retrieves a recorded identity
func (r *ClientIdentityRepository) GetByClientID(ctx context.Context, clientID string) (*models.ClientIdentity, error) {
	query := `
		SELECT client_id, device_type, os, browser, platform, is_bot, ip_hash,
			   first_seen_at, last_seen_at
		FROM client_identities
		WHERE client_id = $1
	`

	identity := &models.ClientIdentity{}
	err := r.db.QueryRowContext(ctx, query, clientID).Scan(
		&identity.ClientID, &identity.DeviceType, &identity.OS, &identity.Browser,
		&identity.Platform, &identity.IsBot, &identity.IPHash,
		&identity.FirstSeenAt, &identity.LastSeenAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrClientNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client identity: %w", err)
	}
	return identity, nil
}

// DeleteInactiveBefore removes identities not seen since cutoff
func (r *ClientIdentityRepository) DeleteInactiveBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM client_identities WHERE last_seen_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inactive client identities: %w", err)
	}
	return result.RowsAffected()
}

// Count returns the number of recorded identities
func (r *ClientIdentityRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM client_identities`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count client identities: %w", err)
	}
	return count, nil
}
