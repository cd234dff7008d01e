package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/domain/user"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

// userRepository implements accessdecision.UserRepository on PostgreSQL with
// the pgvector extension. The enrolled pool lives in the users table; the
// nearest-neighbor query replaces the record store's match RPC.
type userRepository struct {
	db queryable
}

// queryable is satisfied by *sql.DB and *sql.Tx.
type queryable interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// NewUserRepository creates the enrolled-pool repository.
func NewUserRepository(db *sql.DB) accessdecision.UserRepository {
	return &userRepository{db: db}
}

// MatchEmbedding returns the single nearest enrolled candidate within the
// distance threshold (match_count = 1; ties are backend-defined).
func (r *userRepository) MatchEmbedding(ctx context.Context, embedding vector.Embedding, threshold float64) (*accessdecision.UserMatch, error) {
	query := `
		SELECT id, embedding <-> $1::vector AS distance
		FROM users
		WHERE embedding IS NOT NULL
		  AND embedding <-> $1::vector <= $2
		ORDER BY embedding <-> $1::vector
		LIMIT 1
	`

	var m accessdecision.UserMatch
	err := r.db.QueryRowContext(ctx, query, embedding.String(), threshold).
		Scan(&m.UserID, &m.Distance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, access.ErrNoMatch
		}
		return nil, fmt.Errorf("failed to match enrolled embedding: %w", err)
	}

	return &m, nil
}

// GetByID retrieves the full enrolled-user record, including the authorized
// zone set. A user with no zone rows gets an empty set, which denies zone
// access rather than failing the cycle.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
		SELECT
			u.id, u.full_name, u.status_id, u.consecutive_denied_accesses,
			u.profile_picture_url,
			COALESCE(array_agg(uz.zone_id::text) FILTER (WHERE uz.zone_id IS NOT NULL), '{}')
		FROM users u
		LEFT JOIN user_zones uz ON uz.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id
	`

	var u user.User
	var profileURL sql.NullString
	var zoneIDs []string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.FullName, &u.StatusID, &u.ConsecutiveDeniedAccesses,
		&profileURL, pq.Array(&zoneIDs),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %s not found", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if profileURL.Valid {
		u.ProfilePictureURL = &profileURL.String
	}

	u.AuthorizedZones = make([]uuid.UUID, 0, len(zoneIDs))
	for _, z := range zoneIDs {
		zoneID, err := uuid.Parse(z)
		if err != nil {
			return nil, fmt.Errorf("invalid zone id %q for user %s: %w", z, id, err)
		}
		u.AuthorizedZones = append(u.AuthorizedZones, zoneID)
	}

	return &u, nil
}

// UpdateConsecutiveDenied writes the denial-streak counter.
func (r *userRepository) UpdateConsecutiveDenied(ctx context.Context, id uuid.UUID, count int) error {
	query := `
		UPDATE users
		SET consecutive_denied_accesses = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, count)
	if err != nil {
		return fmt.Errorf("failed to update denial streak: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("user %s not found", id)
	}

	return nil
}
