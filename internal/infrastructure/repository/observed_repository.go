package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/domain/observed"
	"github.com/mindaccess/opendoor-backend/internal/domain/vector"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

// observedRepository implements accessdecision.ObservedRepository. Observed
// rows are never deleted here; expiry is classified at read time by the
// engine.
type observedRepository struct {
	db queryable
}

// NewObservedRepository creates the observed-pool repository.
func NewObservedRepository(db *sql.DB) accessdecision.ObservedRepository {
	return &observedRepository{db: db}
}

// MatchEmbedding returns the single nearest observed candidate within the
// distance threshold, carrying the full record.
func (r *observedRepository) MatchEmbedding(ctx context.Context, embedding vector.Embedding, threshold float64) (*accessdecision.ObservedMatch, error) {
	query := `
		SELECT
			id, status_id, first_seen_at, last_seen_at, access_count,
			consecutive_denied_accesses, expires_at,
			COALESCE(last_accessed_zones::text[], '{}'),
			alert_triggered, potential_match_user_id, face_image_url,
			embedding <-> $1::vector AS distance
		FROM observed_users
		WHERE embedding IS NOT NULL
		  AND embedding <-> $1::vector <= $2
		ORDER BY embedding <-> $1::vector
		LIMIT 1
	`

	var o observed.Observed
	var distance float64
	var expiresAt sql.NullTime
	var potentialMatch sql.NullString
	var faceImageURL sql.NullString
	var zoneIDs []string

	err := r.db.QueryRowContext(ctx, query, embedding.String(), threshold).Scan(
		&o.ID, &o.StatusID, &o.FirstSeenAt, &o.LastSeenAt, &o.AccessCount,
		&o.ConsecutiveDeniedAccesses, &expiresAt,
		pq.Array(&zoneIDs),
		&o.AlertTriggered, &potentialMatch, &faceImageURL,
		&distance,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, access.ErrNoMatch
		}
		return nil, fmt.Errorf("failed to match observed embedding: %w", err)
	}

	if expiresAt.Valid {
		o.ExpiresAt = &expiresAt.Time
	}
	if potentialMatch.Valid {
		id, err := uuid.Parse(potentialMatch.String)
		if err != nil {
			return nil, fmt.Errorf("invalid potential match id %q: %w", potentialMatch.String, err)
		}
		o.PotentialMatchUserID = &id
	}
	if faceImageURL.Valid {
		o.FaceImageURL = &faceImageURL.String
	}

	o.LastAccessedZones = observed.NewZoneSet()
	for _, z := range zoneIDs {
		zoneID, err := uuid.Parse(z)
		if err != nil {
			return nil, fmt.Errorf("invalid zone id %q for observed user %s: %w", z, o.ID, err)
		}
		o.LastAccessedZones.Add(zoneID)
	}

	return &accessdecision.ObservedMatch{Observed: &o, Distance: distance}, nil
}

// Create inserts a new observed record.
func (r *observedRepository) Create(ctx context.Context, o *observed.Observed) error {
	query := `
		INSERT INTO observed_users (
			id, status_id, embedding, first_seen_at, last_seen_at,
			access_count, consecutive_denied_accesses, expires_at,
			last_accessed_zones, alert_triggered
		) VALUES (
			$1, $2, $3::vector, $4, $5,
			$6, $7, $8,
			$9::uuid[], $10
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		o.ID, o.StatusID, o.Embedding.String(), o.FirstSeenAt, o.LastSeenAt,
		o.AccessCount, o.ConsecutiveDeniedAccesses, o.ExpiresAt,
		pq.Array(zoneStrings(o.LastAccessedZones)), o.AlertTriggered,
	)
	if err != nil {
		return fmt.Errorf("failed to create observed user: %w", err)
	}

	return nil
}

// Update persists the mutable cycle fields. The embedding and first-seen
// timestamp are immutable after creation.
func (r *observedRepository) Update(ctx context.Context, o *observed.Observed) error {
	query := `
		UPDATE observed_users
		SET access_count = $2,
		    last_seen_at = $3,
		    last_accessed_zones = $4::uuid[],
		    consecutive_denied_accesses = $5,
		    status_id = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		o.ID, o.AccessCount, o.LastSeenAt,
		pq.Array(zoneStrings(o.LastAccessedZones)),
		o.ConsecutiveDeniedAccesses, o.StatusID,
	)
	if err != nil {
		return fmt.Errorf("failed to update observed user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("observed user %s not found", o.ID)
	}

	return nil
}

func zoneStrings(zones observed.ZoneSet) []string {
	ids := zones.IDs()
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
