package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/mindaccess/opendoor-backend/internal/domain/access"
	"github.com/mindaccess/opendoor-backend/internal/service/accessdecision"
)

// accessLogRepository implements accessdecision.AccessLogRepository.
// The table is append-only: this repository exposes no update or delete.
type accessLogRepository struct {
	db queryable
}

// NewAccessLogRepository creates the audit-log repository.
func NewAccessLogRepository(db *sql.DB) accessdecision.AccessLogRepository {
	return &accessLogRepository{db: db}
}

// Insert appends one audit entry.
func (r *accessLogRepository) Insert(ctx context.Context, entry *access.LogEntry) error {
	query := `
		INSERT INTO access_logs (
			id, user_id, observed_user_id, camera_id, result, user_type,
			vector_attempted, match_status, decision, reason,
			confidence_score, requested_zone_id, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, NOW()
		)
	`

	_, err := r.db.ExecContext(ctx, query,
		uuid.New(), entry.UserID, entry.ObservedUserID, entry.CameraID,
		entry.Result, entry.UserType.String(),
		pq.Array(entry.VectorAttempted.Float64s()),
		entry.MatchStatus.String(), entry.Decision.String(), entry.Reason,
		entry.ConfidenceScore, entry.RequestedZoneID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert access log: %w", err)
	}

	return nil
}
