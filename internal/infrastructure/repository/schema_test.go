package repository

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The repositories embed their SQL as literals, so a renamed or missing
// column only surfaces at runtime as SQLSTATE 42703. This cross-checks every
// column the queries reference against the shipped schema.

func migrationColumns(t *testing.T, table string) map[string]bool {
	t.Helper()

	path := filepath.Join("..", "..", "..", "migrations", "000001_init.up.sql")
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	re := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\);`)
	m := re.FindStringSubmatch(string(data))
	require.NotNil(t, m, "table %s not found in migration", table)

	cols := make(map[string]bool)
	for _, line := range strings.Split(m[1], "\n") {
		fields := strings.Fields(strings.TrimSpace(line))
		if len(fields) == 0 {
			continue
		}
		name := strings.ToLower(fields[0])
		if name == "primary" || name == "foreign" || name == "constraint" || name == "unique" {
			continue
		}
		cols[name] = true
	}
	return cols
}

func TestSchema_CoversRepositoryQueries(t *testing.T) {
	tests := []struct {
		table   string
		columns []string
	}{
		{
			// userRepository: MatchEmbedding, GetByID, UpdateConsecutiveDenied.
			table: "users",
			columns: []string{
				"id", "full_name", "status_id", "embedding",
				"consecutive_denied_accesses", "profile_picture_url", "updated_at",
			},
		},
		{
			// userRepository.GetByID zone join.
			table:   "user_zones",
			columns: []string{"user_id", "zone_id"},
		},
		{
			// observedRepository: MatchEmbedding, Create, Update.
			table: "observed_users",
			columns: []string{
				"id", "status_id", "embedding", "first_seen_at", "last_seen_at",
				"access_count", "consecutive_denied_accesses", "expires_at",
				"last_accessed_zones", "alert_triggered", "potential_match_user_id",
				"face_image_url",
			},
		},
		{
			// accessLogRepository.Insert.
			table: "access_logs",
			columns: []string{
				"id", "user_id", "observed_user_id", "camera_id", "result",
				"user_type", "vector_attempted", "match_status", "decision",
				"reason", "confidence_score", "requested_zone_id", "created_at",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			cols := migrationColumns(t, tt.table)
			for _, c := range tt.columns {
				assert.True(t, cols[c], "column %s.%s is referenced by a repository query but missing from the migration", tt.table, c)
			}
		})
	}
}
