package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"anomalyze/internal/event"
	"anomalyze/pkg/platform/sentinel"
)

// PostgresStore reads entitlement snapshots from the relational store owned
// by the identity and billing services. This core is a read-only consumer.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// findByIDQuery joins user, subscription, and notification-settings rows in
// a single read. Missing subscription or settings rows degrade to the FREE
// tier defaults rather than failing the lookup.
const findByIDQuery = `
SELECT
	u.id,
	COALESCE(u.email, ''),
	COALESCE(u.phone, ''),
	COALESCE(s.plan, 'FREE'),
	COALESCE(u.feature_flags, '{}'::jsonb),
	COALESCE(ns.email_enabled, TRUE),
	COALESCE(ns.phone_enabled, FALSE),
	COALESCE(ns.min_severity_for_voice, 'CRITICAL')
FROM users u
LEFT JOIN subscriptions s ON s.user_id = u.id
LEFT JOIN notification_settings ns ON ns.user_id = u.id
WHERE u.id = $1`

func (s *PostgresStore) FindByID(ctx context.Context, userID string) (*UserContext, error) {
	var (
		uc           UserContext
		plan         string
		flagsJSON    []byte
		voiceSev     string
		emailEnabled bool
		phoneEnabled bool
	)

	row := s.pool.QueryRow(ctx, findByIDQuery, userID)
	err := row.Scan(&uc.UserID, &uc.Email, &uc.Phone, &plan, &flagsJSON, &emailEnabled, &phoneEnabled, &voiceSev)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("entitlement lookup %s: %w: %w", userID, sentinel.ErrUnavailable, err)
	}

	uc.Plan = ParsePlan(plan)
	uc.Settings = Settings{
		EmailEnabled:        emailEnabled,
		PhoneEnabled:        phoneEnabled,
		MinSeverityForVoice: event.ParseSeverity(voiceSev),
	}
	if len(flagsJSON) > 0 {
		if err := json.Unmarshal(flagsJSON, &uc.FeatureFlags); err != nil {
			// Flags are best-effort overrides; a corrupt blob must not hide
			// the user from the pipeline.
			uc.FeatureFlags = nil
		}
	}
	return &uc, nil
}
