package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

func (s *Store) GetProfile(ctx context.Context, userID uuid.UUID) (*finance.Profile, error) {
	var p finance.Profile
	err := s.pool.QueryRow(ctx, `
		SELECT id, full_name, avatar_url, updated_at
		FROM profiles WHERE id = $1`, userID,
	).Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// UpsertProfile creates the user's profile row on first write.
func (s *Store) UpsertProfile(ctx context.Context, userID uuid.UUID, in finance.ProfileInput) (*finance.Profile, error) {
	var p finance.Profile
	err := s.pool.QueryRow(ctx, `
		INSERT INTO profiles (id, full_name, avatar_url, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (id) DO UPDATE
		SET full_name = EXCLUDED.full_name, avatar_url = EXCLUDED.avatar_url, updated_at = now()
		RETURNING id, full_name, avatar_url, updated_at`,
		userID, in.FullName, in.AvatarURL,
	).Scan(&p.ID, &p.FullName, &p.AvatarURL, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return &p, nil
}
