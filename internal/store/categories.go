package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/MikeSquared-Agency/brisk/internal/finance"
)

const categoryColumns = `id, user_id, name, icon, created_at`

func scanCategory(row interface{ Scan(...any) error }) (finance.Category, error) {
	var c finance.Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Icon, &c.CreatedAt)
	return c, err
}

func (s *Store) ListCategories(ctx context.Context, userID uuid.UUID) ([]finance.Category, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+categoryColumns+`
		FROM categories WHERE user_id = $1
		ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []finance.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) CreateCategory(ctx context.Context, userID uuid.UUID, in finance.CategoryInput) (*finance.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `
		INSERT INTO categories (id, user_id, name, icon, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING `+categoryColumns,
		uuid.New(), userID, in.Name, in.Icon,
	))
	if err != nil {
		return nil, fmt.Errorf("insert category: %w", err)
	}
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, userID, id uuid.UUID, in finance.CategoryInput) (*finance.Category, error) {
	c, err := scanCategory(s.pool.QueryRow(ctx, `
		UPDATE categories SET name = $1, icon = $2
		WHERE id = $3 AND user_id = $4
		RETURNING `+categoryColumns,
		in.Name, in.Icon, id, userID,
	))
	if err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
