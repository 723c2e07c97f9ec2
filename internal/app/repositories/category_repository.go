package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/volunnet/volunnet/internal/app/models"
	"github.com/volunnet/volunnet/internal/db"
	"github.com/volunnet/volunnet/internal/pkg/dberrors"
)

// CategoryRepository handles event category operations
type CategoryRepository struct {
	db *db.PostgresDB
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(database *db.PostgresDB) *CategoryRepository {
	return &CategoryRepository{db: database}
}

// ListCategories returns all categories ordered by name
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]*models.Category, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("id", "name", "slug", "created_at").
		From("categories").
		OrderBy("name").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error executing query: %w", err)
	}
	defer rows.Close()

	categories := make([]*models.Category, 0)
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning row: %w", err)
		}
		categories = append(categories, &c)
	}
	return categories, rows.Err()
}

// GetCategoryByID returns a category, nil when absent
func (r *CategoryRepository) GetCategoryByID(ctx context.Context, id int64) (*models.Category, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Select("id", "name", "slug", "created_at").
		From("categories").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("error building SQL: %w", err)
	}

	var c models.Category
	if err := r.db.Pool.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.Name, &c.Slug, &c.CreatedAt); err != nil {
		if dberrors.IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("error retrieving category: %w", err)
	}
	return &c, nil
}

// EnsureCategory inserts a category unless its slug exists and reports whether a row was added
func (r *CategoryRepository) EnsureCategory(ctx context.Context, name, slug string) (bool, error) {
	ctx, cancel := r.db.WithTimeout(ctx)
	defer cancel()

	sql, args, err := psql.Insert("categories").
		Columns("name", "slug").
		Values(name, slug).
		Suffix("ON CONFLICT (slug) DO NOTHING").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("error building SQL: %w", err)
	}

	cmdTag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return false, fmt.Errorf("error inserting category %s: %w", slug, err)
	}
	return cmdTag.RowsAffected() == 1, nil
}
