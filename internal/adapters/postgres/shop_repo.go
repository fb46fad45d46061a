package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/questline/internal/core/domain"
)

// ShopRepo persists the reward catalog.
type ShopRepo struct {
	db *DB
}

// NewShopRepo creates a new ShopRepo.
func NewShopRepo(db *DB) *ShopRepo {
	return &ShopRepo{db: db}
}

// List returns catalog items ordered by price. With activeOnly the
// listing is restricted to purchasable items.
func (r *ShopRepo) List(ctx context.Context, activeOnly bool) ([]domain.ShopItem, error) {
	query := `
		SELECT id, name, description, price, category, image_url, active
		FROM shop_items
	`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY price, name`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, domain.StorageError(err)
	}
	defer rows.Close()

	var items []domain.ShopItem
	for rows.Next() {
		var it domain.ShopItem
		if err := rows.Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.ImageURL, &it.Active); err != nil {
			return nil, domain.StorageError(err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.StorageError(err)
	}
	return items, nil
}

// Get returns one item, or nil when it does not exist.
func (r *ShopRepo) Get(ctx context.Context, id string) (*domain.ShopItem, error) {
	var it domain.ShopItem
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, name, description, price, category, image_url, active
		FROM shop_items WHERE id = $1
	`, id).Scan(&it.ID, &it.Name, &it.Description, &it.Price, &it.Category, &it.ImageURL, &it.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.StorageError(err)
	}
	return &it, nil
}

// Create inserts an item and returns the generated id.
func (r *ShopRepo) Create(ctx context.Context, item *domain.ShopItem) (string, error) {
	var id string
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO shop_items (name, description, price, category, image_url, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, item.Name, item.Description, item.Price, item.Category, item.ImageURL, item.Active).Scan(&id)
	if err != nil {
		return "", domain.StorageError(err)
	}
	return id, nil
}

// Update replaces all mutable fields of an item.
func (r *ShopRepo) Update(ctx context.Context, item *domain.ShopItem) error {
	tag, err := r.db.Pool.Exec(ctx, `
		UPDATE shop_items
		SET name = $2, description = $3, price = $4, category = $5,
		    image_url = $6, active = $7
		WHERE id = $1
	`, item.ID, item.Name, item.Description, item.Price, item.Category, item.ImageURL, item.Active)
	if err != nil {
		return domain.StorageError(err)
	}
	if tag.RowsAffected() == 0 {
		return errors.New("shop item not found")
	}
	return nil
}

// Delete removes an item.
func (r *ShopRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM shop_items WHERE id = $1`, id)
	if err != nil {
		return domain.StorageError(err)
	}
	return nil
}
