package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

const productColumns = "id, owner_id, name, sku, category, quantity, price, description, image, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

// ProductRepository stores products in PostgreSQL. Images are kept as JSONB.
type ProductRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewProductRepository(database *PostgresDB) *ProductRepository {
	return &ProductRepository{
		db:  database.Conn,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func scanProduct(row rowScanner) (*models.Product, error) {
	var (
		p     models.Product
		image []byte
	)
	err := row.Scan(&p.ID, &p.Owner, &p.Name, &p.SKU, &p.Category, &p.Quantity, &p.Price,
		&p.Description, &image, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if p.Image, err = decodeImage(image); err != nil {
		return nil, err
	}
	return &p, nil
}

// encodeImage returns the JSONB parameter for image, or NULL when there is none.
func encodeImage(image *models.ImageDescriptor) (any, error) {
	if image == nil {
		return nil, nil
	}
	raw, err := json.Marshal(image)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func decodeImage(raw []byte) (*models.ImageDescriptor, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var image models.ImageDescriptor
	if err := json.Unmarshal(raw, &image); err != nil {
		return nil, fmt.Errorf("failed to decode product image: %w", err)
	}
	return &image, nil
}

// Create inserts a new product
func (r *ProductRepository) Create(ctx context.Context, product *models.Product) error {
	image, err := encodeImage(product.Image)
	if err != nil {
		return fmt.Errorf("failed to encode product image: %w", err)
	}

	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		RETURNING ` + productColumns

	created, err := scanProduct(r.db.QueryRowContext(ctx, query,
		uuid.NewString(), product.Owner, product.Name, product.SKU, product.Category,
		product.Quantity, product.Price, product.Description, image, r.now()))
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	*product = *created
	return nil
}

// ListByOwner returns the owner's products, newest first
func (r *ProductRepository) ListByOwner(ctx context.Context, owner string) ([]models.Product, error) {
	query := "SELECT " + productColumns + " FROM products WHERE owner_id = $1 ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := []models.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// GetByID returns a single product
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	query := "SELECT " + productColumns + " FROM products WHERE id = $1"

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return p, nil
}

// Update replaces the mutable fields. A nil image keeps the stored one.
func (r *ProductRepository) Update(ctx context.Context, id string, update models.ProductUpdate) (*models.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	image, err := encodeImage(update.Image)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product image: %w", err)
	}

	query := `
		UPDATE products
		SET name = $2, category = $3, quantity = $4, price = $5, description = $6,
			image = COALESCE($7::jsonb, image), updated_at = $8
		WHERE id = $1
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id, update.Name, update.Category,
		update.Quantity, update.Price, update.Description, image, r.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	return p, nil
}

// Delete removes a product
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// AdjustQuantity adds delta to the stock level, refusing to go below zero
func (r *ProductRepository) AdjustQuantity(ctx context.Context, id string, delta int) (*models.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrAdjustRejected
	}

	query := `
		UPDATE products
		SET quantity = quantity + $2, updated_at = $3
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING ` + productColumns

	p, err := scanProduct(r.db.QueryRowContext(ctx, query, id, delta, r.now()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdjustRejected
		}
		return nil, fmt.Errorf("failed to adjust product quantity: %w", err)
	}

	return p, nil
}

func (r *ProductRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
