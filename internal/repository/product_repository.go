package repository

import (
    "context"
    "database/sql"
    "errors"
)

// ErrProductNotFound is returned when a product lookup by ID matches
// no row.
var ErrProductNotFound = errors.New("product not found")

// ProductRepo provides CRUD operations for the catalog. Products are
// never deleted; deactivating one hides it from the sell screens while
// keeping historical order lines valid.
type ProductRepo struct {
    db *sql.DB
}

// NewProductRepo returns a new ProductRepo bound to the given database.
func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{db: db} }

// ProductRecord mirrors the schema of the products table. It is used
// by the repository when constructing or scanning rows.
type ProductRecord struct {
    ID         uint64  `json:"id"`
    Name       string  `json:"name"`
    Category   string  `json:"category"`
    PriceCents uint32  `json:"price_cents"`
    Active     bool    `json:"active"`
    SKU        *string `json:"sku,omitempty"`
    ImageURL   *string `json:"image_url,omitempty"`
}

// ListActive returns all active products, optionally filtered by
// category. Results are ordered by category then name for a stable
// catalog display.
func (r *ProductRepo) ListActive(ctx context.Context, category string) ([]ProductRecord, error) {
    q := `SELECT id, name, category, price_cents, active, sku, image_url
          FROM products WHERE active = 1`
    args := []interface{}{}
    if category != "" {
        q += ` AND category = ?`
        args = append(args, category)
    }
    q += ` ORDER BY category, name`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]ProductRecord, 0)
    for rows.Next() {
        var p ProductRecord
        var sku, imageURL sql.NullString
        if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.Active, &sku, &imageURL); err != nil {
            return nil, err
        }
        if sku.Valid {
            v := sku.String
            p.SKU = &v
        }
        if imageURL.Valid {
            v := imageURL.String
            p.ImageURL = &v
        }
        out = append(out, p)
    }
    if err := rows.Err(); err != nil {
        return nil, err
    }
    return out, nil
}

// GetByID returns a single product regardless of its active flag.
// Returns ErrProductNotFound when no row matches.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*ProductRecord, error) {
    const q = `SELECT id, name, category, price_cents, active, sku, image_url
               FROM products WHERE id = ?`
    var p ProductRecord
    var sku, imageURL sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.Category, &p.PriceCents, &p.Active, &sku, &imageURL)
    if err == sql.ErrNoRows {
        return nil, ErrProductNotFound
    }
    if err != nil {
        return nil, err
    }
    if sku.Valid {
        v := sku.String
        p.SKU = &v
    }
    if imageURL.Valid {
        v := imageURL.String
        p.ImageURL = &v
    }
    return &p, nil
}

// Create inserts a new product and populates the generated ID.
func (r *ProductRepo) Create(ctx context.Context, p *ProductRecord) error {
    const q = `INSERT INTO products (name, category, price_cents, active, sku, image_url)
               VALUES (?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q, p.Name, p.Category, p.PriceCents, p.Active, p.SKU, p.ImageURL)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    return nil
}

// Update overwrites all mutable columns of an existing product.
// Returns ErrProductNotFound when the ID matches no row.
func (r *ProductRepo) Update(ctx context.Context, p *ProductRecord) error {
    const q = `UPDATE products SET name = ?, category = ?, price_cents = ?, active = ?, sku = ?, image_url = ?
               WHERE id = ?`
    res, err := r.db.ExecContext(ctx, q, p.Name, p.Category, p.PriceCents, p.Active, p.SKU, p.ImageURL, p.ID)
    if err != nil {
        return err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        // RowsAffected is also zero when nothing changed, so confirm
        // the row actually exists before reporting not-found.
        if _, gerr := r.GetByID(ctx, p.ID); gerr != nil {
            return gerr
        }
    }
    return nil
}
