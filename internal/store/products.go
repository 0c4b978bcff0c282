package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
)

// UpsertProduct inserts a new Product or updates the existing row sharing
// its identity — (Retailer, ProductCode) when ProductCode is set, else
// (Retailer, NormalizedURL). LastSeenAt and LastUpdatedAt are always
// refreshed to now; FirstSeenAt is preserved across updates.
func (s *Store) UpsertProduct(ctx context.Context, p *Product) (int64, error) {
	imageURLs, err := json.Marshal(p.ImageURLs)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.Internal, "marshal product image URLs")
	}

	existing, err := s.findExistingProductID(ctx, p)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	if existing == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO products (
				retailer, product_code, normalized_url, exact_url, title, brand,
				current_price_cents, original_price_cents, currency, on_sale,
				stock_state, category, image_urls, description, neckline,
				sleeve_length, first_seen_at, last_seen_at, last_updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.Retailer, nullIfEmpty(p.ProductCode), p.NormalizedURL, p.ExactURL, p.Title, p.Brand,
			p.CurrentPriceCents, p.OriginalPriceCents, p.Currency, boolToInt(p.OnSale),
			string(p.StockState), p.Category, string(imageURLs), p.Description, p.Neckline,
			p.SleeveLength, now, now, now,
		)
		if err != nil {
			return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "insert product")
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "read inserted product id")
		}
		return id, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE products SET
			exact_url = ?, title = ?, brand = ?, current_price_cents = ?,
			original_price_cents = ?, currency = ?, on_sale = ?, stock_state = ?,
			category = ?, image_urls = ?, description = ?, neckline = ?,
			sleeve_length = ?, last_seen_at = ?, last_updated_at = ?
		WHERE id = ?`,
		p.ExactURL, p.Title, p.Brand, p.CurrentPriceCents,
		p.OriginalPriceCents, p.Currency, boolToInt(p.OnSale), string(p.StockState),
		p.Category, string(imageURLs), p.Description, p.Neckline,
		p.SleeveLength, now, now, existing,
	)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "update product")
	}
	return existing, nil
}

func (s *Store) findExistingProductID(ctx context.Context, p *Product) (int64, error) {
	var id int64
	var err error
	if p.ProductCode != "" {
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM products WHERE retailer = ? AND product_code = ?`,
			p.Retailer, p.ProductCode).Scan(&id)
	} else {
		err = s.db.QueryRowContext(ctx,
			`SELECT id FROM products WHERE retailer = ? AND normalized_url = ?`,
			p.Retailer, p.NormalizedURL).Scan(&id)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.StoreUnavailable, "look up existing product")
	}
	return id, nil
}

// FindProductByExactURL looks up a product by its literal, unnormalized
// URL as seen on the listing page.
func (s *Store) FindProductByExactURL(ctx context.Context, retailer, exactURL string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, productSelectColumns+` WHERE retailer = ? AND exact_url = ? LIMIT 1`, retailer, exactURL)
	return scanProduct(row)
}

// FindProductByNormalizedURL looks up a product by its normalized URL
// (spec §4.7's 0.95-confidence signal).
func (s *Store) FindProductByNormalizedURL(ctx context.Context, retailer, normalizedURL string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, productSelectColumns+` WHERE retailer = ? AND normalized_url = ? LIMIT 1`, retailer, normalizedURL)
	return scanProduct(row)
}

// FindProductByCode looks up a product by its retailer-specific product
// code (spec §4.7's 0.93-confidence signal).
func (s *Store) FindProductByCode(ctx context.Context, retailer, code string) (*Product, error) {
	row := s.db.QueryRowContext(ctx, productSelectColumns+` WHERE retailer = ? AND product_code = ? LIMIT 1`, retailer, code)
	return scanProduct(row)
}

// FindProductByTitlePrice returns candidate products sharing the same
// retailer, category, and rounded price bucket (spec §4.1's index
// requirement); title-similarity scoring against the candidates happens
// at the application layer, in the Change Detector.
func (s *Store) FindProductByTitlePrice(ctx context.Context, retailer, category string, priceCents int64, bucketWidthCents int64) ([]*Product, error) {
	if bucketWidthCents <= 0 {
		bucketWidthCents = 100
	}
	bucketLow := (priceCents / bucketWidthCents) * bucketWidthCents
	bucketHigh := bucketLow + bucketWidthCents

	rows, err := s.db.QueryContext(ctx, productSelectColumns+`
		WHERE retailer = ? AND category = ? AND current_price_cents >= ? AND current_price_cents < ?`,
		retailer, category, bucketLow, bucketHigh)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "query title/price candidates")
	}
	defer rows.Close()

	var out []*Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "iterate title/price candidates")
	}
	return out, nil
}

// TouchProductLastSeen refreshes LastSeenAt for a product already known
// to exist, without touching its other fields (spec §4.7: an "existing"
// classification only needs the last-seen timestamp bumped).
func (s *Store) TouchProductLastSeen(ctx context.Context, productID int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE products SET last_seen_at = ? WHERE id = ?`, time.Now().UTC(), productID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.StoreUnavailable, "touch product last_seen_at")
	}
	return nil
}

const productSelectColumns = `
	SELECT id, retailer, COALESCE(product_code, ''), normalized_url, exact_url, title, brand,
		current_price_cents, original_price_cents, currency, on_sale, stock_state,
		category, image_urls, description, neckline, sleeve_length,
		first_seen_at, last_seen_at, last_updated_at
	FROM products`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProduct(row *sql.Row) (*Product, error) {
	p, err := scanProductRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.NotFound, "product not found")
	}
	return p, err
}

func scanProductRows(row rowScanner) (*Product, error) {
	var p Product
	var onSale int
	var stockState, imageURLs string
	var code string

	err := row.Scan(
		&p.ID, &p.Retailer, &code, &p.NormalizedURL, &p.ExactURL, &p.Title, &p.Brand,
		&p.CurrentPriceCents, &p.OriginalPriceCents, &p.Currency, &onSale, &stockState,
		&p.Category, &imageURLs, &p.Description, &p.Neckline, &p.SleeveLength,
		&p.FirstSeenAt, &p.LastSeenAt, &p.LastUpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, apperrors.Wrap(err, apperrors.StoreUnavailable, "scan product row")
	}

	p.ProductCode = code
	p.OnSale = onSale != 0
	p.StockState = StockState(stockState)
	if err := json.Unmarshal([]byte(imageURLs), &p.ImageURLs); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "unmarshal product image URLs")
	}

	return &p, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
