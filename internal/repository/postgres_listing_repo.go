package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/realtor/internal/model"
)

// PostgresListingRepo はPostgreSQLを使用した物件リポジトリ。
type PostgresListingRepo struct {
	db *sql.DB
}

// NewPostgresListingRepo はPostgresListingRepoを生成する。
func NewPostgresListingRepo(db *sql.DB) *PostgresListingRepo {
	return &PostgresListingRepo{db: db}
}

const listingColumns = `id, address, city, price, bedrooms, bathrooms, land_size, property_type, realtor_id, created_at, updated_at`

// scanListing は1行分の物件をスキャンする。
func scanListing(row interface{ Scan(...any) error }) (*model.Listing, error) {
	l := &model.Listing{}
	err := row.Scan(
		&l.ID, &l.Address, &l.City, &l.Price, &l.Bedrooms, &l.Bathrooms,
		&l.LandSize, &l.PropertyType, &l.RealtorID, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// FindByID は指定IDの物件を画像付きで取得する。見つからない場合はnilを返す。
func (r *PostgresListingRepo) FindByID(ctx context.Context, id int64) (*model.Listing, error) {
	listing, err := scanListing(r.db.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE id = $1`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find listing by ID: %w", err)
	}

	if err := r.attachImages(ctx, []*model.Listing{listing}); err != nil {
		return nil, err
	}

	return listing, nil
}

// List はフィルタ条件に一致する物件を画像付きで作成日時降順に取得する。
// ゼロ値のフィルタフィールドは条件に含めない。
func (r *PostgresListingRepo) List(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error) {
	var conds []string
	var args []any

	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		conds = append(conds, fmt.Sprintf("city ILIKE $%d", len(args)))
	}
	if filter.MinPrice > 0 {
		args = append(args, filter.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.MaxPrice > 0 {
		args = append(args, filter.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}
	if filter.PropertyType != "" {
		args = append(args, filter.PropertyType)
		conds = append(conds, fmt.Sprintf("property_type = $%d", len(args)))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	defer rows.Close()

	var listings []*model.Listing
	for rows.Next() {
		listing, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate listings: %w", err)
	}

	if err := r.attachImages(ctx, listings); err != nil {
		return nil, err
	}

	return listings, nil
}

// Create は物件と画像を同一トランザクションで作成する。
// 採番されたIDと作成日時をlistingに埋めて返す。
func (r *PostgresListingRepo) Create(ctx context.Context, listing *model.Listing) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx,
		`INSERT INTO listings (address, city, price, bedrooms, bathrooms, land_size, property_type, realtor_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		listing.Address, listing.City, listing.Price, listing.Bedrooms,
		listing.Bathrooms, listing.LandSize, listing.PropertyType, listing.RealtorID,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert listing: %w", err)
	}

	for i := range listing.Images {
		img := &listing.Images[i]
		img.ListingID = listing.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO listing_images (listing_id, url) VALUES ($1, $2) RETURNING id`,
			img.ListingID, img.URL,
		).Scan(&img.ID)
		if err != nil {
			return fmt.Errorf("failed to insert listing image: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// Update は物件の非nilフィールドのみを部分更新し、更新後の物件を画像付きで返す。
// 対象が存在しない場合はnilを返す。
func (r *PostgresListingRepo) Update(ctx context.Context, id int64, patch model.ListingPatch) (*model.Listing, error) {
	var sets []string
	var args []any

	setField := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Address != nil {
		setField("address", *patch.Address)
	}
	if patch.City != nil {
		setField("city", *patch.City)
	}
	if patch.Price != nil {
		setField("price", *patch.Price)
	}
	if patch.Bedrooms != nil {
		setField("bedrooms", *patch.Bedrooms)
	}
	if patch.Bathrooms != nil {
		setField("bathrooms", *patch.Bathrooms)
	}
	if patch.LandSize != nil {
		setField("land_size", *patch.LandSize)
	}
	if patch.PropertyType != nil {
		setField("property_type", *patch.PropertyType)
	}

	if len(sets) == 0 {
		// 変更なし。現在の状態を返す。
		return r.FindByID(ctx, id)
	}

	sets = append(sets, "updated_at = now()")
	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE listings SET %s WHERE id = $%d RETURNING `+listingColumns,
		strings.Join(sets, ", "), len(args),
	)

	listing, err := scanListing(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}

	if err := r.attachImages(ctx, []*model.Listing{listing}); err != nil {
		return nil, err
	}

	return listing, nil
}

// Delete は指定IDの物件を削除する。画像はCASCADE削除される。
func (r *PostgresListingRepo) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %d", id)
	}
	return nil
}

// attachImages は物件群に対応する画像をまとめて取得し、各物件に割り当てる。
func (r *PostgresListingRepo) attachImages(ctx context.Context, listings []*model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(listings))
	byID := make(map[int64]*model.Listing, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
		byID[l.ID] = l
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, listing_id, url FROM listing_images WHERE listing_id = ANY($1) ORDER BY id`,
		pq.Array(ids),
	)
	if err != nil {
		return fmt.Errorf("failed to query listing images: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.ListingID, &img.URL); err != nil {
			return fmt.Errorf("failed to scan listing image: %w", err)
		}
		if l, ok := byID[img.ListingID]; ok {
			l.Images = append(l.Images, img)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate listing images: %w", err)
	}

	return nil
}

// compile-time interface check
var _ ListingRepository = (*PostgresListingRepo)(nil)
