package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/realtor/internal/model"
)

// PostgresMessageRepo はPostgreSQLを使用した問い合わせメッセージリポジトリ。
type PostgresMessageRepo struct {
	db *sql.DB
}

// NewPostgresMessageRepo はPostgresMessageRepoを生成する。
func NewPostgresMessageRepo(db *sql.DB) *PostgresMessageRepo {
	return &PostgresMessageRepo{db: db}
}

// Create はメッセージを作成し、採番されたIDと作成日時を埋めて返す。
func (r *PostgresMessageRepo) Create(ctx context.Context, message *model.Message) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO messages (listing_id, realtor_id, buyer_id, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		message.ListingID, message.RealtorID, message.BuyerID, message.Body,
	).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}

	return nil
}

// ListByListing は指定物件宛のメッセージ一覧を作成日時昇順で返す。
func (r *PostgresMessageRepo) ListByListing(ctx context.Context, listingID int64) ([]*model.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, listing_id, realtor_id, buyer_id, body, created_at
		 FROM messages WHERE listing_id = $1 ORDER BY created_at ASC`,
		listingID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m := &model.Message{}
		if err := rows.Scan(&m.ID, &m.ListingID, &m.RealtorID, &m.BuyerID, &m.Body, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}

	return messages, nil
}

// compile-time interface check
var _ MessageRepository = (*PostgresMessageRepo)(nil)
