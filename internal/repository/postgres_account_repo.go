package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/realtor/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反のエラーコード。
const uniqueViolation = "23505"

// PostgresAccountRepo はPostgreSQLを使用したアカウントリポジトリ。
type PostgresAccountRepo struct {
	db *sql.DB
}

// NewPostgresAccountRepo はPostgresAccountRepoを生成する。
func NewPostgresAccountRepo(db *sql.DB) *PostgresAccountRepo {
	return &PostgresAccountRepo{db: db}
}

// FindByEmail は指定メールアドレスのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, phone, user_type, created_at, updated_at
		 FROM accounts WHERE email = $1`,
		email,
	).Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&account.Phone, &account.UserType, &account.CreatedAt, &account.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by email: %w", err)
	}

	return account, nil
}

// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
func (r *PostgresAccountRepo) FindByID(ctx context.Context, id int64) (*model.Account, error) {
	account := &model.Account{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, password_hash, phone, user_type, created_at, updated_at
		 FROM accounts WHERE id = $1`,
		id,
	).Scan(
		&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&account.Phone, &account.UserType, &account.CreatedAt, &account.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account by ID: %w", err)
	}

	return account, nil
}

// Create はアカウントを作成し、採番されたIDと作成日時を埋めて返す。
// メールアドレスの一意制約違反はErrDuplicateEmailに変換する。
// 単一行のINSERTであり、成功すれば行が存在し、失敗すれば何も残らない。
func (r *PostgresAccountRepo) Create(ctx context.Context, account *model.Account) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO accounts (name, email, password_hash, phone, user_type)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		account.Name, account.Email, account.PasswordHash, account.Phone, account.UserType,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	return nil
}

// compile-time interface check
var _ AccountRepository = (*PostgresAccountRepo)(nil)
