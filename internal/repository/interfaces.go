// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/realtor/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
// サインアップの事前チェックをすり抜けた競合挿入もこのエラーに畳まれる。
var ErrDuplicateEmail = errors.New("email already registered")

// AccountRepository はアカウントデータの永続化インターフェース。
type AccountRepository interface {
	// FindByEmail は指定メールアドレスのアカウントを取得する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.Account, error)

	// FindByID は指定IDのアカウントを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Account, error)

	// Create はアカウントを作成し、採番されたIDと作成日時を埋めて返す。
	// メールアドレスが重複している場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, account *model.Account) error
}

// ListingRepository は物件データの永続化インターフェース。
type ListingRepository interface {
	// FindByID は指定IDの物件を画像付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Listing, error)

	// List はフィルタ条件に一致する物件を画像付きで取得する。
	List(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error)

	// Create は物件と画像を同一トランザクションで作成する。
	Create(ctx context.Context, listing *model.Listing) error

	// Update は物件の非nilフィールドのみを部分更新し、更新後の物件を返す。
	Update(ctx context.Context, id int64, patch model.ListingPatch) (*model.Listing, error)

	// Delete は指定IDの物件を削除する。画像はCASCADE削除される。
	Delete(ctx context.Context, id int64) error
}

// MessageRepository は問い合わせメッセージの永続化インターフェース。
type MessageRepository interface {
	// Create はメッセージを作成し、採番されたIDと作成日時を埋めて返す。
	Create(ctx context.Context, message *model.Message) error

	// ListByListing は指定物件宛のメッセージ一覧を作成日時昇順で返す。
	ListByListing(ctx context.Context, listingID int64) ([]*model.Message, error)
}
