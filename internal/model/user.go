// Package model はドメインモデルを定義する。
package model

import "time"

// UserType はユーザーの役割を表す閉じた列挙型。
// ルートのアクセス制御とサインアップのゲーティングの両方を決定する。
type UserType string

const (
	// UserTypeAdmin は管理者を示す。全リソースに対する操作権限を持つ。
	UserTypeAdmin UserType = "admin"
	// UserTypeRealtor は不動産業者を示す。物件の作成・管理を行う。
	UserTypeRealtor UserType = "realtor"
	// UserTypeBuyer は購入希望者を示す。プロダクトキーなしで登録できる唯一の役割。
	UserTypeBuyer UserType = "buyer"
)

// ParseUserType は文字列をUserTypeに変換する。
// 未知の値の場合はfalseを返す。
func ParseUserType(s string) (UserType, bool) {
	switch UserType(s) {
	case UserTypeAdmin, UserTypeRealtor, UserTypeBuyer:
		return UserType(s), true
	}
	return "", false
}

// Account は登録済みユーザーのアカウントを表す。
// PasswordHashはAPIレスポンスに含めてはならない。
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Phone        string
	UserType     UserType
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity はセッショントークンの検証に成功したリクエストに付与される認証済み識別情報。
// リクエストの寿命の間だけ存在し、永続化されない。
// トークン発行時点の役割を保持する（発行後にアカウントの役割が変わっても再導出しない）。
type Identity struct {
	UserID    int64
	UserType  UserType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// IsAdmin は管理者権限を持つかどうかを返す。
func (i *Identity) IsAdmin() bool {
	return i.UserType == UserTypeAdmin
}
