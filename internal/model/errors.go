package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, listing, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "TOKEN_INVALID"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeDuplicateAccount   = "DUPLICATE_ACCOUNT"
	ErrCodeListingNotFound    = "LISTING_NOT_FOUND"
	ErrCodeAccountNotFound    = "ACCOUNT_NOT_FOUND"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeInvalidUserType    = "INVALID_USER_TYPE"
)

// NewTokenExpiredError は期限切れトークンのエラーを生成する。
// 不正なトークンとは区別して通知するが、アクセス拒否の扱いは同一。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "expired jwt",
		Category: "auth",
		Action:   "再度サインインしてください。",
	}
}

// NewTokenInvalidError は署名不正・形式不正トークンのエラーを生成する。
func NewTokenInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenInvalid,
		Message:  "invalid jwt",
		Category: "auth",
		Action:   "再度サインインしてください。",
	}
}

// NewUnauthorizedError は認証が必要な操作への未認証アクセスのエラーを生成する。
// プロダクトキーの欠落・不一致にも使用する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "サインインするか、有効なプロダクトキーを提示してください。",
	}
}

// NewForbiddenError は権限不足のエラーを生成する。
// 認証済みだが、必要な役割または所有権を持たない場合に使用する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "リソースの所有者または管理者のアカウントで操作してください。",
	}
}

// NewInvalidCredentialsError はサインイン失敗のエラーを生成する。
// アカウント列挙を防ぐため、メールアドレス不明とパスワード不一致で同一のメッセージを返す。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "invalid credentials",
		Category: "auth",
		Action:   "メールアドレスとパスワードを確認してください。",
	}
}

// NewDuplicateAccountError はメールアドレス重複のエラーを生成する。
func NewDuplicateAccountError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateAccount,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、サインインしてください。",
	}
}

// NewListingNotFoundError は物件未検出のエラーを生成する。
func NewListingNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeListingNotFound,
		Message:  "指定された物件が見つかりません。",
		Category: "listing",
		Action:   "物件IDまたは検索条件を確認してください。",
	}
}

// NewAccountNotFoundError はアカウント未検出のエラーを生成する。
func NewAccountNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAccountNotFound,
		Message:  "指定されたアカウントが見つかりません。",
		Category: "auth",
		Action:   "アカウントIDを確認してください。",
	}
}

// NewValidationError はリクエストボディの検証失敗エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidUserTypeError はユーザー種別の解析失敗エラーを生成する。
func NewInvalidUserTypeError(s string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUserType,
		Message:  fmt.Sprintf("不明なユーザー種別です: %s", s),
		Category: "validation",
		Action:   "admin、realtor、buyer のいずれかを指定してください。",
	}
}
