// Package auth はサインアップ・サインイン・プロダクトキー発行のビジネスロジックを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/password"
	"github.com/hitoshi/realtor/internal/repository"
	"github.com/hitoshi/realtor/internal/token"
)

// TokenCodec は認証サービスが必要とするトークン操作のインターフェース。
// token.Codecの部分集合として定義する。
type TokenCodec interface {
	SignSession(userID int64, userType model.UserType) (string, error)
	SignProductKey(email string, userType model.UserType) (string, error)
	VerifyProductKey(tokenString string) (*token.ProductKeyPayload, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	HashConcurrency int // 同時に実行するbcryptハッシュ計算の上限
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	accounts repository.AccountRepository
	codec    TokenCodec

	// hashGate はbcrypt計算の同時実行数を制限するセマフォ。
	// ハッシュ計算はCPU集約的であり、バーストが全serving goroutineを
	// 占有しないように有界で実行する。
	hashGate chan struct{}
}

// NewService はServiceを生成する。
func NewService(accounts repository.AccountRepository, codec TokenCodec, config ServiceConfig) *Service {
	concurrency := config.HashConcurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		accounts: accounts,
		codec:    codec,
		hashGate: make(chan struct{}, concurrency),
	}
}

// Credentials はサインアップ・サインイン成功時の認証結果。
// Tokenは発行されたセッショントークン、Accountは公開可能なユーザー情報の源泉。
type Credentials struct {
	Token   string
	Account *model.Account
}

// SignUpParams はサインアップの入力。
type SignUpParams struct {
	Name       string
	Email      string
	Phone      string
	Password   string
	ProductKey string
}

// SignUp は新規アカウントを登録し、セッショントークンを発行する。
//
// buyer以外の役割で登録するには、対象のメールアドレスと役割に一致する
// 有効なプロダクトキーの提示が必須。欠落・検証失敗・不一致はいずれもUnauthorized。
// メールアドレスが既に登録済みの場合はDuplicateAccountを返す。
// アカウント作成は単一行INSERTで原子的に行われ、途中失敗で半端な状態は残らない。
func (s *Service) SignUp(ctx context.Context, params SignUpParams, userType model.UserType) (*Credentials, error) {
	if userType != model.UserTypeBuyer {
		if err := s.checkProductKey(params.ProductKey, params.Email, userType); err != nil {
			return nil, err
		}
	}

	existing, err := s.accounts.FindByEmail(ctx, params.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateAccountError()
	}

	digest, err := s.hashPassword(ctx, params.Password)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: digest,
		Phone:        params.Phone,
		UserType:     userType,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		// 事前チェックをすり抜けた競合挿入もConflictとして扱う
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewDuplicateAccountError()
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.Info("account created",
		slog.Int64("user_id", account.ID),
		slog.String("user_type", string(account.UserType)),
	)

	return s.issueCredentials(account)
}

// SignIn はメールアドレスとパスワードを検証し、セッショントークンを発行する。
//
// アカウント列挙を防ぐため、メールアドレス不明とパスワード不一致は
// どちらも同じInvalidCredentialsを返す。
func (s *Service) SignIn(ctx context.Context, email, plaintext string) (*Credentials, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !password.Verify(plaintext, account.PasswordHash) {
		return nil, model.NewInvalidCredentialsError()
	}

	return s.issueCredentials(account)
}

// GenerateProductKey は対象のメールアドレスと役割を束縛したプロダクトキーを発行する。
//
// アカウントの存在チェックは行わない。これは招待であり検証ではない。
// buyerはプロダクトキーなしで登録できるため、対象役割としては不正。
func (s *Service) GenerateProductKey(email string, userType model.UserType) (string, error) {
	if userType == model.UserTypeBuyer {
		return "", model.NewInvalidUserTypeError(string(userType))
	}

	key, err := s.codec.SignProductKey(email, userType)
	if err != nil {
		return "", fmt.Errorf("failed to generate product key: %w", err)
	}

	slog.Info("product key issued",
		slog.String("target_email", email),
		slog.String("target_user_type", string(userType)),
	)

	return key, nil
}

// GetAccount は指定IDのアカウントを取得する。見つからない場合はAccountNotFound。
func (s *Service) GetAccount(ctx context.Context, id int64) (*model.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	if account == nil {
		return nil, model.NewAccountNotFoundError()
	}
	return account, nil
}

// checkProductKey はプロダクトキーを検証し、宣言されたターゲットと照合する。
// 欠落・署名/期限の検証失敗・email/userTypeの不一致はすべて同一のUnauthorizedに畳む。
// 失敗理由を区別して返すと招待トークンの探索に使えてしまうため。
func (s *Service) checkProductKey(productKey, email string, userType model.UserType) error {
	if productKey == "" {
		return model.NewUnauthorizedError()
	}

	payload, err := s.codec.VerifyProductKey(productKey)
	if err != nil {
		return model.NewUnauthorizedError()
	}

	if payload.UserType != userType || payload.Email != email {
		return model.NewUnauthorizedError()
	}

	return nil
}

// hashPassword はbcryptハッシュ計算を有界のゲートを通して実行する。
// ゲートが埋まっている間にリクエストがキャンセルされた場合は計算せずに返る。
func (s *Service) hashPassword(ctx context.Context, plaintext string) (string, error) {
	select {
	case s.hashGate <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-s.hashGate }()

	return password.Hash(plaintext)
}

// issueCredentials はアカウントの現在の役割を束縛したセッショントークンを発行する。
// 役割はトークンに焼き込まれ、以降のリクエストで再導出されない（ステートレス設計）。
func (s *Service) issueCredentials(account *model.Account) (*Credentials, error) {
	sessionToken, err := s.codec.SignSession(account.ID, account.UserType)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}
	return &Credentials{Token: sessionToken, Account: account}, nil
}
