// Package token はセッショントークンとプロダクトキートークンの署名・検証を提供する。
//
// 2種類のトークンは独立した署名鍵を使用する。片方の鍵が漏洩しても
// もう片方のトークンを偽造できないようにするため。
// さらにissuer/audienceクレームで用途を束縛し、鍵を誤って使い回した実装でも
// セッショントークンがプロダクトキー検証を通過しないようにする。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/realtor/internal/model"
)

const (
	// Issuer は両トークンに共通のiss値。
	Issuer = "RealtorApp"
	// AudienceSession はセッショントークンのaud値。
	AudienceSession = "signin"
	// AudienceProductKey はプロダクトキートークンのaud値。
	AudienceProductKey = "signup"

	// SessionTTL はセッショントークンの有効期間。
	SessionTTL = 7 * 24 * time.Hour
	// ProductKeyTTL はプロダクトキートークンの有効期間。
	ProductKeyTTL = 3 * 24 * time.Hour
)

var (
	// ErrTokenExpired は期限切れトークンを示す。
	ErrTokenExpired = errors.New("token expired")
	// ErrTokenInvalid は署名不正・形式不正・クレーム不正のトークンを示す。
	ErrTokenInvalid = errors.New("token invalid")
)

// sessionClaims はセッショントークンのクレームスキーマ。
type sessionClaims struct {
	UserID   int64          `json:"userId"`
	UserType model.UserType `json:"userType"`
	jwt.RegisteredClaims
}

// productKeyClaims はプロダクトキートークンのクレームスキーマ。
type productKeyClaims struct {
	UserEmail string         `json:"userEmail"`
	UserType  model.UserType `json:"userType"`
	jwt.RegisteredClaims
}

// ProductKeyPayload はプロダクトキー検証に成功した場合の結果。
// サインアップ時に呼び出し側が宣言するemail/userTypeとの照合に使用する。
type ProductKeyPayload struct {
	Email    string
	UserType model.UserType
}

// Codec は2つの独立した署名鍵でトークンの署名と検証を行う。
// 鍵は起動時に1回設定され、以降読み取り専用。並行リクエストから安全に利用できる。
type Codec struct {
	sessionKey    []byte
	productKeyKey []byte
}

// NewCodec はCodecを生成する。両鍵が空でないことを要求する。
func NewCodec(sessionKey, productKeyKey string) (*Codec, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session signing key is empty")
	}
	if productKeyKey == "" {
		return nil, fmt.Errorf("product key signing key is empty")
	}
	return &Codec{
		sessionKey:    []byte(sessionKey),
		productKeyKey: []byte(productKeyKey),
	}, nil
}

// SignSession は指定ユーザーのセッショントークンを発行する。
// 有効期限は発行時刻から7日間。
func (c *Codec) SignSession(userID int64, userType model.UserType) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID:   userID,
		UserType: userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.sessionKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// VerifySession はセッショントークンを検証しIdentityを返す。
// 期限切れはErrTokenExpired、それ以外の検証失敗はすべてErrTokenInvalidを返す。
// 失敗時に部分的な結果を返すことはない。
func (c *Codec) VerifySession(tokenString string) (*model.Identity, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.sessionKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AudienceSession),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyError(err)
	}

	if claims.UserID <= 0 {
		return nil, ErrTokenInvalid
	}
	if _, ok := model.ParseUserType(string(claims.UserType)); !ok {
		return nil, ErrTokenInvalid
	}

	return &model.Identity{
		UserID:    claims.UserID,
		UserType:  claims.UserType,
		IssuedAt:  claims.IssuedAt.Time,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// SignProductKey は指定のメールアドレスと役割を束縛したプロダクトキートークンを発行する。
// 有効期限は発行時刻から3日間。アカウントの存在チェックは行わない（招待であり検証ではない）。
func (c *Codec) SignProductKey(email string, userType model.UserType) (string, error) {
	now := time.Now()
	claims := productKeyClaims{
		UserEmail: email,
		UserType:  userType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Audience:  jwt.ClaimStrings{AudienceProductKey},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ProductKeyTTL)),
			ID:        uuid.New().String(),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(c.productKeyKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign product key token: %w", err)
	}
	return signed, nil
}

// VerifyProductKey はプロダクトキートークンを検証し、束縛されたemail/userTypeを返す。
// 失敗の分類はVerifySessionと同じ。
// 返却値と呼び出し側が宣言するターゲットの照合は呼び出し側の責務。
func (c *Codec) VerifyProductKey(tokenString string) (*ProductKeyPayload, error) {
	claims := &productKeyClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) { return c.productKeyKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(AudienceProductKey),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, classifyError(err)
	}

	if claims.UserEmail == "" {
		return nil, ErrTokenInvalid
	}
	if _, ok := model.ParseUserType(string(claims.UserType)); !ok {
		return nil, ErrTokenInvalid
	}

	return &ProductKeyPayload{
		Email:    claims.UserEmail,
		UserType: claims.UserType,
	}, nil
}

// classifyError はjwtライブラリのエラーを期限切れ/不正の2値に分類する。
// 署名不正が優先。改ざんされたトークンは期限に関係なく不正として扱う。
// それ以外の詳細（形式不正、クレーム不一致）も区別せずErrTokenInvalidに畳む。
func classifyError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		return ErrTokenInvalid
	}
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrTokenInvalid
}
