// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/token"
)

// SessionCookieName はセッショントークンを格納するCookie名。
const SessionCookieName = "jwt"

// bearerPrefix はAuthorizationヘッダーのスキーム接頭辞。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストにIdentityを格納するためのキー。
var identityContextKey = contextKey("identity")

// SessionVerifier はセッショントークンの検証に必要なインターフェース。
// token.Codecの部分集合として定義する。
type SessionVerifier interface {
	VerifySession(tokenString string) (*model.Identity, error)
}

// NewIdentityMiddleware はリクエストからベアラートークンを抽出し、
// 検証済みIdentityをコンテキストに注入するミドルウェアを返す。
//
// トークンが存在しない場合はエラーにせず匿名のまま通す。
// パブリックルートを到達可能に保つため、欠落は失敗ではない。
// トークンが存在するが検証に失敗した場合は401で拒否する。
// 黙って匿名に降格させると改ざんトークンが失敗通知を迂回できてしまう。
// 期限切れと不正はメッセージで区別するが、どちらも同じ401として拒否する。
func NewIdentityMiddleware(verifier SessionVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString := extractToken(r)
			if tokenString == "" {
				// 匿名リクエスト
				next.ServeHTTP(w, r)
				return
			}

			identity, err := verifier.VerifySession(tokenString)
			if err != nil {
				if errors.Is(err, token.ErrTokenExpired) {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenExpiredError())
				} else {
					WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenInvalidError())
				}
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken はAuthorizationヘッダーまたはjwt Cookieからトークンを抽出する。
// ヘッダーが優先。どちらにもない場合は空文字を返す。
func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, bearerPrefix) {
		return strings.TrimPrefix(auth, bearerPrefix)
	}
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// IdentityFromContext はリクエストコンテキストからIdentityを取得する。
// 匿名リクエストの場合はnilとfalseを返す。
func IdentityFromContext(ctx context.Context) (*model.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	return identity, ok && identity != nil
}

// ContextWithIdentity はコンテキストにIdentityを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
