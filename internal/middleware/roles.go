package middleware

import (
	"net/http"

	"github.com/hitoshi/realtor/internal/authz"
	"github.com/hitoshi/realtor/internal/model"
)

// RequireRoles はルートに宣言された許可ロール集合を強制するミドルウェアを返す。
// 引数なしで適用すると認証のみ要求する（ロールは問わない）。
// パブリックルートにはこのミドルウェア自体を適用しない。
//
// 未認証（匿名）の場合は401、認証済みだがロールが不一致の場合は403を返す。
// 認証失敗と認可失敗は区別して通知する。
func RequireRoles(allowed ...model.UserType) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
				return
			}

			if !authz.AllowRole(allowed, identity) {
				WriteErrorResponse(w, http.StatusForbidden, model.NewForbiddenError())
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
