// Package authz はロール判定と所有権認可を提供する。
//
// 認証（Identityの確立）と認可（操作の許可判定）を分離する。
// このパッケージは後者のみを担当し、Identityの真正性は前段のミドルウェアが保証する。
package authz

import (
	"github.com/hitoshi/realtor/internal/model"
)

// AllowRole はルートに宣言された許可ロール集合に対してIdentityを判定する。
//   - allowedが空の場合は常に許可（パブリックルート）。
//   - identityがnil（匿名）の場合、allowedが空でなければ拒否。
//   - それ以外はidentity.UserTypeがallowedに含まれる場合のみ許可。
func AllowRole(allowed []model.UserType, identity *model.Identity) bool {
	if len(allowed) == 0 {
		return true
	}
	if identity == nil {
		return false
	}
	for _, role := range allowed {
		if identity.UserType == role {
			return true
		}
	}
	return false
}

// AuthorizeOwner はリソースの所有者IDに対してIdentityを認可する。
// 所有者本人または管理者のみ許可し、それ以外はForbiddenを返す。
// リソースの存在確認は呼び出し側の責務（NotFoundの判定が先）。
func AuthorizeOwner(ownerID int64, identity *model.Identity) error {
	if identity == nil {
		return model.NewUnauthorizedError()
	}
	if identity.UserID == ownerID || identity.IsAdmin() {
		return nil
	}
	return model.NewForbiddenError()
}
