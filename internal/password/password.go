// Package password はパスワードの一方向ハッシュ化と照合を提供する。
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// hashCost はbcryptのコストファクタ。
const hashCost = 10

// Hash は平文パスワードをbcryptでハッシュ化する。
// ソルトはハッシュに埋め込まれるため、同じ入力でも出力は毎回異なる。
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), hashCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

// Verify は平文パスワードとダイジェストを照合する。
// 形式不正なダイジェストでもエラーにせずfalseを返す。
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
