package handler

import (
	"net/mail"
	"regexp"
	"unicode"

	"github.com/hitoshi/realtor/internal/model"
)

// phonePattern は許容する電話番号の形式。
// 任意の国番号（+NN）とハイフン・ドット・空白区切りを受け付ける。
var phonePattern = regexp.MustCompile(`^(\+\d{1,2}\s)?\d{1,3}[\s.-]\d{3,5}\d{4}$`)

// validEmail はメールアドレスの形式を検証する。
func validEmail(email string) bool {
	if email == "" {
		return false
	}
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

// validPassword はパスワードの強度要件（8文字以上、数字を含む）を検証する。
func validPassword(p string) bool {
	if len(p) < 8 {
		return false
	}
	for _, r := range p {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// validateSignUp はサインアップリクエストを検証する。
// 問題がなければnilを返す。
func validateSignUp(req *signUpRequest) *model.APIError {
	if req.Name == "" {
		return model.NewValidationError("name is required")
	}
	if !phonePattern.MatchString(req.Phone) {
		return model.NewValidationError("phone must be a valid phone number")
	}
	if !validEmail(req.Email) {
		return model.NewValidationError("email must be a valid email address")
	}
	if !validPassword(req.Password) {
		return model.NewValidationError("password must be at least 8 characters and contain a number")
	}
	return nil
}

// validateSignIn はサインインリクエストを検証する。
func validateSignIn(req *signInRequest) *model.APIError {
	if !validEmail(req.Email) {
		return model.NewValidationError("email must be a valid email address")
	}
	if req.Password == "" {
		return model.NewValidationError("password is required")
	}
	return nil
}
