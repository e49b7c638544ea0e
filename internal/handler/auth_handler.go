package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/realtor/internal/auth"
	"github.com/hitoshi/realtor/internal/middleware"
	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/token"
)

// sessionCookieMaxAge はセッションCookieの有効期間（秒）。トークンの有効期間と一致させる。
const sessionCookieMaxAge = int(token.SessionTTL / time.Second)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	SignUp(ctx context.Context, params auth.SignUpParams, userType model.UserType) (*auth.Credentials, error)
	SignIn(ctx context.Context, email, password string) (*auth.Credentials, error)
	GenerateProductKey(email string, userType model.UserType) (string, error)
	GetAccount(ctx context.Context, id int64) (*model.Account, error)
}

// AuthMetrics は認証ハンドラーが記録するメトリクスのインターフェース。
// metrics.Collectorの部分集合として定義する。
type AuthMetrics interface {
	RecordSignup(outcome string, userType string)
	RecordSignin(outcome string)
	RecordProductKeyIssued()
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetrics
	config  AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetrics, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service: service,
		metrics: metrics,
		config:  config,
	}
}

// signUpRequest はサインアップリクエストのボディ。
type signUpRequest struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	ProductKey string `json:"productKey"`
}

// signInRequest はサインインリクエストのボディ。
type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// generateKeyRequest はプロダクトキー発行リクエストのボディ。
type generateKeyRequest struct {
	Email    string `json:"email"`
	UserType string `json:"userType"`
}

// userResponse はアカウントの公開フィールドのみを含むAPIレスポンス。
// パスワードハッシュは決して含めない。
type userResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	UserType string `json:"userType"`
}

// credentialsResponse はサインアップ・サインイン成功時のレスポンス。
// Authorizationヘッダーで送るクライアント向けに生トークンも返す。
type credentialsResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

// SignUp はサインアップを処理する。
// POST /auth/signup/{userType}
// buyer以外のuserTypeにはボディ内の有効なプロダクトキーが必須。
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	userTypeParam := chi.URLParam(r, "userType")
	userType, ok := model.ParseUserType(userTypeParam)
	if !ok {
		handleServiceError(w, model.NewInvalidUserTypeError(userTypeParam))
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateSignUp(&req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	creds, err := h.service.SignUp(r.Context(), auth.SignUpParams{
		Name:       req.Name,
		Email:      req.Email,
		Phone:      req.Phone,
		Password:   req.Password,
		ProductKey: req.ProductKey,
	}, userType)
	if err != nil {
		h.metrics.RecordSignup(signupOutcome(err), string(userType))
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignup("success", string(userType))
	h.writeCredentials(w, http.StatusCreated, creds)
}

// SignIn はサインインを処理する。
// POST /auth/signin
// メールアドレス不明とパスワード不一致は同じ400を返す（アカウント列挙対策）。
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if apiErr := validateSignIn(&req); apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	creds, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordSignin("invalid_credentials")
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignin("success")
	h.writeCredentials(w, http.StatusOK, creds)
}

// GenerateProductKey はプロダクトキー発行を処理する。
// POST /auth/key（admin専用ルート）
func (h *AuthHandler) GenerateProductKey(w http.ResponseWriter, r *http.Request) {
	var req generateKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	userType, ok := model.ParseUserType(req.UserType)
	if !ok || userType == model.UserTypeBuyer {
		handleServiceError(w, model.NewInvalidUserTypeError(req.UserType))
		return
	}
	if !validEmail(req.Email) {
		handleServiceError(w, model.NewValidationError("email must be a valid email address"))
		return
	}

	key, err := h.service.GenerateProductKey(req.Email, userType)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordProductKeyIssued()
	writeJSON(w, http.StatusCreated, map[string]string{"productKey": key})
}

// Me は現在の認証済みユーザーの公開情報を返す。
// GET /auth/me（認証必須ルート）
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	account, err := h.service.GetAccount(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(account))
}

// Logout はセッションCookieを破棄する。
// POST /auth/logout
// トークンはステートレスであり、サーバー側で無効化する状態は存在しない。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	w.WriteHeader(http.StatusNoContent)
}

// writeCredentials はセッションCookieを設定し、トークンと公開ユーザー情報を返す。
func (h *AuthHandler) writeCredentials(w http.ResponseWriter, statusCode int, creds *auth.Credentials) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    creds.Token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})

	writeJSON(w, statusCode, credentialsResponse{
		Token: creds.Token,
		User:  toUserResponse(creds.Account),
	})
}

// toUserResponse はアカウントから公開フィールドのみを抽出する。
func toUserResponse(account *model.Account) userResponse {
	return userResponse{
		ID:       account.ID,
		Name:     account.Name,
		Email:    account.Email,
		Phone:    account.Phone,
		UserType: string(account.UserType),
	}
}

// signupOutcome はサインアップ失敗のメトリクス用outcomeを決定する。
func signupOutcome(err error) string {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		return "error"
	}
	switch apiErr.Code {
	case model.ErrCodeDuplicateAccount:
		return "conflict"
	case model.ErrCodeUnauthorized:
		return "unauthorized"
	default:
		return "error"
	}
}
