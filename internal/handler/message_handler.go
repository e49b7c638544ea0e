package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hitoshi/realtor/internal/middleware"
	"github.com/hitoshi/realtor/internal/model"
)

// MessageServiceInterface は問い合わせハンドラーが必要とするサービスインターフェース。
type MessageServiceInterface interface {
	Inquire(ctx context.Context, listingID int64, identity *model.Identity, body string) (*model.Message, error)
	ListByListing(ctx context.Context, listingID int64, identity *model.Identity) ([]*model.Message, error)
}

// MessageHandler は物件への問い合わせメッセージのHTTPハンドラー。
type MessageHandler struct {
	service MessageServiceInterface
}

// NewMessageHandler はMessageHandlerを生成する。
func NewMessageHandler(service MessageServiceInterface) *MessageHandler {
	return &MessageHandler{service: service}
}

// inquireRequest は問い合わせ送信リクエストのボディ。
type inquireRequest struct {
	Message string `json:"message"`
}

// messageResponse は問い合わせメッセージのAPIレスポンス。
type messageResponse struct {
	ID        int64     `json:"id"`
	ListingID int64     `json:"listingId"`
	BuyerID   int64     `json:"buyerId"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

// Inquire は物件への問い合わせを送信する。
// POST /api/listings/{id}/inquire（buyer専用ルート）
func (h *MessageHandler) Inquire(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	listingID, apiErr := parseIDParam(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	var req inquireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}
	if req.Message == "" {
		handleServiceError(w, model.NewValidationError("message is required"))
		return
	}

	msg, err := h.service.Inquire(r.Context(), listingID, identity, req.Message)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toMessageResponse(msg))
}

// ListByListing は物件に届いた問い合わせの一覧を返す。
// GET /api/listings/{id}/messages（realtor/admin専用ルート、担当者または管理者のみ）
func (h *MessageHandler) ListByListing(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	listingID, apiErr := parseIDParam(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	messages, err := h.service.ListByListing(r.Context(), listingID, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]messageResponse, 0, len(messages))
	for _, msg := range messages {
		responses = append(responses, toMessageResponse(msg))
	}

	writeJSON(w, http.StatusOK, responses)
}

// toMessageResponse はmodel.MessageからAPIレスポンスに変換する。
func toMessageResponse(m *model.Message) messageResponse {
	return messageResponse{
		ID:        m.ID,
		ListingID: m.ListingID,
		BuyerID:   m.BuyerID,
		Message:   m.Body,
		CreatedAt: m.CreatedAt,
	}
}
