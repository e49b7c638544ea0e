package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/realtor/internal/listing"
	"github.com/hitoshi/realtor/internal/middleware"
	"github.com/hitoshi/realtor/internal/model"
)

// ListingServiceInterface は物件ハンドラーが必要とするサービスインターフェース。
type ListingServiceInterface interface {
	List(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error)
	Get(ctx context.Context, id int64) (*model.Listing, error)
	Create(ctx context.Context, params listing.CreateParams, identity *model.Identity) (*model.Listing, error)
	Update(ctx context.Context, id int64, patch model.ListingPatch, identity *model.Identity) (*model.Listing, error)
	Delete(ctx context.Context, id int64, identity *model.Identity) error
	GetRealtor(ctx context.Context, listingID int64) (*model.Account, error)
}

// ListingHandler は物件管理のHTTPハンドラー。
type ListingHandler struct {
	service ListingServiceInterface
}

// NewListingHandler はListingHandlerを生成する。
func NewListingHandler(service ListingServiceInterface) *ListingHandler {
	return &ListingHandler{service: service}
}

// imageDTO は物件画像のリクエスト・レスポンス表現。
type imageDTO struct {
	URL string `json:"url"`
}

// listingResponse は物件情報のAPIレスポンス。
type listingResponse struct {
	ID           int64      `json:"id"`
	Address      string     `json:"address"`
	City         string     `json:"city"`
	Price        float64    `json:"price"`
	Bedrooms     int        `json:"numberOfBedrooms"`
	Bathrooms    int        `json:"numberOfBathrooms"`
	LandSize     float64    `json:"landSize"`
	PropertyType string     `json:"propertyType"`
	RealtorID    int64      `json:"realtorId"`
	ListedDate   time.Time  `json:"listedDate"`
	Images       []imageDTO `json:"images"`
}

// createListingRequest は物件作成リクエストのボディ。
type createListingRequest struct {
	Address      string     `json:"address"`
	City         string     `json:"city"`
	Price        float64    `json:"price"`
	Bedrooms     int        `json:"numberOfBedrooms"`
	Bathrooms    int        `json:"numberOfBathrooms"`
	LandSize     float64    `json:"landSize"`
	PropertyType string     `json:"propertyType"`
	Images       []imageDTO `json:"images"`
}

// updateListingRequest は物件更新リクエストのボディ。nilのフィールドは変更しない。
type updateListingRequest struct {
	Address      *string  `json:"address"`
	City         *string  `json:"city"`
	Price        *float64 `json:"price"`
	Bedrooms     *int     `json:"numberOfBedrooms"`
	Bathrooms    *int     `json:"numberOfBathrooms"`
	LandSize     *float64 `json:"landSize"`
	PropertyType *string  `json:"propertyType"`
}

// List は物件一覧を検索条件付きで返す。
// GET /api/listings?city=&minPrice=&maxPrice=&propertyType=
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, apiErr := parseListingFilter(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	listings, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]listingResponse, 0, len(listings))
	for _, l := range listings {
		responses = append(responses, toListingResponse(l))
	}

	writeJSON(w, http.StatusOK, responses)
}

// Get は物件詳細を返す。
// GET /api/listings/{id}
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	l, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(l))
}

// Create は物件を登録する。
// POST /api/listings（realtor/admin専用ルート）
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	params, apiErr := buildCreateParams(&req)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	l, err := h.service.Create(r.Context(), params, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toListingResponse(l))
}

// Update は物件を部分更新する。
// PUT /api/listings/{id}（realtor/admin専用ルート、所有者または管理者のみ）
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	patch, apiErr := buildListingPatch(&req)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	l, err := h.service.Update(r.Context(), id, patch, identity)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toListingResponse(l))
}

// Delete は物件を削除する。
// DELETE /api/listings/{id}（realtor/admin専用ルート、所有者または管理者のみ）
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	if err := h.service.Delete(r.Context(), id, identity); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetRealtor は物件の担当業者の公開情報を返す。
// GET /api/listings/{id}/realtor
func (h *ListingHandler) GetRealtor(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r)
	if apiErr != nil {
		handleServiceError(w, apiErr)
		return
	}

	realtor, err := h.service.GetRealtor(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(realtor))
}

// --- ヘルパー関数 ---

// parseIDParam はURLパスの{id}パラメータを解析する。
func parseIDParam(r *http.Request) (int64, *model.APIError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("id must be a positive integer")
	}
	return id, nil
}

// parseListingFilter はクエリパラメータから検索条件を構築する。
func parseListingFilter(r *http.Request) (model.ListingFilter, *model.APIError) {
	filter := model.ListingFilter{}
	q := r.URL.Query()

	filter.City = q.Get("city")

	if raw := q.Get("minPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return filter, model.NewValidationError("minPrice must be a positive number")
		}
		filter.MinPrice = v
	}
	if raw := q.Get("maxPrice"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			return filter, model.NewValidationError("maxPrice must be a positive number")
		}
		filter.MaxPrice = v
	}
	if raw := q.Get("propertyType"); raw != "" {
		pt, ok := model.ParsePropertyType(raw)
		if !ok {
			return filter, model.NewValidationError("propertyType must be condo or residential")
		}
		filter.PropertyType = pt
	}

	return filter, nil
}

// buildCreateParams は作成リクエストを検証し、サービス入力に変換する。
func buildCreateParams(req *createListingRequest) (listing.CreateParams, *model.APIError) {
	params := listing.CreateParams{}

	if req.Address == "" {
		return params, model.NewValidationError("address is required")
	}
	if req.City == "" {
		return params, model.NewValidationError("city is required")
	}
	if req.Price <= 0 {
		return params, model.NewValidationError("price must be positive")
	}
	if req.Bedrooms <= 0 {
		return params, model.NewValidationError("numberOfBedrooms must be positive")
	}
	if req.Bathrooms <= 0 {
		return params, model.NewValidationError("numberOfBathrooms must be positive")
	}
	if req.LandSize <= 0 {
		return params, model.NewValidationError("landSize must be positive")
	}
	propertyType, ok := model.ParsePropertyType(req.PropertyType)
	if !ok {
		return params, model.NewValidationError("propertyType must be condo or residential")
	}

	urls := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if img.URL == "" {
			return params, model.NewValidationError("image url is required")
		}
		urls = append(urls, img.URL)
	}

	params = listing.CreateParams{
		Address:      req.Address,
		City:         req.City,
		Price:        req.Price,
		Bedrooms:     req.Bedrooms,
		Bathrooms:    req.Bathrooms,
		LandSize:     req.LandSize,
		PropertyType: propertyType,
		ImageURLs:    urls,
	}
	return params, nil
}

// buildListingPatch は更新リクエストを検証し、部分更新に変換する。
func buildListingPatch(req *updateListingRequest) (model.ListingPatch, *model.APIError) {
	patch := model.ListingPatch{}

	if req.Address != nil {
		if *req.Address == "" {
			return patch, model.NewValidationError("address must not be empty")
		}
		patch.Address = req.Address
	}
	if req.City != nil {
		if *req.City == "" {
			return patch, model.NewValidationError("city must not be empty")
		}
		patch.City = req.City
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return patch, model.NewValidationError("price must be positive")
		}
		patch.Price = req.Price
	}
	if req.Bedrooms != nil {
		if *req.Bedrooms <= 0 {
			return patch, model.NewValidationError("numberOfBedrooms must be positive")
		}
		patch.Bedrooms = req.Bedrooms
	}
	if req.Bathrooms != nil {
		if *req.Bathrooms <= 0 {
			return patch, model.NewValidationError("numberOfBathrooms must be positive")
		}
		patch.Bathrooms = req.Bathrooms
	}
	if req.LandSize != nil {
		if *req.LandSize <= 0 {
			return patch, model.NewValidationError("landSize must be positive")
		}
		patch.LandSize = req.LandSize
	}
	if req.PropertyType != nil {
		pt, ok := model.ParsePropertyType(*req.PropertyType)
		if !ok {
			return patch, model.NewValidationError("propertyType must be condo or residential")
		}
		patch.PropertyType = &pt
	}

	return patch, nil
}

// toListingResponse はmodel.ListingからAPIレスポンスに変換する。
func toListingResponse(l *model.Listing) listingResponse {
	images := make([]imageDTO, 0, len(l.Images))
	for _, img := range l.Images {
		images = append(images, imageDTO{URL: img.URL})
	}

	return listingResponse{
		ID:           l.ID,
		Address:      l.Address,
		City:         l.City,
		Price:        l.Price,
		Bedrooms:     l.Bedrooms,
		Bathrooms:    l.Bathrooms,
		LandSize:     l.LandSize,
		PropertyType: string(l.PropertyType),
		RealtorID:    l.RealtorID,
		ListedDate:   l.CreatedAt,
		Images:       images,
	}
}
