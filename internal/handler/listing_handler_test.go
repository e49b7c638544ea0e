package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/realtor/internal/listing"
	"github.com/hitoshi/realtor/internal/middleware"
	"github.com/hitoshi/realtor/internal/model"
)

// --- モック定義 ---

type mockListingService struct {
	listFn       func(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error)
	getFn        func(ctx context.Context, id int64) (*model.Listing, error)
	createFn     func(ctx context.Context, params listing.CreateParams, identity *model.Identity) (*model.Listing, error)
	updateFn     func(ctx context.Context, id int64, patch model.ListingPatch, identity *model.Identity) (*model.Listing, error)
	deleteFn     func(ctx context.Context, id int64, identity *model.Identity) error
	getRealtorFn func(ctx context.Context, listingID int64) (*model.Account, error)
}

func (m *mockListingService) List(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return nil, model.NewListingNotFoundError()
}

func (m *mockListingService) Get(ctx context.Context, id int64) (*model.Listing, error) {
	if m.getFn != nil {
		return m.getFn(ctx, id)
	}
	return nil, model.NewListingNotFoundError()
}

func (m *mockListingService) Create(ctx context.Context, params listing.CreateParams, identity *model.Identity) (*model.Listing, error) {
	if m.createFn != nil {
		return m.createFn(ctx, params, identity)
	}
	return nil, model.NewUnauthorizedError()
}

func (m *mockListingService) Update(ctx context.Context, id int64, patch model.ListingPatch, identity *model.Identity) (*model.Listing, error) {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, patch, identity)
	}
	return nil, model.NewListingNotFoundError()
}

func (m *mockListingService) Delete(ctx context.Context, id int64, identity *model.Identity) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id, identity)
	}
	return model.NewListingNotFoundError()
}

func (m *mockListingService) GetRealtor(ctx context.Context, listingID int64) (*model.Account, error) {
	if m.getRealtorFn != nil {
		return m.getRealtorFn(ctx, listingID)
	}
	return nil, model.NewListingNotFoundError()
}

var _ ListingServiceInterface = (*mockListingService)(nil)

func newListingTestRouter(h *ListingHandler) http.Handler {
	r := chi.NewRouter()
	r.Get("/api/listings", h.List)
	r.Post("/api/listings", h.Create)
	r.Get("/api/listings/{id}", h.Get)
	r.Put("/api/listings/{id}", h.Update)
	r.Delete("/api/listings/{id}", h.Delete)
	r.Get("/api/listings/{id}/realtor", h.GetRealtor)
	return r
}

func sampleListing(id int64) *model.Listing {
	return &model.Listing{
		ID:           id,
		Address:      "1-2-3 Shibuya",
		City:         "Tokyo",
		Price:        52000000,
		Bedrooms:     3,
		Bathrooms:    2,
		LandSize:     88.5,
		PropertyType: model.PropertyTypeCondo,
		RealtorID:    10,
		Images:       []model.Image{{ID: 1, ListingID: id, URL: "https://img.example.com/a.jpg"}},
	}
}

func realtorRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	identity := &model.Identity{UserID: 10, UserType: model.UserTypeRealtor}
	return req.WithContext(middleware.ContextWithIdentity(req.Context(), identity))
}

// --- テスト ---

func TestListListings_ParsesQueryFilters(t *testing.T) {
	var gotFilter model.ListingFilter
	service := &mockListingService{
		listFn: func(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error) {
			gotFilter = filter
			return []*model.Listing{sampleListing(1)}, nil
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	req := httptest.NewRequest(http.MethodGet,
		"/api/listings?city=Tokyo&minPrice=1000000&maxPrice=90000000&propertyType=condo", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotFilter.City != "Tokyo" {
		t.Errorf("city = %q, want Tokyo", gotFilter.City)
	}
	if gotFilter.MinPrice != 1000000 || gotFilter.MaxPrice != 90000000 {
		t.Errorf("price range = [%f, %f], want [1000000, 90000000]", gotFilter.MinPrice, gotFilter.MaxPrice)
	}
	if gotFilter.PropertyType != model.PropertyTypeCondo {
		t.Errorf("propertyType = %q, want condo", gotFilter.PropertyType)
	}

	var body []listingResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body) != 1 || body[0].ID != 1 {
		t.Errorf("body = %+v, want one listing with ID 1", body)
	}
}

func TestListListings_InvalidQueryValues(t *testing.T) {
	router := newListingTestRouter(NewListingHandler(&mockListingService{}))

	for _, target := range []string{
		"/api/listings?minPrice=abc",
		"/api/listings?maxPrice=-5",
		"/api/listings?propertyType=castle",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want %d", target, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestListListings_NoMatches_Returns404(t *testing.T) {
	router := newListingTestRouter(NewListingHandler(&mockListingService{}))

	req := httptest.NewRequest(http.MethodGet, "/api/listings?city=Atlantis", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestGetListing(t *testing.T) {
	service := &mockListingService{
		getFn: func(ctx context.Context, id int64) (*model.Listing, error) {
			return sampleListing(id), nil
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/api/listings/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var body listingResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ID != 7 || body.PropertyType != "condo" || len(body.Images) != 1 {
		t.Errorf("body = %+v, want listing 7 with one image", body)
	}
}

func TestGetListing_InvalidID(t *testing.T) {
	router := newListingTestRouter(NewListingHandler(&mockListingService{}))

	req := httptest.NewRequest(http.MethodGet, "/api/listings/abc", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestCreateListing_Success(t *testing.T) {
	var gotParams listing.CreateParams
	service := &mockListingService{
		createFn: func(ctx context.Context, params listing.CreateParams, identity *model.Identity) (*model.Listing, error) {
			gotParams = params
			created := sampleListing(5)
			created.RealtorID = identity.UserID
			return created, nil
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	body := `{
		"address": "1-2-3 Shibuya",
		"city": "Tokyo",
		"price": 52000000,
		"numberOfBedrooms": 3,
		"numberOfBathrooms": 2,
		"landSize": 88.5,
		"propertyType": "condo",
		"images": [{"url": "https://img.example.com/a.jpg"}]
	}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, realtorRequest(http.MethodPost, "/api/listings", body))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if gotParams.City != "Tokyo" || gotParams.PropertyType != model.PropertyTypeCondo {
		t.Errorf("params = %+v, want decoded request", gotParams)
	}
	if len(gotParams.ImageURLs) != 1 {
		t.Errorf("imageURLs = %v, want one URL", gotParams.ImageURLs)
	}
}

func TestCreateListing_Anonymous_Returns401(t *testing.T) {
	router := newListingTestRouter(NewListingHandler(&mockListingService{}))

	req := httptest.NewRequest(http.MethodPost, "/api/listings", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCreateListing_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"住所なし", `{"city":"Tokyo","price":1,"numberOfBedrooms":1,"numberOfBathrooms":1,"landSize":1,"propertyType":"condo"}`},
		{"価格が負", `{"address":"a","city":"Tokyo","price":-1,"numberOfBedrooms":1,"numberOfBathrooms":1,"landSize":1,"propertyType":"condo"}`},
		{"種別不正", `{"address":"a","city":"Tokyo","price":1,"numberOfBedrooms":1,"numberOfBathrooms":1,"landSize":1,"propertyType":"castle"}`},
		{"画像URLが空", `{"address":"a","city":"Tokyo","price":1,"numberOfBedrooms":1,"numberOfBathrooms":1,"landSize":1,"propertyType":"condo","images":[{"url":""}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockListingService{
				createFn: func(ctx context.Context, params listing.CreateParams, identity *model.Identity) (*model.Listing, error) {
					t.Fatal("service must not be called for an invalid request")
					return nil, nil
				},
			}
			router := newListingTestRouter(NewListingHandler(service))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, realtorRequest(http.MethodPost, "/api/listings", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestUpdateListing_PartialPatch(t *testing.T) {
	var gotPatch model.ListingPatch
	service := &mockListingService{
		updateFn: func(ctx context.Context, id int64, patch model.ListingPatch, identity *model.Identity) (*model.Listing, error) {
			gotPatch = patch
			updated := sampleListing(id)
			updated.Price = *patch.Price
			return updated, nil
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, realtorRequest(http.MethodPut, "/api/listings/7", `{"price": 48000000}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	// 指定したフィールドのみがパッチに含まれること
	if gotPatch.Price == nil || *gotPatch.Price != 48000000 {
		t.Errorf("patch price = %v, want 48000000", gotPatch.Price)
	}
	if gotPatch.Address != nil || gotPatch.City != nil || gotPatch.PropertyType != nil {
		t.Errorf("patch = %+v, want only price set", gotPatch)
	}
}

func TestUpdateListing_Forbidden(t *testing.T) {
	service := &mockListingService{
		updateFn: func(ctx context.Context, id int64, patch model.ListingPatch, identity *model.Identity) (*model.Listing, error) {
			return nil, model.NewForbiddenError()
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, realtorRequest(http.MethodPut, "/api/listings/7", `{"price": 48000000}`))

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestDeleteListing_Returns204(t *testing.T) {
	var deletedID int64
	service := &mockListingService{
		deleteFn: func(ctx context.Context, id int64, identity *model.Identity) error {
			deletedID = id
			return nil
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, realtorRequest(http.MethodDelete, "/api/listings/7", ""))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if deletedID != 7 {
		t.Errorf("deleted ID = %d, want 7", deletedID)
	}
}

func TestGetListingRealtor(t *testing.T) {
	service := &mockListingService{
		getRealtorFn: func(ctx context.Context, listingID int64) (*model.Account, error) {
			return &model.Account{
				ID:           10,
				Name:         "Jiro Realtor",
				Email:        "realtor@example.com",
				PasswordHash: "$2a$10$secret-digest",
				UserType:     model.UserTypeRealtor,
			}, nil
		},
	}
	router := newListingTestRouter(NewListingHandler(service))

	req := httptest.NewRequest(http.MethodGet, "/api/listings/7/realtor", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	raw := rec.Body.String()
	var body userResponse
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.ID != 10 || body.Name != "Jiro Realtor" {
		t.Errorf("body = %+v, want the realtor's public fields", body)
	}
	if strings.Contains(raw, "secret-digest") {
		t.Error("response must not contain the password hash")
	}
}
