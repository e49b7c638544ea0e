// Package listing は物件の検索・作成・更新・削除のビジネスロジックを提供する。
package listing

import (
	"context"
	"fmt"

	"github.com/hitoshi/realtor/internal/authz"
	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/repository"
)

// Service は物件に関するビジネスロジックを提供する。
type Service struct {
	listings repository.ListingRepository
	accounts repository.AccountRepository
}

// NewService はServiceを生成する。
func NewService(listings repository.ListingRepository, accounts repository.AccountRepository) *Service {
	return &Service{
		listings: listings,
		accounts: accounts,
	}
}

// List はフィルタ条件に一致する物件の一覧を返す。
// 一致する物件が1件もない場合はListingNotFoundを返す。
func (s *Service) List(ctx context.Context, filter model.ListingFilter) ([]*model.Listing, error) {
	listings, err := s.listings.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	if len(listings) == 0 {
		return nil, model.NewListingNotFoundError()
	}
	return listings, nil
}

// Get は指定IDの物件を返す。見つからない場合はListingNotFound。
func (s *Service) Get(ctx context.Context, id int64) (*model.Listing, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError()
	}
	return listing, nil
}

// CreateParams は物件作成の入力。
type CreateParams struct {
	Address      string
	City         string
	Price        float64
	Bedrooms     int
	Bathrooms    int
	LandSize     float64
	PropertyType model.PropertyType
	ImageURLs    []string
}

// Create は新しい物件を登録する。所有者は操作者自身になる。
func (s *Service) Create(ctx context.Context, params CreateParams, identity *model.Identity) (*model.Listing, error) {
	images := make([]model.Image, 0, len(params.ImageURLs))
	for _, url := range params.ImageURLs {
		images = append(images, model.Image{URL: url})
	}

	listing := &model.Listing{
		Address:      params.Address,
		City:         params.City,
		Price:        params.Price,
		Bedrooms:     params.Bedrooms,
		Bathrooms:    params.Bathrooms,
		LandSize:     params.LandSize,
		PropertyType: params.PropertyType,
		RealtorID:    identity.UserID,
		Images:       images,
	}

	if err := s.listings.Create(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}

	return listing, nil
}

// Update は物件を部分更新する。
// 存在確認が先（NotFound）、次に所有権チェック（所有者または管理者以外はForbidden）。
func (s *Service) Update(ctx context.Context, id int64, patch model.ListingPatch, identity *model.Identity) (*model.Listing, error) {
	if err := s.authorize(ctx, id, identity); err != nil {
		return nil, err
	}

	updated, err := s.listings.Update(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	if updated == nil {
		return nil, model.NewListingNotFoundError()
	}

	return updated, nil
}

// Delete は物件を削除する。認可規則はUpdateと同じ。
func (s *Service) Delete(ctx context.Context, id int64, identity *model.Identity) error {
	if err := s.authorize(ctx, id, identity); err != nil {
		return err
	}

	if err := s.listings.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	return nil
}

// GetRealtor は物件の担当業者のアカウントを返す。
func (s *Service) GetRealtor(ctx context.Context, listingID int64) (*model.Account, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError()
	}

	realtor, err := s.accounts.FindByID(ctx, listing.RealtorID)
	if err != nil {
		return nil, fmt.Errorf("failed to find realtor: %w", err)
	}
	if realtor == nil {
		return nil, model.NewAccountNotFoundError()
	}

	return realtor, nil
}

// authorize は物件の存在確認と所有権チェックを行う。
// 変更系操作の前に必ず呼ぶ。
func (s *Service) authorize(ctx context.Context, id int64, identity *model.Identity) error {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return model.NewListingNotFoundError()
	}

	return authz.AuthorizeOwner(listing.RealtorID, identity)
}
