// Package message は物件への問い合わせメッセージのビジネスロジックを提供する。
package message

import (
	"context"
	"fmt"

	"github.com/hitoshi/realtor/internal/authz"
	"github.com/hitoshi/realtor/internal/model"
	"github.com/hitoshi/realtor/internal/repository"
)

// Service は問い合わせメッセージに関するビジネスロジックを提供する。
type Service struct {
	messages repository.MessageRepository
	listings repository.ListingRepository
}

// NewService はServiceを生成する。
func NewService(messages repository.MessageRepository, listings repository.ListingRepository) *Service {
	return &Service{
		messages: messages,
		listings: listings,
	}
}

// Inquire は購入希望者から物件への問い合わせメッセージを作成する。
// 宛先の業者はメッセージ作成時点の物件担当者に固定される。
func (s *Service) Inquire(ctx context.Context, listingID int64, identity *model.Identity, body string) (*model.Message, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError()
	}

	message := &model.Message{
		ListingID: listing.ID,
		RealtorID: listing.RealtorID,
		BuyerID:   identity.UserID,
		Body:      body,
	}

	if err := s.messages.Create(ctx, message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	return message, nil
}

// ListByListing は物件宛のメッセージ一覧を返す。
// 物件の担当業者本人または管理者のみ閲覧できる。
// 存在確認が先（NotFound）、次に所有権チェック（Forbidden）。
func (s *Service) ListByListing(ctx context.Context, listingID int64, identity *model.Identity) ([]*model.Message, error) {
	listing, err := s.listings.FindByID(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to find listing: %w", err)
	}
	if listing == nil {
		return nil, model.NewListingNotFoundError()
	}

	if err := authz.AuthorizeOwner(listing.RealtorID, identity); err != nil {
		return nil, err
	}

	messages, err := s.messages.ListByListing(ctx, listingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}
