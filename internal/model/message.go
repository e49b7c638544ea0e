package model

import "time"

// Message は購入希望者から物件の担当業者への問い合わせメッセージを表す。
// RealtorIDは作成時点の物件担当者に固定される。
type Message struct {
	ID        int64
	ListingID int64
	RealtorID int64
	BuyerID   int64
	Body      string
	CreatedAt time.Time
}
