package model

import "time"

// PropertyType は物件の種別を表す。
type PropertyType string

const (
	// PropertyTypeCondo はマンション・コンド物件を示す。
	PropertyTypeCondo PropertyType = "condo"
	// PropertyTypeResidential は戸建て物件を示す。
	PropertyTypeResidential PropertyType = "residential"
)

// ParsePropertyType は文字列をPropertyTypeに変換する。
// 未知の値の場合はfalseを返す。
func ParsePropertyType(s string) (PropertyType, bool) {
	switch PropertyType(s) {
	case PropertyTypeCondo, PropertyTypeResidential:
		return PropertyType(s), true
	}
	return "", false
}

// Listing は売出し中の物件を表す。
// RealtorIDが所有者。所有権チェックはこのIDと操作者のIdentityの比較で行う。
type Listing struct {
	ID           int64
	Address      string
	City         string
	Price        float64
	Bedrooms     int
	Bathrooms    int
	LandSize     float64
	PropertyType PropertyType
	RealtorID    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Images       []Image
}

// Image は物件に紐づく画像を表す。
type Image struct {
	ID        int64
	ListingID int64
	URL       string
}

// ListingFilter は物件一覧の検索条件を表す。
// ゼロ値のフィールドは条件として使用しない。
type ListingFilter struct {
	City         string       // 部分一致（大文字小文字を区別しない）
	MinPrice     float64      // 0の場合は下限なし
	MaxPrice     float64      // 0の場合は上限なし
	PropertyType PropertyType // 空の場合は全種別
}

// ListingPatch は物件の部分更新を表す。
// nilのフィールドは変更しない。
type ListingPatch struct {
	Address      *string
	City         *string
	Price        *float64
	Bedrooms     *int
	Bathrooms    *int
	LandSize     *float64
	PropertyType *PropertyType
}
