package models

import "time"

// ListingStatus is either active or sold. It only moves active → sold.
type ListingStatus string

const (
	StatusActive ListingStatus = "active"
	StatusSold   ListingStatus = "sold"
)

// Listing is an item a seller has put up for sale.
type Listing struct {
	ID          uint64        `gorm:"primaryKey;autoIncrement"                      json:"id"`
	Title       string        `gorm:"size:255;not null"                             json:"title"`
	Description *string       `gorm:"type:text"                                     json:"description"`
	Price       Price         `gorm:"type:decimal(10,2);not null"                   json:"price"`
	SellerName  string        `gorm:"size:255;not null"                             json:"seller_name"`
	SellerEmail string        `gorm:"size:255;not null"                             json:"seller_email"`
	Status      ListingStatus `gorm:"size:16;not null;default:active;index"         json:"status"`
	CreatedAt   time.Time     `gorm:"autoCreateTime;index"                          json:"created_at"`
}

func (Listing) TableName() string { return "listings" }

// IsActive reports whether the listing can still be bought.
func (l Listing) IsActive() bool { return l.Status == StatusActive }
