package models

import "time"

type Product struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:255;uniqueIndex;not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Price         float64   `gorm:"not null" json:"price"`
	OriginalPrice float64   `json:"originalPrice"`
	Category      string    `gorm:"size:100;index" json:"category"`
	Tags          []string  `gorm:"serializer:json;type:text" json:"tags"`
	Images        []string  `gorm:"serializer:json;type:text" json:"images"`
	Sizes         []string  `gorm:"serializer:json;type:text" json:"sizes"`
	Colors        []string  `gorm:"serializer:json;type:text" json:"colors"`
	Stock         int       `gorm:"not null;default:0" json:"stock"`
	IsFeatured    bool      `gorm:"not null;default:false;index" json:"isFeatured"`
	IsTrending    bool      `gorm:"not null;default:false" json:"isTrending"`
	Rating        float64   `gorm:"not null;default:0" json:"rating"`
	ReviewCount   int       `gorm:"not null;default:0" json:"reviewCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (Product) TableName() string {
	return "product"
}
