package model

import "time"

// 自販機の商品。
// 価格・在庫は最小通貨単位の整数。
type Product struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	ImageURL  *string   `gorm:"type:varchar(255);column:image_url" json:"imageUrl"`
	Price     int64     `gorm:"not null" json:"price"`
	Stock     int64     `gorm:"not null;default:0" json:"stock"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}
