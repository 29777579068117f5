package model

import "time"

// 購入履歴。
// 商品が消えても残るので、商品名と金額は購入時点の値を持つ。
type Transaction struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//外部キー制約はつけない（商品削除後も履歴を残す）
	ProductID   int64  `gorm:"not null;index" json:"productId"`
	ProductName string `gorm:"type:varchar(255);not null" json:"productName"`

	Quantity     int64 `gorm:"not null;default:1" json:"quantity"`
	PaidAmount   int64 `gorm:"not null" json:"paidAmount"`
	ChangeAmount int64 `gorm:"not null" json:"changeAmount"`
	TotalPrice   int64 `gorm:"not null" json:"totalPrice"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"`
}
