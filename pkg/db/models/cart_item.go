package models

import (
	"github.com/google/uuid"
)

// CartItem is the logical cart line returned by the cart repository. It is
// backed by one of two physical partitions depending on the customer kind.
type CartItem struct {
	ID           uuid.UUID `json:"id"`
	Customer     Customer  `json:"customer"`
	ProductID    int64     `json:"product_id"`
	StoreID      int64     `json:"store_id"`
	Quantity     int       `json:"quantity"`
	Selected     bool      `json:"selected"`
	Comment      string    `json:"comment"`
	PreOrder     bool      `json:"pre_order"`
	PreOrderDays int       `json:"pre_order_days"`
	CouponID     *int64    `json:"coupon_id,omitempty"`
}

// CartItemUser is the physical row for an authenticated user's cart line.
type CartItemUser struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID       int64     `gorm:"column:user_id;not null;uniqueIndex:uniq_cart_items_user_user_id_product_id"`
	ProductID    int64     `gorm:"column:product_id;not null;uniqueIndex:uniq_cart_items_user_user_id_product_id"`
	StoreID      int64     `gorm:"column:store_id;not null"`
	Quantity     int       `gorm:"column:quantity;not null;default:0"`
	Selected     bool      `gorm:"column:selected;not null;default:true"`
	Comment      string    `gorm:"column:comment;not null;default:''"`
	PreOrder     bool      `gorm:"column:pre_order;not null;default:false"`
	PreOrderDays int       `gorm:"column:pre_order_days;not null;default:0"`
	CouponID     *int64    `gorm:"column:coupon_id"`
}

// TableName pins the partition table name.
func (CartItemUser) TableName() string { return "cart_items_user" }

// CartItemSession is the physical row for an anonymous session's cart line.
type CartItemSession struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SessionID    uuid.UUID `gorm:"column:session_id;type:uuid;not null;uniqueIndex:uniq_cart_items_session_session_id_product_id"`
	ProductID    int64     `gorm:"column:product_id;not null;uniqueIndex:uniq_cart_items_session_session_id_product_id"`
	StoreID      int64     `gorm:"column:store_id;not null"`
	Quantity     int       `gorm:"column:quantity;not null;default:0"`
	Selected     bool      `gorm:"column:selected;not null;default:true"`
	Comment      string    `gorm:"column:comment;not null;default:''"`
	PreOrder     bool      `gorm:"column:pre_order;not null;default:false"`
	PreOrderDays int       `gorm:"column:pre_order_days;not null;default:0"`
	CouponID     *int64    `gorm:"column:coupon_id"`
}

// TableName pins the partition table name.
func (CartItemSession) TableName() string { return "cart_items_session" }

// Logical converts the user partition row into the shared cart surface.
func (r CartItemUser) Logical() CartItem {
	return CartItem{
		ID:           r.ID,
		Customer:     UserCustomer(r.UserID),
		ProductID:    r.ProductID,
		StoreID:      r.StoreID,
		Quantity:     r.Quantity,
		Selected:     r.Selected,
		Comment:      r.Comment,
		PreOrder:     r.PreOrder,
		PreOrderDays: r.PreOrderDays,
		CouponID:     r.CouponID,
	}
}

// Logical converts the session partition row into the shared cart surface.
func (r CartItemSession) Logical() CartItem {
	return CartItem{
		ID:           r.ID,
		Customer:     SessionCustomer(r.SessionID),
		ProductID:    r.ProductID,
		StoreID:      r.StoreID,
		Quantity:     r.Quantity,
		Selected:     r.Selected,
		Comment:      r.Comment,
		PreOrder:     r.PreOrder,
		PreOrderDays: r.PreOrderDays,
		CouponID:     r.CouponID,
	}
}

// UserRow shapes the logical item into the user partition for userID.
func (i CartItem) UserRow(userID int64) CartItemUser {
	return CartItemUser{
		ID:           i.ID,
		UserID:       userID,
		ProductID:    i.ProductID,
		StoreID:      i.StoreID,
		Quantity:     i.Quantity,
		Selected:     i.Selected,
		Comment:      i.Comment,
		PreOrder:     i.PreOrder,
		PreOrderDays: i.PreOrderDays,
		CouponID:     i.CouponID,
	}
}

// SessionRow shapes the logical item into the session partition for sessionID.
func (i CartItem) SessionRow(sessionID uuid.UUID) CartItemSession {
	return CartItemSession{
		ID:           i.ID,
		SessionID:    sessionID,
		ProductID:    i.ProductID,
		StoreID:      i.StoreID,
		Quantity:     i.Quantity,
		Selected:     i.Selected,
		Comment:      i.Comment,
		PreOrder:     i.PreOrder,
		PreOrderDays: i.PreOrderDays,
		CouponID:     i.CouponID,
	}
}
